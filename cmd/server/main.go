package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Wyydra/rendezvous/internal/adapter/driven/gateway/ws"
	"github.com/Wyydra/rendezvous/internal/adapter/driven/metrics"
	"github.com/Wyydra/rendezvous/internal/adapter/driven/registry/memory"
	handler "github.com/Wyydra/rendezvous/internal/adapter/driving/http"
	"github.com/Wyydra/rendezvous/internal/config"
	"github.com/Wyydra/rendezvous/internal/core/port"
	"github.com/Wyydra/rendezvous/internal/core/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	var flags config.ServerFlags
	fs := pflag.NewFlagSet("server", pflag.ExitOnError)
	flags.WithFlags(fs)
	_ = fs.Parse(os.Args[1:])

	conf, err := config.LoadServer(&flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	l, err := conf.Log.Logger(os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log: %v\n", err)
		os.Exit(1)
	}
	log.Logger = l

	var (
		m        port.Metrics = port.NopMetrics{}
		exporter http.Handler
	)
	if !conf.Metrics.Disabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
		pm, err := metrics.New(reg)
		if err != nil {
			l.Fatal().Err(err).Msg("Failed to register metrics")
		}
		m, exporter = pm, pm.Handler()
	}

	hub := ws.NewHub(m, l)
	relay := service.NewRelayService(memory.NewRegistry(), hub, m, service.RelayOptions{
		RequireMembership: conf.Relay.RequireMembership,
	}, l)

	s := conf.Server
	h := handler.NewHandler(relay, hub, exporter, handler.Options{
		AllowedOrigins:  s.AllowedOrigins,
		ReadBufferSize:  s.ReadBufferSize,
		WriteBufferSize: s.WriteBufferSize,
		MaxMessageSize:  s.MaxMessageSize,
		Client: ws.ClientOptions{
			WriteWait: s.WriteWait,
			PongWait:  s.PongWait,
			SendQueue: s.SendQueue,
		},
		RateLimit: s.RateLimit,
		RateBurst: s.RateBurst,
		Profiling: s.Profiling,
	}, l)

	go hub.Run()

	srv := &http.Server{
		Addr:    s.Addr,
		Handler: h.NewRouter(),
	}

	go func() {
		l.Info().Str("addr", s.Addr).Bool("require_membership", conf.Relay.RequireMembership).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	l.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		l.Error().Err(err).Msg("Server forced to shutdown")
	}

	// closes every WebSocket, which the HTTP shutdown does not track
	hub.Stop()
	l.Info().Msg("Server exited")
}
