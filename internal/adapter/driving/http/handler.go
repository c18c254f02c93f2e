package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Wyydra/rendezvous/internal/adapter/driven/gateway/ws"
	"github.com/Wyydra/rendezvous/internal/core/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type Options struct {
	AllowedOrigins  []string
	ReadBufferSize  int
	WriteBufferSize int
	MaxMessageSize  int64
	Client          ws.ClientOptions
	// Inbound messages per second per connection. Zero disables the limit.
	RateLimit float64
	RateBurst int
	Profiling bool
}

func DefaultOptions() Options {
	return Options{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		MaxMessageSize:  64 << 10,
		Client:          ws.DefaultClientOptions(),
		RateLimit:       50,
		RateBurst:       100,
	}
}

type Handler struct {
	Relay   *service.RelayService
	Hub     *ws.Hub
	Metrics http.Handler

	opts     Options
	upgrader websocket.Upgrader
	log      zerolog.Logger
	now      func() time.Time
}

// NewHandler wires the relay and hub behind the HTTP surface. metrics may be
// nil, in which case /metrics is not mounted.
func NewHandler(relay *service.RelayService, hub *ws.Hub, metrics http.Handler, opts Options, log zerolog.Logger) *Handler {
	h := &Handler{
		Relay:   relay,
		Hub:     hub,
		Metrics: metrics,
		opts:    opts,
		log:     log,
		now:     time.Now,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  opts.ReadBufferSize,
		WriteBufferSize: opts.WriteBufferSize,
		CheckOrigin:     originChecker(opts.AllowedOrigins),
	}
	return h
}

func (h *Handler) NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/health", h.Health)
	r.Get("/ws", h.ServeWS)
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}
	if h.opts.Profiling {
		r.Mount("/debug", middleware.Profiler())
	}

	return r
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":    "OK",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// originChecker allows every origin when the list is empty. Requests
// without an Origin header (non-browser clients) are always accepted.
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
