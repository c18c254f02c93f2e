package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Wyydra/rendezvous/internal/adapter/driven/directory"
	"github.com/Wyydra/rendezvous/internal/client/media"
	"github.com/Wyydra/rendezvous/internal/client/negotiation"
	"github.com/Wyydra/rendezvous/internal/client/rtc"
	"github.com/Wyydra/rendezvous/internal/client/signaling"
	"github.com/Wyydra/rendezvous/internal/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	flagICE     []string
	flagNoAudio bool
	flagNoVideo bool
)

var joinCmd = &cobra.Command{
	Use:   "join ROOM",
	Short: "Join a room and stay in the call until interrupted",
	Long: `Join a room and negotiate with the other participant.

Examples:
  peer join standup
  peer join standup --url wss://signal.example.com/ws --no-video
  peer join abc123 --directory https://api.example.com --token $TOKEN`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, l, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return join(ctx, conf, args[0], l)
	},
}

func init() {
	f := joinCmd.Flags()
	f.StringSliceVar(&flagICE, "ice", nil, "ICE server URLs")
	f.BoolVar(&flagNoAudio, "no-audio", false, "Do not send audio")
	f.BoolVar(&flagNoVideo, "no-video", false, "Do not send video")
}

func join(ctx context.Context, conf config.PeerConfig, room string, l zerolog.Logger) error {
	if conf.Directory.URL != "" {
		dir, err := directory.New(conf.Directory.URL, conf.Directory.Token, nil)
		if err != nil {
			return err
		}
		// the directory is bookkeeping only; signaling works without it
		if msg, err := dir.Join(ctx, room); err != nil {
			l.Warn().Err(err).Msg("Directory join failed")
		} else {
			l.Info().Str("message", msg).Msg("Directory join")
		}
		defer func() {
			lctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if _, err := dir.Leave(lctx, room); err != nil {
				l.Warn().Err(err).Msg("Directory leave failed")
			}
		}()
	}

	client, err := signaling.Dial(conf.Signaling.URL, conf.Signaling.Origin, l)
	if err != nil {
		return err
	}
	defer client.Close()

	factory, err := rtc.NewFactory(rtc.Options{
		ICEServers: conf.ICE.Servers,
		PortMin:    conf.ICE.PortMin,
		PortMax:    conf.ICE.PortMax,
		LogLevel:   zerolog.WarnLevel,
	}, l)
	if err != nil {
		return fmt.Errorf("webrtc: %w", err)
	}

	session := negotiation.NewSession(negotiation.Config{
		Factory:  factory,
		Source:   media.NewSyntheticSource(media.SyntheticOptions{Audio: !conf.Media.NoAudio, Video: !conf.Media.NoVideo}, l),
		Sink:     media.NewDiscardSink(l),
		Signaler: client,
		Log:      l,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = session.Run(ctx)
	}()
	go signaling.Route(ctx, client.Incoming(), session, l)

	session.Join(room)
	l.Info().Str("room", room).Str("server", conf.Signaling.URL).Msg("Joining")

	for {
		select {
		case n := <-session.Notifications():
			report(l, n)
		case <-client.Done():
			l.Warn().Msg("Signaling connection closed")
			cancel()
			<-stopped
			return nil
		case <-ctx.Done():
			<-stopped
			return nil
		}
	}
}

func report(l zerolog.Logger, n negotiation.Notification) {
	switch n.Kind {
	case negotiation.StateChanged:
		l.Info().Str("state", n.State.String()).Msg("Call state")
	case negotiation.RemoteJoined:
		l.Info().Str("peer", n.Remote).Msg("Participant joined")
	case negotiation.RemoteLeft:
		l.Info().Str("peer", n.Remote).Msg("Participant left")
	case negotiation.Failure:
		l.Error().Err(n.Err).Msg("Call error")
	}
}
