// Package rtc builds pion peer connections for the negotiation session.
package rtc

import (
	"github.com/Wyydra/rendezvous/internal/client/media"
	"github.com/Wyydra/rendezvous/internal/client/negotiation"
	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
)

type Options struct {
	ICEServers []string
	// Optional UDP range for host candidates. Both zero means any port.
	PortMin uint16
	PortMax uint16
	// Level for pion's own logs.
	LogLevel zerolog.Level
	// Leave out NACK, RTCP reports and TWCC.
	DisableDefaultInterceptors bool
}

// Factory implements negotiation.PeerFactory.
type Factory struct {
	api  *webrtc.API
	conf webrtc.Configuration
	log  zerolog.Logger
}

func NewFactory(opts Options, log zerolog.Logger) (*Factory, error) {
	m := &webrtc.MediaEngine{}
	if err := m.RegisterDefaultCodecs(); err != nil {
		return nil, err
	}
	i := &interceptor.Registry{}
	if !opts.DisableDefaultInterceptors {
		if err := webrtc.RegisterDefaultInterceptors(m, i); err != nil {
			return nil, err
		}
	}
	s := webrtc.SettingEngine{LoggerFactory: NewPionLogger(log, opts.LogLevel)}
	if opts.PortMin > 0 || opts.PortMax > 0 {
		if err := s.SetEphemeralUDPPortRange(opts.PortMin, opts.PortMax); err != nil {
			return nil, err
		}
	}

	conf := webrtc.Configuration{}
	if len(opts.ICEServers) > 0 {
		conf.ICEServers = []webrtc.ICEServer{{URLs: opts.ICEServers}}
	}

	return &Factory{
		api:  webrtc.NewAPI(webrtc.WithMediaEngine(m), webrtc.WithInterceptorRegistry(i), webrtc.WithSettingEngine(s)),
		conf: conf,
		log:  log,
	}, nil
}

func (f *Factory) NewPeer(local media.Stream, h negotiation.PeerHandlers) (negotiation.Peer, error) {
	pc, err := f.api.NewPeerConnection(f.conf)
	if err != nil {
		return nil, err
	}
	p := &Peer{conn: pc, log: f.log}

	if local != nil {
		for _, track := range local.Tracks() {
			sender, err := pc.AddTrack(track)
			if err != nil {
				_ = pc.Close()
				return nil, err
			}
			go drainRTCP(sender)
			p.log.Debug().Str("kind", track.Kind().String()).Msg("Added local track")
		}
	}
	// receive even when there is nothing to send
	for _, kind := range []webrtc.RTPCodecType{webrtc.RTPCodecTypeAudio, webrtc.RTPCodecTypeVideo} {
		if hasSender(pc, kind) {
			continue
		}
		if _, err := pc.AddTransceiverFromKind(kind, webrtc.RTPTransceiverInit{Direction: webrtc.RTPTransceiverDirectionRecvonly}); err != nil {
			_ = pc.Close()
			return nil, err
		}
	}

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		// nil marks the end of gathering
		if c == nil || h.OnICECandidate == nil {
			return
		}
		h.OnICECandidate(c.ToJSON())
	})
	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		if h.OnTrack != nil {
			h.OnTrack(track)
		}
	})
	pc.OnConnectionStateChange(func(st webrtc.PeerConnectionState) {
		p.log.Debug().Str("state", st.String()).Msg("Peer connection state")
		if h.OnConnectionState != nil {
			h.OnConnectionState(st)
		}
	})
	return p, nil
}

func hasSender(pc *webrtc.PeerConnection, kind webrtc.RTPCodecType) bool {
	for _, t := range pc.GetTransceivers() {
		if t.Kind() == kind && t.Sender() != nil {
			return true
		}
	}
	return false
}

// RTCP has to be read for interceptors to work
func drainRTCP(sender *webrtc.RTPSender) {
	buf := make([]byte, 1500)
	for {
		if _, _, err := sender.Read(buf); err != nil {
			return
		}
	}
}
