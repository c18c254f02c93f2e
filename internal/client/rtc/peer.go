package rtc

import (
	"fmt"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
)

// Peer implements negotiation.Peer on a pion PeerConnection.
type Peer struct {
	conn *webrtc.PeerConnection
	log  zerolog.Logger
}

func (p *Peer) CreateOffer() (webrtc.SessionDescription, error) {
	offer, err := p.conn.CreateOffer(nil)
	if err != nil {
		return webrtc.SessionDescription{}, fmt.Errorf("create offer: %w", err)
	}
	if err := p.conn.SetLocalDescription(offer); err != nil {
		return webrtc.SessionDescription{}, fmt.Errorf("set local description: %w", err)
	}
	return *p.conn.LocalDescription(), nil
}

func (p *Peer) Answer(offer webrtc.SessionDescription) (webrtc.SessionDescription, error) {
	if err := p.conn.SetRemoteDescription(offer); err != nil {
		return webrtc.SessionDescription{}, fmt.Errorf("set remote description: %w", err)
	}
	answer, err := p.conn.CreateAnswer(nil)
	if err != nil {
		return webrtc.SessionDescription{}, fmt.Errorf("create answer: %w", err)
	}
	if err := p.conn.SetLocalDescription(answer); err != nil {
		return webrtc.SessionDescription{}, fmt.Errorf("set local description: %w", err)
	}
	return *p.conn.LocalDescription(), nil
}

func (p *Peer) SetAnswer(answer webrtc.SessionDescription) error {
	if err := p.conn.SetRemoteDescription(answer); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}
	return nil
}

func (p *Peer) AddICECandidate(c webrtc.ICECandidateInit) error {
	return p.conn.AddICECandidate(c)
}

func (p *Peer) Close() error {
	return p.conn.Close()
}
