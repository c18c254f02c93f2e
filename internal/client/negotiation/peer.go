package negotiation

import (
	"encoding/json"

	"github.com/Wyydra/rendezvous/internal/client/media"
	"github.com/pion/webrtc/v4"
)

// Peer is one peer connection. Descriptions returned by CreateOffer and
// Answer are already applied locally.
type Peer interface {
	CreateOffer() (webrtc.SessionDescription, error)
	Answer(offer webrtc.SessionDescription) (webrtc.SessionDescription, error)
	SetAnswer(answer webrtc.SessionDescription) error
	AddICECandidate(c webrtc.ICECandidateInit) error
	Close() error
}

// PeerHandlers are invoked from the connection's own goroutines.
type PeerHandlers struct {
	OnICECandidate    func(webrtc.ICECandidateInit)
	OnTrack           func(*webrtc.TrackRemote)
	OnConnectionState func(webrtc.PeerConnectionState)
}

type PeerFactory interface {
	NewPeer(local media.Stream, h PeerHandlers) (Peer, error)
}

// Signaler carries messages to the signaling server.
type Signaler interface {
	JoinRoom(room string) error
	LeaveRoom(room string) error
	Signal(room string, payload json.RawMessage) error
}
