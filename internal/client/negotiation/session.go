package negotiation

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/Wyydra/rendezvous/internal/client/media"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
)

type Config struct {
	Factory  PeerFactory
	Source   media.Source
	Sink     media.Sink
	Signaler Signaler
	Log      zerolog.Logger
}

// Session is the client side of one room membership. All state is owned by
// the goroutine running Run; the exported methods only post events to it,
// so they are safe to call from signaling handlers and UI code alike.
type Session struct {
	factory  PeerFactory
	source   media.Source
	sink     media.Sink
	signaler Signaler
	log      zerolog.Logger

	events chan event
	notes  chan Notification
	done   chan struct{}
	state  atomic.Int32

	// owned by Run
	ctx     context.Context
	localID string
	room    string
	joined  bool
	stream  media.Stream
	gen     uint64
	call    *call
	callSeq uint64
}

type call struct {
	id     uint64
	remote string
	role   Role
	peer   Peer
}

type event any

type (
	joinEvent       struct{ room string }
	leaveEvent      struct{}
	localIDEvent    struct{ id string }
	userJoinedEvent struct{ id string }
	userLeftEvent   struct{ id string }
	signalEvent     struct {
		from    string
		payload json.RawMessage
	}
	mediaEvent struct {
		gen    uint64
		stream media.Stream
		err    error
	}
	candidateEvent struct {
		call      uint64
		candidate webrtc.ICECandidateInit
	}
	trackEvent struct {
		call  uint64
		track *webrtc.TrackRemote
	}
	connStateEvent struct {
		call  uint64
		state webrtc.PeerConnectionState
	}
	// barrierEvent is handled once everything posted before it is done
	barrierEvent struct{ done chan struct{} }
)

func NewSession(cfg Config) *Session {
	return &Session{
		factory:  cfg.Factory,
		source:   cfg.Source,
		sink:     cfg.Sink,
		signaler: cfg.Signaler,
		log:      cfg.Log,
		events:   make(chan event, 64),
		notes:    make(chan Notification, 64),
		done:     make(chan struct{}),
	}
}

func (s *Session) State() State {
	return State(s.state.Load())
}

// Notifications is never closed. Slow readers lose notifications rather
// than stall negotiation.
func (s *Session) Notifications() <-chan Notification {
	return s.notes
}

func (s *Session) Join(room string)     { s.post(joinEvent{room: room}) }
func (s *Session) Leave()               { s.post(leaveEvent{}) }
func (s *Session) SetLocalID(id string) { s.post(localIDEvent{id: id}) }
func (s *Session) UserJoined(id string) { s.post(userJoinedEvent{id: id}) }
func (s *Session) UserLeft(id string)   { s.post(userLeftEvent{id: id}) }

func (s *Session) Signal(from string, payload json.RawMessage) {
	s.post(signalEvent{from: from, payload: payload})
}

func (s *Session) post(ev event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

// postAsync is used from pion callbacks, which must never wait on the
// actor while it may be closing that same connection.
func (s *Session) postAsync(ev event) {
	select {
	case s.events <- ev:
	case <-s.done:
	default:
		go s.post(ev)
	}
}

// Run processes events until ctx is done, then leaves the room.
func (s *Session) Run(ctx context.Context) error {
	s.ctx = ctx
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			s.leave()
			return ctx.Err()
		case ev := <-s.events:
			s.handle(ev)
		}
	}
}

func (s *Session) handle(ev event) {
	switch ev := ev.(type) {
	case joinEvent:
		s.join(ev.room)
	case leaveEvent:
		s.leave()
	case localIDEvent:
		s.localID = ev.id
	case mediaEvent:
		s.mediaAcquired(ev)
	case userJoinedEvent:
		s.userJoined(ev.id)
	case userLeftEvent:
		s.userLeft(ev.id)
	case signalEvent:
		s.signal(ev.from, ev.payload)
	case candidateEvent:
		s.localCandidate(ev)
	case trackEvent:
		if s.isCurrent(ev.call) {
			s.sink.Attach(ev.track)
		}
	case connStateEvent:
		s.connectionState(ev)
	case barrierEvent:
		close(ev.done)
	}
}

func (s *Session) setState(st State) {
	if State(s.state.Swap(int32(st))) == st {
		return
	}
	s.log.Debug().Str("state", st.String()).Msg("Negotiation state")
	s.notify(Notification{Kind: StateChanged, State: st})
}

func (s *Session) notify(n Notification) {
	select {
	case s.notes <- n:
	default:
		s.log.Debug().Str("kind", string(n.Kind)).Msg("Notification dropped")
	}
}

func (s *Session) fail(op string, err error) {
	err = wrap(op, err)
	s.log.Warn().Err(err).Msg("Negotiation step failed")
	s.notify(Notification{Kind: Failure, State: s.State(), Err: err})
}

func (s *Session) join(room string) {
	if room == "" {
		s.fail("join", ErrNoRoom)
		return
	}
	if st := s.State(); st != Idle && st != Closed {
		s.fail("join", ErrAlreadyJoined)
		return
	}
	s.room = room
	s.gen++
	gen := s.gen
	s.setState(MediaAcquiring)

	ctx := s.ctx
	go func() {
		stream, err := s.source.Acquire(ctx)
		s.post(mediaEvent{gen: gen, stream: stream, err: err})
	}()
}

func (s *Session) mediaAcquired(ev mediaEvent) {
	if ev.gen != s.gen || s.State() != MediaAcquiring {
		// the user left while devices were opening
		if ev.stream != nil {
			ev.stream.Stop()
		}
		return
	}
	if ev.err != nil {
		s.room = ""
		s.setState(Idle)
		s.fail("acquire media", ev.err)
		return
	}
	s.stream = ev.stream
	s.setState(MediaReady)

	if err := s.signaler.JoinRoom(s.room); err != nil {
		s.fail("join room", err)
		return
	}
	s.joined = true
}

func (s *Session) leave() {
	if s.State() == Idle {
		return
	}
	s.gen++
	s.closeCall()
	if s.joined {
		if err := s.signaler.LeaveRoom(s.room); err != nil {
			s.log.Debug().Err(err).Msg("Leave not delivered")
		}
		s.joined = false
	}
	if s.stream != nil {
		s.stream.Stop()
		s.stream = nil
	}
	s.room = ""
	s.setState(Closed)
}

func (s *Session) self(id string) bool {
	return s.localID != "" && id == s.localID
}

func (s *Session) userJoined(id string) {
	if s.self(id) {
		return
	}
	s.notify(Notification{Kind: RemoteJoined, State: s.State(), Remote: id})
	if s.State() != MediaReady || s.call != nil {
		return
	}
	c, err := s.newCall(id, Caller)
	if err != nil {
		s.fail("create peer", err)
		return
	}
	offer, err := c.peer.CreateOffer()
	if err != nil {
		s.closeCall()
		s.fail("create offer", err)
		return
	}
	if !s.sendDescription(offer) {
		s.closeCall()
		return
	}
	s.setState(AwaitingAnswer)
}

func (s *Session) userLeft(id string) {
	if s.call == nil || s.call.remote != id {
		return
	}
	s.notify(Notification{Kind: RemoteLeft, State: s.State(), Remote: id})
	s.remoteGone()
}

// remoteGone tears the call down but keeps local media live for the next
// participant.
func (s *Session) remoteGone() {
	s.closeCall()
	s.setState(Closed)
	if s.stream != nil && s.joined {
		s.setState(MediaReady)
	}
}

func (s *Session) signal(from string, raw json.RawMessage) {
	if s.self(from) {
		return
	}
	p, err := decodePayload(raw)
	if err != nil {
		s.log.Warn().Err(err).Str("from", from).Msg("Ignoring signal")
		return
	}
	switch p.kind {
	case kindOffer:
		s.remoteOffer(from, p.desc)
	case kindAnswer:
		s.remoteAnswer(from, p.desc)
	case kindCandidate:
		s.remoteCandidate(from, p.candidate)
	}
}

func (s *Session) remoteOffer(from string, offer webrtc.SessionDescription) {
	switch st := s.State(); {
	case s.call == nil && st == MediaReady:
		s.answerNewCall(from, offer)

	case s.call == nil || s.call.remote != from:
		s.log.Debug().Str("from", from).Str("state", st.String()).Msg("Ignoring stray offer")

	case st == AwaitingAnswer:
		// both sides offered; the lower session id keeps its offer
		if s.localID != "" && s.localID < from {
			s.log.Debug().Str("from", from).Msg("Glare, keeping local offer")
			return
		}
		s.log.Debug().Str("from", from).Msg("Glare, answering remote offer")
		s.closeCall()
		s.answerNewCall(from, offer)

	default:
		answer, err := s.call.peer.Answer(offer)
		if err != nil {
			s.fail("renegotiate", err)
			return
		}
		s.sendDescription(answer)
	}
}

func (s *Session) answerNewCall(from string, offer webrtc.SessionDescription) {
	c, err := s.newCall(from, Callee)
	if err != nil {
		s.fail("create peer", err)
		return
	}
	answer, err := c.peer.Answer(offer)
	if err != nil {
		s.closeCall()
		s.fail("answer", err)
		return
	}
	if !s.sendDescription(answer) {
		s.closeCall()
		return
	}
	s.setState(Negotiating)
}

func (s *Session) remoteAnswer(from string, answer webrtc.SessionDescription) {
	if s.call == nil || s.call.remote != from || s.State() != AwaitingAnswer {
		s.log.Debug().Str("from", from).Msg("Ignoring unexpected answer")
		return
	}
	if err := s.call.peer.SetAnswer(answer); err != nil {
		s.fail("set answer", err)
		return
	}
	s.setState(Negotiating)
}

func (s *Session) remoteCandidate(from string, c webrtc.ICECandidateInit) {
	if s.call == nil || s.call.remote != from {
		s.log.Debug().Str("from", from).Msg("Candidate without a call")
		return
	}
	if err := s.call.peer.AddICECandidate(c); err != nil {
		s.log.Warn().Err(err).Str("from", from).Msg("Candidate rejected")
	}
}

func (s *Session) localCandidate(ev candidateEvent) {
	if !s.isCurrent(ev.call) {
		return
	}
	raw, err := encodeCandidate(ev.candidate)
	if err != nil {
		s.log.Warn().Err(err).Msg("Encode candidate")
		return
	}
	if err := s.signaler.Signal(s.room, raw); err != nil {
		s.log.Debug().Err(err).Msg("Candidate not delivered")
	}
}

func (s *Session) connectionState(ev connStateEvent) {
	if !s.isCurrent(ev.call) {
		return
	}
	switch ev.state {
	case webrtc.PeerConnectionStateConnected:
		if st := s.State(); st == Negotiating || st == AwaitingAnswer {
			s.setState(Connected)
		}
	case webrtc.PeerConnectionStateFailed:
		s.log.Warn().Str("remote", s.call.remote).Msg("Peer connection failed")
		s.notify(Notification{Kind: RemoteLeft, State: s.State(), Remote: s.call.remote})
		s.remoteGone()
	}
}

func (s *Session) isCurrent(id uint64) bool {
	return s.call != nil && s.call.id == id
}

func (s *Session) newCall(remote string, role Role) (*call, error) {
	s.callSeq++
	id := s.callSeq
	peer, err := s.factory.NewPeer(s.stream, PeerHandlers{
		OnICECandidate: func(c webrtc.ICECandidateInit) {
			s.postAsync(candidateEvent{call: id, candidate: c})
		},
		OnTrack: func(t *webrtc.TrackRemote) {
			s.postAsync(trackEvent{call: id, track: t})
		},
		OnConnectionState: func(st webrtc.PeerConnectionState) {
			s.postAsync(connStateEvent{call: id, state: st})
		},
	})
	if err != nil {
		return nil, err
	}
	s.call = &call{id: id, remote: remote, role: role, peer: peer}
	s.log.Info().Str("remote", remote).Str("role", string(role)).Msg("Call started")
	return s.call, nil
}

func (s *Session) closeCall() {
	if s.call == nil {
		return
	}
	if err := s.call.peer.Close(); err != nil {
		s.log.Debug().Err(err).Msg("Close peer")
	}
	s.log.Info().Str("remote", s.call.remote).Msg("Call ended")
	s.call = nil
	s.sink.Clear()
}

func (s *Session) sendDescription(desc webrtc.SessionDescription) bool {
	raw, err := encodeDescription(desc)
	if err == nil {
		err = s.signaler.Signal(s.room, raw)
	}
	if err != nil {
		s.fail("send "+desc.Type.String(), err)
		return false
	}
	return true
}
