package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Wyydra/rendezvous/internal/core/domain"
	"github.com/Wyydra/rendezvous/internal/core/port"
	"github.com/rs/zerolog"
)

type RelayOptions struct {
	// RequireMembership drops signals from sessions that are not members of
	// the target room. Off by default: any session may signal any room.
	RequireMembership bool
}

// RelayService turns join/leave/signal/disconnect requests into registry
// updates and fan-out.
type RelayService struct {
	rooms   port.Registry
	gateway port.RealTimeGateway
	metrics port.Metrics
	opts    RelayOptions
	log     zerolog.Logger
}

func NewRelayService(rooms port.Registry, gateway port.RealTimeGateway, metrics port.Metrics, opts RelayOptions, log zerolog.Logger) *RelayService {
	if metrics == nil {
		metrics = port.NopMetrics{}
	}
	return &RelayService{
		rooms:   rooms,
		gateway: gateway,
		metrics: metrics,
		opts:    opts,
		log:     log,
	}
}

func (s *RelayService) Join(ctx context.Context, room domain.RoomID, self domain.SessionID) domain.PublishResult {
	if room == "" {
		return domain.PublishResult{}
	}
	res := s.rooms.Join(room, self)
	if res.Created {
		s.metrics.RoomCreated()
	}
	if !res.Added {
		s.log.Debug().Str("room", room.String()).Str("session_id", self.String()).Msg("Already a member")
		return domain.PublishResult{}
	}
	s.log.Info().Str("room", room.String()).Str("session_id", self.String()).Msg("Joined room")

	// membership is updated before recipients are computed, so two
	// near-simultaneous joiners always see each other
	return s.publish(ctx, room, self, domain.NewUserJoined(room, self))
}

func (s *RelayService) Leave(ctx context.Context, room domain.RoomID, self domain.SessionID) domain.PublishResult {
	if room == "" {
		return domain.PublishResult{}
	}
	res := s.rooms.Leave(room, self)
	if !res.Removed {
		return domain.PublishResult{}
	}
	if res.Deleted {
		s.metrics.RoomDeleted()
	}
	s.log.Info().Str("room", room.String()).Str("session_id", self.String()).Msg("Left room")
	return s.deliver(ctx, room, res.Remaining, domain.NewUserLeft(room, self))
}

func (s *RelayService) Signal(ctx context.Context, room domain.RoomID, self domain.SessionID, payload json.RawMessage) domain.PublishResult {
	if room == "" {
		return domain.PublishResult{}
	}
	if s.opts.RequireMembership && !s.isMember(room, self) {
		s.log.Warn().Str("room", room.String()).Str("session_id", self.String()).Msg("Signal from non-member dropped")
		return domain.PublishResult{}
	}
	return s.publish(ctx, room, self, domain.NewSignal(room, self, payload))
}

// Disconnect removes the session from every room and tells the remaining
// members it left.
func (s *RelayService) Disconnect(ctx context.Context, self domain.SessionID) domain.PublishResult {
	var total domain.PublishResult
	for _, left := range s.rooms.RemoveSessionFromAllRooms(self) {
		if left.Deleted {
			s.metrics.RoomDeleted()
			continue
		}
		res := s.deliver(ctx, left.Room, left.Remaining, domain.NewUserLeft(left.Room, self))
		total.SentTo += res.SentTo
		total.Dropped = append(total.Dropped, res.Dropped...)
	}
	return total
}

func (s *RelayService) isMember(room domain.RoomID, session domain.SessionID) bool {
	for _, m := range s.rooms.MembersOf(room, "") {
		if m == session {
			return true
		}
	}
	return false
}

// publish sends ev to every member of room except the sender. A recipient
// that cannot take the event is reported as dropped and never blocks the rest.
func (s *RelayService) publish(ctx context.Context, room domain.RoomID, sender domain.SessionID, ev domain.Event) domain.PublishResult {
	return s.deliver(ctx, room, s.rooms.MembersOf(room, sender), ev)
}

func (s *RelayService) deliver(ctx context.Context, room domain.RoomID, recipients []domain.SessionID, ev domain.Event) domain.PublishResult {
	var res domain.PublishResult
	for _, to := range recipients {
		err := s.gateway.Deliver(ctx, to, ev)
		switch {
		case err == nil:
			res.SentTo++
		case errors.Is(err, port.ErrSessionNotFound):
			s.log.Debug().Str("recipient", to.String()).Msg("Recipient already gone")
		default:
			s.log.Warn().Err(err).
				Str("room", room.String()).
				Str("recipient", to.String()).
				Str("type", string(ev.Type)).
				Msg("Delivery failed")
			res.Dropped = append(res.Dropped, to)
		}
	}
	s.metrics.MessageRelayed(ev.Type, res.SentTo)
	if len(res.Dropped) > 0 {
		s.metrics.DeliveryDropped(len(res.Dropped))
	}
	return res
}
