package signaling

import (
	"context"
	"encoding/json"

	"github.com/Wyydra/rendezvous/internal/core/domain"
	"github.com/rs/zerolog"
)

// Router receives server events by type.
type Router interface {
	SetLocalID(id string)
	UserJoined(id string)
	UserLeft(id string)
	Signal(from string, payload json.RawMessage)
}

// Route forwards events from in to r until in is closed or ctx is done.
// Server errors are logged and otherwise ignored.
func Route(ctx context.Context, in <-chan domain.Event, r Router, log zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-in:
			if !ok {
				return
			}
			switch ev.Type {
			case domain.MessageWelcome:
				r.SetLocalID(ev.SessionID.String())
			case domain.MessageUserJoined:
				r.UserJoined(ev.SessionID.String())
			case domain.MessageUserLeft:
				r.UserLeft(ev.SessionID.String())
			case domain.MessageSignal:
				r.Signal(ev.SenderSessionID.String(), ev.Payload)
			case domain.MessageError:
				log.Warn().Str("message", ev.Message).Msg("Server error")
			default:
				log.Debug().Str("type", string(ev.Type)).Msg("Unknown event")
			}
		}
	}
}
