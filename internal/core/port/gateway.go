package port

import (
	"context"

	"github.com/Wyydra/rendezvous/internal/core/domain"
)

// RealTimeGateway pushes events to connected sessions.
type RealTimeGateway interface {
	Deliver(ctx context.Context, to domain.SessionID, ev domain.Event) error
}
