package port

import "github.com/Wyydra/rendezvous/internal/core/domain"

type Metrics interface {
	SessionOpened()
	SessionClosed()
	RoomCreated()
	RoomDeleted()
	MessageRelayed(t domain.MessageType, recipients int)
	DeliveryDropped(n int)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) SessionOpened()                         {}
func (NopMetrics) SessionClosed()                         {}
func (NopMetrics) RoomCreated()                           {}
func (NopMetrics) RoomDeleted()                           {}
func (NopMetrics) MessageRelayed(domain.MessageType, int) {}
func (NopMetrics) DeliveryDropped(int)                    {}
