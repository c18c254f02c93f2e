// Package negotiation drives one participant through media acquisition,
// the offer/answer/candidate exchange and teardown with a single remote
// peer at a time.
package negotiation

type State int32

const (
	Idle State = iota
	MediaAcquiring
	MediaReady
	AwaitingAnswer
	Negotiating
	Connected
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case MediaAcquiring:
		return "media-acquiring"
	case MediaReady:
		return "media-ready"
	case AwaitingAnswer:
		return "awaiting-answer"
	case Negotiating:
		return "negotiating"
	case Connected:
		return "connected"
	case Closed:
		return "closed"
	}
	return "unknown"
}

type Role string

const (
	Caller Role = "caller"
	Callee Role = "callee"
)

type NotificationKind string

const (
	StateChanged NotificationKind = "state"
	RemoteJoined NotificationKind = "remote-joined"
	RemoteLeft   NotificationKind = "remote-left"
	Failure      NotificationKind = "error"
)

// Notification informs the UI about what the session is doing. Failures
// are informational: the session keeps running.
type Notification struct {
	Kind   NotificationKind
	State  State
	Remote string
	Err    error
}
