// Package media provides local capture streams and remote track sinks for
// the peer client.
package media

import (
	"context"
	"errors"

	"github.com/pion/webrtc/v4"
)

var ErrNoDevice = errors.New("no capture device available")

// Stream is an acquired set of local tracks. Stop releases the devices and
// is safe to call more than once.
type Stream interface {
	Tracks() []webrtc.TrackLocal
	Stop()
}

type Source interface {
	Acquire(ctx context.Context) (Stream, error)
}

// Sink renders remote tracks. Clear detaches everything attached so far.
type Sink interface {
	Attach(track *webrtc.TrackRemote)
	Clear()
}
