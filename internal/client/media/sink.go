package media

import (
	"sync"
	"sync/atomic"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
)

// DiscardSink drains remote tracks and counts what it received. Readers
// end on their own when the owning peer connection closes.
type DiscardSink struct {
	mu       sync.Mutex
	attached map[string]*webrtc.TrackRemote
	packets  atomic.Uint64

	log zerolog.Logger
}

func NewDiscardSink(log zerolog.Logger) *DiscardSink {
	return &DiscardSink{attached: make(map[string]*webrtc.TrackRemote), log: log}
}

func (s *DiscardSink) Attach(track *webrtc.TrackRemote) {
	if track == nil {
		return
	}
	s.mu.Lock()
	s.attached[track.ID()] = track
	s.mu.Unlock()

	s.log.Info().
		Str("kind", track.Kind().String()).
		Str("codec", track.Codec().MimeType).
		Msg("Remote track attached")

	go func() {
		for {
			if _, _, err := track.ReadRTP(); err != nil {
				return
			}
			s.packets.Add(1)
		}
	}()
}

func (s *DiscardSink) Clear() {
	s.mu.Lock()
	n := len(s.attached)
	clear(s.attached)
	s.mu.Unlock()
	if n > 0 {
		s.log.Info().Int("tracks", n).Msg("Remote media cleared")
	}
}

// Attached reports how many remote tracks are currently shown.
func (s *DiscardSink) Attached() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attached)
}

func (s *DiscardSink) Packets() uint64 {
	return s.packets.Load()
}
