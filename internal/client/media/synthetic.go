package media

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	pionmedia "github.com/pion/webrtc/v4/pkg/media"
	"github.com/rs/zerolog"
)

// opus frame carrying 20ms of silence
var opusSilence = []byte{0xf8, 0xff, 0xfe}

const frameDuration = 20 * time.Millisecond

type SyntheticOptions struct {
	Audio bool
	Video bool
}

// SyntheticSource stands in for capture devices on hosts that have none.
// Audio carries opus silence; the video track is negotiated but idle.
type SyntheticSource struct {
	opts SyntheticOptions
	log  zerolog.Logger
}

func NewSyntheticSource(opts SyntheticOptions, log zerolog.Logger) *SyntheticSource {
	return &SyntheticSource{opts: opts, log: log}
}

func (s *SyntheticSource) Acquire(ctx context.Context) (Stream, error) {
	if !s.opts.Audio && !s.opts.Video {
		return nil, ErrNoDevice
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	st := &syntheticStream{done: make(chan struct{})}
	if s.opts.Audio {
		audio, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "audio", id)
		if err != nil {
			return nil, err
		}
		st.audio = audio
		st.tracks = append(st.tracks, audio)
	}
	if s.opts.Video {
		video, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "video", id)
		if err != nil {
			return nil, err
		}
		st.tracks = append(st.tracks, video)
	}

	if st.audio != nil {
		st.wg.Add(1)
		go st.pumpAudio(s.log)
	}
	s.log.Debug().Int("tracks", len(st.tracks)).Str("stream", id).Msg("Synthetic media acquired")
	return st, nil
}

type syntheticStream struct {
	tracks []webrtc.TrackLocal
	audio  *webrtc.TrackLocalStaticSample

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func (s *syntheticStream) Tracks() []webrtc.TrackLocal {
	return s.tracks
}

func (s *syntheticStream) Stop() {
	s.once.Do(func() { close(s.done) })
	s.wg.Wait()
}

func (s *syntheticStream) pumpAudio(log zerolog.Logger) {
	defer s.wg.Done()
	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			// unbound tracks drop samples silently
			if err := s.audio.WriteSample(pionmedia.Sample{Data: opusSilence, Duration: frameDuration}); err != nil {
				log.Trace().Err(err).Msg("Audio sample dropped")
			}
		}
	}
}
