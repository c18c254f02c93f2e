package media

import (
	"context"
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticNoDevice(t *testing.T) {
	_, err := NewSyntheticSource(SyntheticOptions{}, zerolog.Nop()).Acquire(context.Background())
	assert.ErrorIs(t, err, ErrNoDevice)
}

func TestSyntheticCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSyntheticSource(SyntheticOptions{Audio: true}, zerolog.Nop()).Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSyntheticTracks(t *testing.T) {
	src := NewSyntheticSource(SyntheticOptions{Audio: true, Video: true}, zerolog.Nop())
	st, err := src.Acquire(context.Background())
	require.NoError(t, err)

	tracks := st.Tracks()
	require.Len(t, tracks, 2)
	assert.Equal(t, webrtc.RTPCodecTypeAudio, tracks[0].Kind())
	assert.Equal(t, webrtc.RTPCodecTypeVideo, tracks[1].Kind())
	assert.Equal(t, tracks[0].StreamID(), tracks[1].StreamID())

	st.Stop()
	assert.NotPanics(t, st.Stop)
}

func TestDiscardSinkClear(t *testing.T) {
	s := NewDiscardSink(zerolog.Nop())
	s.Attach(nil)
	assert.Zero(t, s.Attached())
	s.Clear()
	assert.Zero(t, s.Packets())
}
