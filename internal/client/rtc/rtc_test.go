package rtc

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/Wyydra/rendezvous/internal/client/media"
	"github.com/Wyydra/rendezvous/internal/client/negotiation"
	"github.com/pion/logging"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ logging.LoggerFactory   = PionLog{}
	_ negotiation.PeerFactory = (*Factory)(nil)
	_ negotiation.Peer        = (*Peer)(nil)
)

func newFactory(t *testing.T) *Factory {
	t.Helper()
	f, err := NewFactory(Options{LogLevel: zerolog.Disabled}, zerolog.Nop())
	require.NoError(t, err)
	return f
}

func TestOfferAnswer(t *testing.T) {
	f := newFactory(t)
	src := media.NewSyntheticSource(media.SyntheticOptions{Audio: true, Video: true}, zerolog.Nop())
	stream, err := src.Acquire(context.Background())
	require.NoError(t, err)
	t.Cleanup(stream.Stop)

	caller, err := f.NewPeer(stream, negotiation.PeerHandlers{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = caller.Close() })

	// callee has nothing to send but still receives
	callee, err := f.NewPeer(nil, negotiation.PeerHandlers{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = callee.Close() })

	offer, err := caller.CreateOffer()
	require.NoError(t, err)
	assert.Equal(t, webrtc.SDPTypeOffer, offer.Type)
	assert.Contains(t, offer.SDP, "m=audio")
	assert.Contains(t, offer.SDP, "m=video")
	assert.True(t, strings.Contains(strings.ToLower(offer.SDP), "opus"))

	answer, err := callee.Answer(offer)
	require.NoError(t, err)
	assert.Equal(t, webrtc.SDPTypeAnswer, answer.Type)
	assert.Contains(t, answer.SDP, "m=audio")

	require.NoError(t, caller.SetAnswer(answer))
}

func TestAnswerRejectsGarbage(t *testing.T) {
	f := newFactory(t)
	p, err := f.NewPeer(nil, negotiation.PeerHandlers{})
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Answer(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "garbage"})
	assert.Error(t, err)
}

func TestCandidateAfterClose(t *testing.T) {
	f := newFactory(t)
	p, err := f.NewPeer(nil, negotiation.PeerHandlers{})
	require.NoError(t, err)
	require.NoError(t, p.Close())

	err = p.AddICECandidate(webrtc.ICECandidateInit{Candidate: "candidate:1 1 udp 1 10.0.0.1 9 typ host"})
	assert.Error(t, err)
}

func TestPortRangeValidated(t *testing.T) {
	_, err := NewFactory(Options{PortMin: 6000, PortMax: 5000}, zerolog.Nop())
	assert.Error(t, err)
}

func TestPionLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewPionLogger(zerolog.New(&buf), zerolog.WarnLevel).NewLogger("ice")
	l.Debug("hidden")
	l.Warnf("shown %d", 1)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown 1")
	assert.Contains(t, out, `"scope":"ice"`)
}
