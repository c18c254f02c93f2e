package negotiation

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
)

type payloadKind int

const (
	kindOffer payloadKind = iota + 1
	kindAnswer
	kindCandidate
)

// wirePayload accepts what browsers send: an RTCSessionDescriptionInit
// or an RTCIceCandidateInit, undiscriminated.
type wirePayload struct {
	Type             string  `json:"type"`
	SDP              string  `json:"sdp"`
	Candidate        string  `json:"candidate"`
	SDPMid           *string `json:"sdpMid"`
	SDPMLineIndex    *uint16 `json:"sdpMLineIndex"`
	UsernameFragment *string `json:"usernameFragment"`
}

type signalPayload struct {
	kind      payloadKind
	desc      webrtc.SessionDescription
	candidate webrtc.ICECandidateInit
}

func decodePayload(raw json.RawMessage) (signalPayload, error) {
	var w wirePayload
	if err := json.Unmarshal(raw, &w); err != nil {
		return signalPayload{}, err
	}
	switch {
	case w.Type == "offer":
		return signalPayload{kind: kindOffer, desc: webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: w.SDP}}, nil
	case w.Type == "answer":
		return signalPayload{kind: kindAnswer, desc: webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: w.SDP}}, nil
	case w.Candidate != "":
		return signalPayload{kind: kindCandidate, candidate: webrtc.ICECandidateInit{
			Candidate:        w.Candidate,
			SDPMid:           w.SDPMid,
			SDPMLineIndex:    w.SDPMLineIndex,
			UsernameFragment: w.UsernameFragment,
		}}, nil
	}
	return signalPayload{}, ErrUnknownPayload
}

func encodeDescription(desc webrtc.SessionDescription) (json.RawMessage, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		SDP  string `json:"sdp"`
	}{desc.Type.String(), desc.SDP})
}

func encodeCandidate(c webrtc.ICECandidateInit) (json.RawMessage, error) {
	return json.Marshal(c)
}
