package domain

import "github.com/pion/webrtc/v3"

// Message kinds carried on the room topic. OFFER/ANSWER/ICE_CANDIDATE
// payloads are forwarded unmodified; the relay never inspects SDP content.
const (
	MessageOffer            = "OFFER"
	MessageAnswer           = "ANSWER"
	MessageICECandidate     = "ICE_CANDIDATE"
	MessageUserJoined       = "USER_JOINED"
	MessageUserLeft         = "USER_LEFT"
	MessageExistingPeer     = "EXISTING_PEER"
	MessageScreenShareStart = "SCREEN_SHARE_START"
	MessageScreenShareStop  = "SCREEN_SHARE_STOP"
	MessageSessionEnd       = "SESSION_END"
)

// SignalMessage is an inbound WebRTC control frame from a connected peer.
// TargetPeerID selects point-to-point routing; when empty the signal is
// broadcast to the whole room.
type SignalMessage struct {
	Type         string                     `json:"type"`
	TargetPeerID string                     `json:"targetPeerId,omitempty"`
	SDP          *webrtc.SessionDescription `json:"sdp,omitempty"`
	Candidate    *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
	Data         map[string]any             `json:"data,omitempty"`
}

// RoomMessage is the outbound envelope published on webrtc/{roomId}.
// Receivers filter on ToPeerID and their own identity.
type RoomMessage struct {
	Type       string                     `json:"type"`
	FromPeerID string                     `json:"fromPeerId,omitempty"`
	ToPeerID   string                     `json:"toPeerId,omitempty"`
	SDP        *webrtc.SessionDescription `json:"sdp,omitempty"`
	Candidate  *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
	Data       map[string]any             `json:"data,omitempty"`
}

// Forward wraps an inbound signal into its outbound envelope, stamping the
// sender's peer id.
func (m *SignalMessage) Forward(fromPeerID string) RoomMessage {
	return RoomMessage{
		Type:       m.Type,
		FromPeerID: fromPeerID,
		ToPeerID:   m.TargetPeerID,
		SDP:        m.SDP,
		Candidate:  m.Candidate,
		Data:       m.Data,
	}
}
