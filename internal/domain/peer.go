package domain

import (
	"time"

	"github.com/google/uuid"
)

// Peer represents one user's live connection inside a call room. A user
// holds at most one peer entry per room; re-joining mints a fresh PeerID
// and replaces the old entry.
type Peer struct {
	PeerID        string    `json:"peerId"`
	UserID        string    `json:"userId"`
	UserRole      string    `json:"userRole"`
	JoinedAt      time.Time `json:"joinedAt"`
	ScreenSharing bool      `json:"screenSharing"`
}

func NewPeer(userID, userRole string) *Peer {
	return &Peer{
		PeerID:   uuid.New().String(),
		UserID:   userID,
		UserRole: userRole,
		JoinedAt: time.Now().UTC(),
	}
}
