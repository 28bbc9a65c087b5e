package domain

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionStatusCreated SessionStatus = "CREATED"
	SessionStatusActive  SessionStatus = "ACTIVE"
	SessionStatusEnded   SessionStatus = "ENDED"
)

// Session tracks the lifecycle of one call: CREATED on setup, ACTIVE once
// the first peer joins, ENDED on teardown. ENDED is terminal.
type Session struct {
	SessionID string        `json:"sessionId"`
	RoomID    string        `json:"roomId"`
	Status    SessionStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	EndedAt   time.Time     `json:"endedAt,omitempty"`
}

func NewSession(roomID string) *Session {
	return &Session{
		SessionID: uuid.New().String(),
		RoomID:    roomID,
		Status:    SessionStatusCreated,
		CreatedAt: time.Now().UTC(),
	}
}

// Activate moves CREATED to ACTIVE. Any other transition is ignored.
func (s *Session) Activate() {
	if s.Status == SessionStatusCreated {
		s.Status = SessionStatusActive
	}
}

// End moves the session to its terminal state and stamps when it got
// there. The first end time wins.
func (s *Session) End(now time.Time) {
	s.Status = SessionStatusEnded
	if s.EndedAt.IsZero() {
		s.EndedAt = now
	}
}
