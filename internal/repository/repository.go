package repository

import (
	"context"
	"errors"
	"time"

	"github.com/immxrtalbeast/healthconnect_rtc/internal/domain"
)

var ErrPresenceNotFound = errors.New("presence record not found")

// PresenceRepository is the backing store for presence records. The
// presence service is its sole writer; every implementation must be safe
// for concurrent access from connection handlers and the sweep jobs.
type PresenceRepository interface {
	Get(ctx context.Context, userID string) (*domain.PresenceRecord, error)
	Upsert(ctx context.Context, record *domain.PresenceRecord) error
	ByStatus(ctx context.Context, statuses ...domain.PresenceStatus) ([]*domain.PresenceRecord, error)
	TypingInChat(ctx context.Context, chatID string) ([]*domain.PresenceRecord, error)
	CountOnline(ctx context.Context) (int64, error)

	// MarkInactiveOffline bulk-transitions every non-offline record whose
	// last activity predates cutoff. Returns the number of records changed.
	MarkInactiveOffline(ctx context.Context, cutoff, now time.Time) (int64, error)

	// StaleTyping lists records still typing whose indicator started
	// before cutoff.
	StaleTyping(ctx context.Context, cutoff time.Time) ([]*domain.PresenceRecord, error)
}

// ChatRoster maps a chat to its current participants. Membership itself is
// owned by the business layer; this view only exists so presence queries
// can be scoped to a chat.
type ChatRoster interface {
	Join(ctx context.Context, chatID, userID string) error
	Leave(ctx context.Context, chatID, userID string) error
	Participants(ctx context.Context, chatID string) ([]string, error)
}
