package repository

import (
	"context"
	"sync"
	"time"

	"github.com/immxrtalbeast/healthconnect_rtc/internal/domain"
)

// InMemoryPresenceRepository is the default presence store: a concurrent
// map of user id to record. Records handed out are clones, so callers can
// only mutate the store through Upsert.
type InMemoryPresenceRepository struct {
	mu      sync.RWMutex
	records map[string]*domain.PresenceRecord
}

func NewInMemoryPresenceRepository() *InMemoryPresenceRepository {
	return &InMemoryPresenceRepository{
		records: make(map[string]*domain.PresenceRecord),
	}
}

func (r *InMemoryPresenceRepository) Get(ctx context.Context, userID string) (*domain.PresenceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[userID]
	if !ok {
		return nil, ErrPresenceNotFound
	}
	return record.Clone(), nil
}

func (r *InMemoryPresenceRepository) Upsert(ctx context.Context, record *domain.PresenceRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[record.UserID] = record.Clone()
	return nil
}

func (r *InMemoryPresenceRepository) ByStatus(ctx context.Context, statuses ...domain.PresenceStatus) ([]*domain.PresenceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wanted := make(map[domain.PresenceStatus]struct{}, len(statuses))
	for _, status := range statuses {
		wanted[status] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.PresenceRecord, 0)
	for _, record := range r.records {
		if _, ok := wanted[record.Status]; ok {
			result = append(result, record.Clone())
		}
	}
	return result, nil
}

func (r *InMemoryPresenceRepository) TypingInChat(ctx context.Context, chatID string) ([]*domain.PresenceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.PresenceRecord, 0)
	for _, record := range r.records {
		if record.IsTyping && record.TypingInChatID == chatID {
			result = append(result, record.Clone())
		}
	}
	return result, nil
}

func (r *InMemoryPresenceRepository) CountOnline(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	reachable := make(map[domain.PresenceStatus]struct{}, len(domain.ReachableStatuses))
	for _, status := range domain.ReachableStatuses {
		reachable[status] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, record := range r.records {
		if _, ok := reachable[record.Status]; ok {
			count++
		}
	}
	return count, nil
}

func (r *InMemoryPresenceRepository) MarkInactiveOffline(ctx context.Context, cutoff, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var changed int64
	for _, record := range r.records {
		if record.Status == domain.PresenceOffline {
			continue
		}
		if record.LastActivity.Before(cutoff) {
			record.Status = domain.PresenceOffline
			record.LastSeen = now
			changed++
		}
	}
	return changed, nil
}

func (r *InMemoryPresenceRepository) StaleTyping(ctx context.Context, cutoff time.Time) ([]*domain.PresenceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.PresenceRecord, 0)
	for _, record := range r.records {
		if record.IsTyping && !record.TypingStartedAt.IsZero() && record.TypingStartedAt.Before(cutoff) {
			result = append(result, record.Clone())
		}
	}
	return result, nil
}

// InMemoryChatRoster keeps a process-local view of chat membership, fed by
// chat subscriptions on the presence socket.
type InMemoryChatRoster struct {
	mu    sync.RWMutex
	chats map[string]map[string]struct{}
}

func NewInMemoryChatRoster() *InMemoryChatRoster {
	return &InMemoryChatRoster{
		chats: make(map[string]map[string]struct{}),
	}
}

func (r *InMemoryChatRoster) Join(ctx context.Context, chatID, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.chats[chatID]
	if !ok {
		members = make(map[string]struct{})
		r.chats[chatID] = members
	}
	members[userID] = struct{}{}
	return nil
}

func (r *InMemoryChatRoster) Leave(ctx context.Context, chatID, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.chats[chatID]
	if !ok {
		return nil
	}
	delete(members, userID)
	if len(members) == 0 {
		delete(r.chats, chatID)
	}
	return nil
}

func (r *InMemoryChatRoster) Participants(ctx context.Context, chatID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]string, 0, len(r.chats[chatID]))
	for userID := range r.chats[chatID] {
		members = append(members, userID)
	}
	return members, nil
}
