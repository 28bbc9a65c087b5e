package repository

import (
	"context"
	"testing"
	"time"

	"github.com/immxrtalbeast/healthconnect_rtc/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPresenceUpsertAndGet(t *testing.T) {
	repo := NewInMemoryPresenceRepository()
	ctx := context.Background()

	_, err := repo.Get(ctx, "user-1")
	assert.ErrorIs(t, err, ErrPresenceNotFound)

	now := time.Now().UTC()
	record := domain.NewPresenceRecord("user-1", now)
	require.NoError(t, repo.Upsert(ctx, record))

	got, err := repo.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PresenceOnline, got.Status)

	// Handed-out records are clones; mutating one must not leak into the
	// store.
	got.Status = domain.PresenceBusy
	again, err := repo.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PresenceOnline, again.Status)
}

func TestMemoryPresenceByStatus(t *testing.T) {
	repo := NewInMemoryPresenceRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	for userID, status := range map[string]domain.PresenceStatus{
		"a": domain.PresenceOnline,
		"b": domain.PresenceBusy,
		"c": domain.PresenceAway,
		"d": domain.PresenceOffline,
	} {
		record := domain.NewPresenceRecord(userID, now)
		record.Status = status
		require.NoError(t, repo.Upsert(ctx, record))
	}

	reachable, err := repo.ByStatus(ctx, domain.ReachableStatuses...)
	require.NoError(t, err)
	assert.Len(t, reachable, 3)

	count, err := repo.CountOnline(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count, "ONLINE, BUSY and AWAY all count")
}

func TestMemoryMarkInactiveOffline(t *testing.T) {
	repo := NewInMemoryPresenceRepository()
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	stale := domain.NewPresenceRecord("stale", base)
	require.NoError(t, repo.Upsert(ctx, stale))

	fresh := domain.NewPresenceRecord("fresh", base.Add(9*time.Minute))
	require.NoError(t, repo.Upsert(ctx, fresh))

	alreadyOff := domain.NewPresenceRecord("off", base)
	alreadyOff.Status = domain.PresenceOffline
	require.NoError(t, repo.Upsert(ctx, alreadyOff))

	now := base.Add(11 * time.Minute)
	changed, err := repo.MarkInactiveOffline(ctx, now.Add(-10*time.Minute), now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	got, err := repo.Get(ctx, "stale")
	require.NoError(t, err)
	assert.Equal(t, domain.PresenceOffline, got.Status)
	assert.Equal(t, now, got.LastSeen)

	got, err = repo.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, domain.PresenceOnline, got.Status)
}

func TestMemoryStaleTypingAndTypingInChat(t *testing.T) {
	repo := NewInMemoryPresenceRepository()
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	old := domain.NewPresenceRecord("old", base)
	old.StartTyping("chat-1", base)
	require.NoError(t, repo.Upsert(ctx, old))

	recent := domain.NewPresenceRecord("recent", base)
	recent.StartTyping("chat-1", base.Add(90*time.Second))
	require.NoError(t, repo.Upsert(ctx, recent))

	typing, err := repo.TypingInChat(ctx, "chat-1")
	require.NoError(t, err)
	assert.Len(t, typing, 2)

	stale, err := repo.StaleTyping(ctx, base.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "old", stale[0].UserID)
}

func TestChatRoster(t *testing.T) {
	roster := NewInMemoryChatRoster()
	ctx := context.Background()

	require.NoError(t, roster.Join(ctx, "chat-1", "user-1"))
	require.NoError(t, roster.Join(ctx, "chat-1", "user-2"))
	require.NoError(t, roster.Join(ctx, "chat-1", "user-1"), "joining twice is fine")

	members, err := roster.Participants(ctx, "chat-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"user-1", "user-2"}, members)

	require.NoError(t, roster.Leave(ctx, "chat-1", "user-1"))
	require.NoError(t, roster.Leave(ctx, "chat-1", "ghost"))

	members, err = roster.Participants(ctx, "chat-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"user-2"}, members)

	members, err = roster.Participants(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, members)
}
