package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomPeerReplacement(t *testing.T) {
	room := NewRoom("room-1")

	first := NewPeer("user-1", "doctor")
	second := NewPeer("user-1", "doctor")

	room.Put(first)
	previous := room.Put(second)

	assert.Same(t, first, previous)
	assert.Equal(t, 1, room.Size())

	peer, ok := room.Get("user-1")
	require.True(t, ok)
	assert.Equal(t, second.PeerID, peer.PeerID)
}

func TestRoomIdleTracking(t *testing.T) {
	room := NewRoom("room-1")

	created := room.CreatedAt
	assert.Equal(t, created, room.EmptySince, "a room is idle from creation until the first join")
	assert.Equal(t, 10*time.Minute, room.IdleSince(created.Add(10*time.Minute)))

	room.Put(NewPeer("user-1", "doctor"))
	assert.Zero(t, room.IdleSince(created.Add(time.Hour)))

	now := created.Add(2 * time.Hour)
	_, ok := room.Remove("user-1", now)
	require.True(t, ok)
	assert.Equal(t, 10*time.Minute, room.IdleSince(now.Add(10*time.Minute)))

	_, ok = room.Remove("user-1", now)
	assert.False(t, ok)

	room.Put(NewPeer("user-2", "patient"))
	assert.Zero(t, room.IdleSince(now.Add(time.Hour)), "a re-occupied room is no longer idle")
}

func TestSessionTransitions(t *testing.T) {
	session := NewSession("room-1")
	assert.Equal(t, SessionStatusCreated, session.Status)
	assert.True(t, session.EndedAt.IsZero())

	session.Activate()
	assert.Equal(t, SessionStatusActive, session.Status)

	endedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	session.End(endedAt)
	assert.Equal(t, SessionStatusEnded, session.Status)
	assert.Equal(t, endedAt, session.EndedAt)

	session.Activate()
	assert.Equal(t, SessionStatusEnded, session.Status, "ENDED is terminal")

	session.End(endedAt.Add(time.Hour))
	assert.Equal(t, endedAt, session.EndedAt, "the first end time wins")
}

func TestPresenceTypingInvariant(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	record := NewPresenceRecord("user-1", now)

	record.StartTyping("chat-1", now)
	assert.True(t, record.IsTyping)
	assert.Equal(t, "chat-1", record.TypingInChatID)
	assert.Equal(t, now, record.TypingStartedAt)

	record.StopTyping()
	assert.False(t, record.IsTyping)
	assert.Empty(t, record.TypingInChatID)
	assert.True(t, record.TypingStartedAt.IsZero())
}

func TestPresenceOnline(t *testing.T) {
	now := time.Now().UTC()
	record := NewPresenceRecord("user-1", now)

	for status, online := range map[PresenceStatus]bool{
		PresenceOnline:    true,
		PresenceBusy:      true,
		PresenceAway:      false,
		PresenceOffline:   false,
		PresenceInvisible: false,
	} {
		record.Status = status
		assert.Equal(t, online, record.Online(), "status %s", status)
	}
}

func TestSignalForward(t *testing.T) {
	msg := SignalMessage{
		Type:         MessageOffer,
		TargetPeerID: "peer-2",
		Data:         map[string]any{"sdp": "v=0"},
	}

	forward := msg.Forward("peer-1")
	assert.Equal(t, MessageOffer, forward.Type)
	assert.Equal(t, "peer-1", forward.FromPeerID)
	assert.Equal(t, "peer-2", forward.ToPeerID)
	assert.Equal(t, msg.Data, forward.Data)
}
