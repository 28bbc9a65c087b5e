package service

import (
	"context"

	"github.com/immxrtalbeast/healthconnect_rtc/internal/domain"
)

type SignalInteractor interface {
	CreateSession(roomID string) *domain.Session
	Join(roomID, userID, userRole string) *domain.Peer
	Leave(roomID, userID string) Outcome
	EndSession(roomID string) Outcome
	Relay(roomID, userID string, msg *domain.SignalMessage) Outcome
	SetScreenSharing(roomID, userID string, enabled bool) Outcome
	RoomStatus(roomID string) RoomStatus
}

type PresenceInteractor interface {
	SetOnline(ctx context.Context, userID, userName, deviceInfo, ipAddress string) (*domain.PresenceRecord, error)
	SetOffline(ctx context.Context, userID string) error
	UpdateStatus(ctx context.Context, userID string, status domain.PresenceStatus) (*domain.PresenceRecord, error)
	StartTyping(ctx context.Context, userID, chatID string) error
	StopTyping(ctx context.Context, userID, chatID string) error
	UpdateActivity(ctx context.Context, userID string) error
	GetUserPresence(ctx context.Context, userID string) (*domain.PresenceRecord, error)
	GetOnlineUsers(ctx context.Context) ([]*domain.PresenceRecord, error)
	IsUserOnline(ctx context.Context, userID string) bool
	GetTypingUsersInChat(ctx context.Context, chatID string) ([]*domain.PresenceRecord, error)
	GetOnlineUserCount(ctx context.Context) (int64, error)
	GetChatParticipantsPresence(ctx context.Context, chatID, excludeUserID string) ([]*domain.PresenceRecord, error)
	JoinChat(ctx context.Context, chatID, userID string) error
	LeaveChat(ctx context.Context, chatID, userID string) error
}
