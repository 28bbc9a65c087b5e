package converter

import (
	"time"

	"github.com/immxrtalbeast/healthconnect_rtc/internal/domain"
)

// PresenceApi is the outward presence shape. Diagnostic metadata (device,
// ip address) stays server-side.
type PresenceApi struct {
	UserID        string     `json:"userId"`
	UserName      string     `json:"userName,omitempty"`
	Status        string     `json:"status"`
	StatusMessage string     `json:"statusMessage,omitempty"`
	LastSeen      time.Time  `json:"lastSeen"`
	IsTyping      bool       `json:"isTyping"`
	TypingInChat  string     `json:"typingInChatId,omitempty"`
	TypingSince   *time.Time `json:"typingStartedAt,omitempty"`
}

func PresenceToApi(record *domain.PresenceRecord) *PresenceApi {
	if record == nil {
		return nil
	}
	api := &PresenceApi{
		UserID:        record.UserID,
		UserName:      record.UserName,
		Status:        string(record.Status),
		StatusMessage: record.StatusMessage,
		LastSeen:      record.LastSeen,
		IsTyping:      record.IsTyping,
		TypingInChat:  record.TypingInChatID,
	}
	if !record.TypingStartedAt.IsZero() {
		since := record.TypingStartedAt
		api.TypingSince = &since
	}
	return api
}

func PresencesToApi(records []*domain.PresenceRecord) []*PresenceApi {
	out := make([]*PresenceApi, 0, len(records))
	for _, record := range records {
		out = append(out, PresenceToApi(record))
	}
	return out
}
