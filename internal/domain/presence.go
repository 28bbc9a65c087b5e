package domain

import "time"

type PresenceStatus string

const (
	PresenceOnline    PresenceStatus = "ONLINE"
	PresenceAway      PresenceStatus = "AWAY"
	PresenceBusy      PresenceStatus = "BUSY"
	PresenceOffline   PresenceStatus = "OFFLINE"
	PresenceInvisible PresenceStatus = "INVISIBLE"
)

// PresenceRecord is the current-value presence view of one user. Records
// are created lazily on the first presence-affecting event and never
// deleted; the status degrades to OFFLINE instead.
//
// Invariant: IsTyping implies TypingInChatID != "" and TypingStartedAt set;
// after any stop-typing transition all three are cleared together.
type PresenceRecord struct {
	UserID          string         `json:"userId"`
	UserName        string         `json:"userName,omitempty"`
	Status          PresenceStatus `json:"status"`
	StatusMessage   string         `json:"statusMessage,omitempty"`
	LastSeen        time.Time      `json:"lastSeen"`
	LastActivity    time.Time      `json:"lastActivity"`
	IsTyping        bool           `json:"isTyping"`
	TypingInChatID  string         `json:"typingInChatId,omitempty"`
	TypingStartedAt time.Time      `json:"typingStartedAt,omitempty"`
	DeviceInfo      string         `json:"deviceInfo,omitempty"`
	IPAddress       string         `json:"ipAddress,omitempty"`
}

func NewPresenceRecord(userID string, now time.Time) *PresenceRecord {
	return &PresenceRecord{
		UserID:       userID,
		Status:       PresenceOnline,
		LastSeen:     now,
		LastActivity: now,
	}
}

// UpdateStatus sets the status and bumps both activity timestamps.
func (p *PresenceRecord) UpdateStatus(status PresenceStatus, now time.Time) {
	p.Status = status
	p.LastSeen = now
	p.LastActivity = now
}

func (p *PresenceRecord) StartTyping(chatID string, now time.Time) {
	p.IsTyping = true
	p.TypingInChatID = chatID
	p.TypingStartedAt = now
}

func (p *PresenceRecord) StopTyping() {
	p.IsTyping = false
	p.TypingInChatID = ""
	p.TypingStartedAt = time.Time{}
}

// ReachableStatuses are the statuses counted as present by roster
// queries and the online count. AWAY users are reachable; they are just
// not available for a call.
var ReachableStatuses = []PresenceStatus{PresenceOnline, PresenceBusy, PresenceAway}

// Online reports whether the user counts as reachable for a call.
func (p *PresenceRecord) Online() bool {
	return p.Status == PresenceOnline || p.Status == PresenceBusy
}

// Clone returns a copy safe to hand out past the store's lock.
func (p *PresenceRecord) Clone() *PresenceRecord {
	clone := *p
	return &clone
}

// PresenceUpdate is the envelope published on the global presence topic.
type PresenceUpdate struct {
	UserID        string    `json:"userId"`
	UserName      string    `json:"userName,omitempty"`
	Status        string    `json:"status"`
	StatusMessage string    `json:"statusMessage,omitempty"`
	LastSeen      time.Time `json:"lastSeen"`
}

// TypingNotification is the envelope published on chat/{chatId}/typing.
type TypingNotification struct {
	UserID    string    `json:"userId"`
	ChatID    string    `json:"chatId"`
	IsTyping  bool      `json:"isTyping"`
	Timestamp time.Time `json:"timestamp"`
}
