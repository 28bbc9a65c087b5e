package model

import "time"

// UserPresence is the persisted form of a presence record. One row per
// user; rows are upserted in place, never deleted.
type UserPresence struct {
	UserID          string     `gorm:"size:64;primaryKey"`
	UserName        string     `gorm:"size:255"`
	Status          string     `gorm:"size:32;not null;index"`
	StatusMessage   string     `gorm:"size:255"`
	LastSeen        time.Time  `gorm:"not null"`
	LastActivity    time.Time  `gorm:"not null;index"`
	IsTyping        bool       `gorm:"not null;default:false"`
	TypingInChatID  *string    `gorm:"size:64;index"`
	TypingStartedAt *time.Time
	DeviceInfo      string     `gorm:"size:255"`
	IPAddress       string     `gorm:"size:64"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
