package repository

import (
	"context"
	"errors"
	"time"

	"github.com/immxrtalbeast/healthconnect_rtc/internal/domain"
	"github.com/immxrtalbeast/healthconnect_rtc/internal/repository/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresPresenceRepository persists presence records through gorm. The
// coordination core only needs current-value semantics, so every write is
// an upsert keyed by user id.
type PostgresPresenceRepository struct {
	db *gorm.DB
}

func NewPostgresPresenceRepository(db *gorm.DB) *PostgresPresenceRepository {
	return &PostgresPresenceRepository{db: db}
}

func (r *PostgresPresenceRepository) Get(ctx context.Context, userID string) (*domain.PresenceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var row model.UserPresence
	err := r.db.WithContext(ctx).First(&row, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPresenceNotFound
		}
		return nil, err
	}

	return toDomainPresence(&row), nil
}

func (r *PostgresPresenceRepository) Upsert(ctx context.Context, record *domain.PresenceRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record == nil {
		return errors.New("presence record is nil")
	}

	row := toModelPresence(record)

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_name", "status", "status_message", "last_seen", "last_activity",
			"is_typing", "typing_in_chat_id", "typing_started_at", "device_info", "ip_address",
		}),
	}).Create(row).Error
}

func (r *PostgresPresenceRepository) ByStatus(ctx context.Context, statuses ...domain.PresenceStatus) ([]*domain.PresenceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	values := make([]string, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, string(status))
	}

	var rows []model.UserPresence
	if err := r.db.WithContext(ctx).Where("status IN ?", values).Find(&rows).Error; err != nil {
		return nil, err
	}

	return toDomainPresences(rows), nil
}

func (r *PostgresPresenceRepository) TypingInChat(ctx context.Context, chatID string) ([]*domain.PresenceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []model.UserPresence
	err := r.db.WithContext(ctx).
		Where("is_typing = ? AND typing_in_chat_id = ?", true, chatID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return toDomainPresences(rows), nil
}

func (r *PostgresPresenceRepository) CountOnline(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	reachable := make([]string, 0, len(domain.ReachableStatuses))
	for _, status := range domain.ReachableStatuses {
		reachable = append(reachable, string(status))
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&model.UserPresence{}).
		Where("status IN ?", reachable).
		Count(&count).Error
	return count, err
}

func (r *PostgresPresenceRepository) MarkInactiveOffline(ctx context.Context, cutoff, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	res := r.db.WithContext(ctx).Model(&model.UserPresence{}).
		Where("status <> ? AND last_activity < ?", string(domain.PresenceOffline), cutoff).
		Updates(map[string]any{
			"status":    string(domain.PresenceOffline),
			"last_seen": now,
		})
	return res.RowsAffected, res.Error
}

func (r *PostgresPresenceRepository) StaleTyping(ctx context.Context, cutoff time.Time) ([]*domain.PresenceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []model.UserPresence
	err := r.db.WithContext(ctx).
		Where("is_typing = ? AND typing_started_at < ?", true, cutoff).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return toDomainPresences(rows), nil
}

func toModelPresence(record *domain.PresenceRecord) *model.UserPresence {
	row := &model.UserPresence{
		UserID:        record.UserID,
		UserName:      record.UserName,
		Status:        string(record.Status),
		StatusMessage: record.StatusMessage,
		LastSeen:      record.LastSeen,
		LastActivity:  record.LastActivity,
		IsTyping:      record.IsTyping,
		DeviceInfo:    record.DeviceInfo,
		IPAddress:     record.IPAddress,
	}
	if record.TypingInChatID != "" {
		chatID := record.TypingInChatID
		row.TypingInChatID = &chatID
	}
	if !record.TypingStartedAt.IsZero() {
		startedAt := record.TypingStartedAt
		row.TypingStartedAt = &startedAt
	}
	return row
}

func toDomainPresence(row *model.UserPresence) *domain.PresenceRecord {
	record := &domain.PresenceRecord{
		UserID:        row.UserID,
		UserName:      row.UserName,
		Status:        domain.PresenceStatus(row.Status),
		StatusMessage: row.StatusMessage,
		LastSeen:      row.LastSeen,
		LastActivity:  row.LastActivity,
		IsTyping:      row.IsTyping,
		DeviceInfo:    row.DeviceInfo,
		IPAddress:     row.IPAddress,
	}
	if row.TypingInChatID != nil {
		record.TypingInChatID = *row.TypingInChatID
	}
	if row.TypingStartedAt != nil {
		record.TypingStartedAt = *row.TypingStartedAt
	}
	return record
}

func toDomainPresences(rows []model.UserPresence) []*domain.PresenceRecord {
	records := make([]*domain.PresenceRecord, 0, len(rows))
	for i := range rows {
		records = append(records, toDomainPresence(&rows[i]))
	}
	return records
}
