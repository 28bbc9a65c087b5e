package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/immxrtalbeast/healthconnect_rtc/internal/broadcast"
	"github.com/immxrtalbeast/healthconnect_rtc/internal/domain"
	"github.com/immxrtalbeast/healthconnect_rtc/internal/repository"
	"github.com/immxrtalbeast/healthconnect_rtc/lib/logger/sl"
	"github.com/robfig/cron/v3"
)

// SweepConfig holds the reconciliation schedule. Intervals say how often a
// sweep runs; thresholds say how old a record must be before the sweep
// touches it.
type SweepConfig struct {
	PresenceInterval  time.Duration
	PresenceThreshold time.Duration
	TypingInterval    time.Duration
	TypingThreshold   time.Duration
}

func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		PresenceInterval:  5 * time.Minute,
		PresenceThreshold: 10 * time.Minute,
		TypingInterval:    time.Minute,
		TypingThreshold:   2 * time.Minute,
	}
}

func (c *SweepConfig) setDefaults() {
	d := DefaultSweepConfig()
	if c.PresenceInterval <= 0 {
		c.PresenceInterval = d.PresenceInterval
	}
	if c.PresenceThreshold <= 0 {
		c.PresenceThreshold = d.PresenceThreshold
	}
	if c.TypingInterval <= 0 {
		c.TypingInterval = d.TypingInterval
	}
	if c.TypingThreshold <= 0 {
		c.TypingThreshold = d.TypingThreshold
	}
}

// PresenceService tracks whether each user is reachable and whether they
// are composing a message, and keeps that view eventually consistent
// despite abrupt disconnects. It is the sole writer of presence records.
type PresenceService struct {
	records   repository.PresenceRepository
	roster    repository.ChatRoster
	publisher broadcast.Publisher
	log       *slog.Logger
	now       func() time.Time

	sweeps SweepConfig
	runner *cron.Cron
}

func NewPresenceService(records repository.PresenceRepository, roster repository.ChatRoster, publisher broadcast.Publisher, log *slog.Logger, sweeps SweepConfig) *PresenceService {
	if log == nil {
		log = slog.Default()
	}
	if publisher == nil {
		publisher = broadcast.NopPublisher{}
	}
	sweeps.setDefaults()
	return &PresenceService{
		records:   records,
		roster:    roster,
		publisher: publisher,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
		sweeps:    sweeps,
	}
}

// SetOnline marks the user reachable and records the connection metadata.
func (s *PresenceService) SetOnline(ctx context.Context, userID, userName, deviceInfo, ipAddress string) (*domain.PresenceRecord, error) {
	const op = "service.presence.setOnline"

	record, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	record.UpdateStatus(domain.PresenceOnline, s.now())
	if userName != "" {
		record.UserName = userName
	}
	record.DeviceInfo = deviceInfo
	record.IPAddress = ipAddress

	if err := s.records.Upsert(ctx, record); err != nil {
		s.log.Error("failed to persist presence", slog.String("op", op), sl.Err(err))
		return nil, err
	}

	s.broadcastPresence(record)
	s.log.Info("user online", slog.String("user_id", userID))
	return record, nil
}

// UpdateStatus applies an explicit status transition (AWAY, BUSY,
// INVISIBLE, ...) and broadcasts the new state.
func (s *PresenceService) UpdateStatus(ctx context.Context, userID string, status domain.PresenceStatus) (*domain.PresenceRecord, error) {
	const op = "service.presence.updateStatus"

	record, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	record.UpdateStatus(status, s.now())

	if err := s.records.Upsert(ctx, record); err != nil {
		s.log.Error("failed to persist presence", slog.String("op", op), sl.Err(err))
		return nil, err
	}

	s.broadcastPresence(record)
	s.log.Info("presence updated",
		slog.String("user_id", userID),
		slog.String("status", string(status)),
	)
	return record, nil
}

// SetOffline marks the user unreachable and force-clears any in-progress
// typing state: a user cannot be typing while offline. Unknown users are a
// no-op.
func (s *PresenceService) SetOffline(ctx context.Context, userID string) error {
	const op = "service.presence.setOffline"

	record, err := s.records.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrPresenceNotFound) {
			return nil
		}
		return err
	}

	record.UpdateStatus(domain.PresenceOffline, s.now())
	record.StopTyping()

	if err := s.records.Upsert(ctx, record); err != nil {
		s.log.Error("failed to persist presence", slog.String("op", op), sl.Err(err))
		return err
	}

	s.broadcastPresence(record)
	s.log.Info("user offline", slog.String("user_id", userID))
	return nil
}

// StartTyping marks the user as composing in the given chat. A user types
// in at most one chat at a time; starting in another chat overwrites the
// previous target without a stop notification for it.
func (s *PresenceService) StartTyping(ctx context.Context, userID, chatID string) error {
	const op = "service.presence.startTyping"

	record, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return err
	}

	record.StartTyping(chatID, s.now())

	if err := s.records.Upsert(ctx, record); err != nil {
		s.log.Error("failed to persist typing state", slog.String("op", op), sl.Err(err))
		return err
	}

	s.broadcastTyping(userID, chatID, true)
	s.log.Debug("typing started",
		slog.String("user_id", userID),
		slog.String("chat_id", chatID),
	)
	return nil
}

// StopTyping clears the typing state only when the user's current target
// matches chatID, so a stale stop cannot clobber a newer start elsewhere.
func (s *PresenceService) StopTyping(ctx context.Context, userID, chatID string) error {
	const op = "service.presence.stopTyping"

	record, err := s.records.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrPresenceNotFound) {
			return nil
		}
		return err
	}

	if !record.IsTyping || record.TypingInChatID != chatID {
		return nil
	}

	record.StopTyping()

	if err := s.records.Upsert(ctx, record); err != nil {
		s.log.Error("failed to persist typing state", slog.String("op", op), sl.Err(err))
		return err
	}

	s.broadcastTyping(userID, chatID, false)
	s.log.Debug("typing stopped",
		slog.String("user_id", userID),
		slog.String("chat_id", chatID),
	)
	return nil
}

// UpdateActivity bumps the activity timestamp without changing status or
// broadcasting anything. Cheap heartbeat keeping the sweep at bay.
func (s *PresenceService) UpdateActivity(ctx context.Context, userID string) error {
	record, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return err
	}

	record.LastActivity = s.now()
	return s.records.Upsert(ctx, record)
}

func (s *PresenceService) GetUserPresence(ctx context.Context, userID string) (*domain.PresenceRecord, error) {
	return s.records.Get(ctx, userID)
}

// GetOnlineUsers lists every user currently reachable in some form.
func (s *PresenceService) GetOnlineUsers(ctx context.Context) ([]*domain.PresenceRecord, error) {
	return s.records.ByStatus(ctx, domain.ReachableStatuses...)
}

func (s *PresenceService) IsUserOnline(ctx context.Context, userID string) bool {
	record, err := s.records.Get(ctx, userID)
	if err != nil {
		return false
	}
	return record.Online()
}

func (s *PresenceService) GetTypingUsersInChat(ctx context.Context, chatID string) ([]*domain.PresenceRecord, error) {
	return s.records.TypingInChat(ctx, chatID)
}

func (s *PresenceService) GetOnlineUserCount(ctx context.Context) (int64, error) {
	return s.records.CountOnline(ctx)
}

// GetChatParticipantsPresence returns the presence of everyone in the chat
// except excludeUserID. Users without a record yet are skipped.
func (s *PresenceService) GetChatParticipantsPresence(ctx context.Context, chatID, excludeUserID string) ([]*domain.PresenceRecord, error) {
	if s.roster == nil {
		return nil, nil
	}

	participants, err := s.roster.Participants(ctx, chatID)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.PresenceRecord, 0, len(participants))
	for _, userID := range participants {
		if userID == excludeUserID {
			continue
		}
		record, err := s.records.Get(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrPresenceNotFound) {
				continue
			}
			return nil, err
		}
		result = append(result, record)
	}
	return result, nil
}

// JoinChat registers the user in the chat's roster view.
func (s *PresenceService) JoinChat(ctx context.Context, chatID, userID string) error {
	if s.roster == nil {
		return nil
	}
	return s.roster.Join(ctx, chatID, userID)
}

func (s *PresenceService) LeaveChat(ctx context.Context, chatID, userID string) error {
	if s.roster == nil {
		return nil
	}
	return s.roster.Leave(ctx, chatID, userID)
}

// SweepStalePresence forces every record whose activity predates the
// threshold to OFFLINE. Bulk transition, no per-user broadcast: browsers
// that vanished without a clean disconnect must not look online forever.
func (s *PresenceService) SweepStalePresence(ctx context.Context) {
	const op = "service.presence.sweepStale"

	now := s.now()
	cutoff := now.Add(-s.sweeps.PresenceThreshold)

	changed, err := s.records.MarkInactiveOffline(ctx, cutoff, now)
	if err != nil {
		s.log.Error("stale-presence sweep failed", slog.String("op", op), sl.Err(err))
		return
	}
	if changed > 0 {
		s.log.Debug("marked inactive users offline", slog.Int64("count", changed))
	}
}

// SweepStaleTyping force-stops typing indicators older than the threshold.
// Unlike the presence sweep this broadcasts one stop notification per
// affected user, because a stuck "someone is typing" is UI-visible.
func (s *PresenceService) SweepStaleTyping(ctx context.Context) {
	const op = "service.presence.sweepTyping"

	cutoff := s.now().Add(-s.sweeps.TypingThreshold)

	stale, err := s.records.StaleTyping(ctx, cutoff)
	if err != nil {
		s.log.Error("stale-typing sweep failed", slog.String("op", op), sl.Err(err))
		return
	}

	for _, record := range stale {
		chatID := record.TypingInChatID
		record.StopTyping()
		if err := s.records.Upsert(ctx, record); err != nil {
			s.log.Error("failed to clear stale typing", slog.String("op", op), sl.Err(err))
			continue
		}
		if chatID != "" {
			s.broadcastTyping(record.UserID, chatID, false)
		}
	}

	if len(stale) > 0 {
		s.log.Debug("cleared stale typing indicators", slog.Int("count", len(stale)))
	}
}

// StartSweeps schedules both reconciliation jobs until Close is called.
func (s *PresenceService) StartSweeps() error {
	runner := cron.New(cron.WithLocation(time.UTC))

	if _, err := runner.AddFunc("@every "+s.sweeps.PresenceInterval.String(), func() {
		s.SweepStalePresence(context.Background())
	}); err != nil {
		return err
	}
	if _, err := runner.AddFunc("@every "+s.sweeps.TypingInterval.String(), func() {
		s.SweepStaleTyping(context.Background())
	}); err != nil {
		return err
	}

	runner.Start()
	s.runner = runner
	return nil
}

func (s *PresenceService) Close() {
	if s.runner != nil {
		<-s.runner.Stop().Done()
	}
}

func (s *PresenceService) getOrCreate(ctx context.Context, userID string) (*domain.PresenceRecord, error) {
	record, err := s.records.Get(ctx, userID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, repository.ErrPresenceNotFound) {
		return nil, err
	}
	return domain.NewPresenceRecord(userID, s.now()), nil
}

func (s *PresenceService) broadcastPresence(record *domain.PresenceRecord) {
	s.publisher.Publish(broadcast.PresenceTopic, domain.PresenceUpdate{
		UserID:        record.UserID,
		UserName:      record.UserName,
		Status:        string(record.Status),
		StatusMessage: record.StatusMessage,
		LastSeen:      record.LastSeen,
	})
}

func (s *PresenceService) broadcastTyping(userID, chatID string, isTyping bool) {
	s.publisher.Publish(broadcast.TypingTopic(chatID), domain.TypingNotification{
		UserID:    userID,
		ChatID:    chatID,
		IsTyping:  isTyping,
		Timestamp: s.now(),
	})
}
