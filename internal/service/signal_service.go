package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/immxrtalbeast/healthconnect_rtc/internal/broadcast"
	"github.com/immxrtalbeast/healthconnect_rtc/internal/domain"
	"github.com/robfig/cron/v3"
)

const defaultEmptyRoomTTL = 10 * time.Minute

// RoomStatus is the queryable view of one room's call state.
type RoomStatus struct {
	RoomID           string               `json:"roomId"`
	ParticipantCount int                  `json:"participantCount"`
	Active           bool                 `json:"active"`
	SessionStatus    domain.SessionStatus `json:"sessionStatus"`
	SessionStartedAt time.Time            `json:"sessionStartedAt,omitempty"`
}

// SignalService is the room registry plus signaling relay: the
// authoritative set of peers per room, the session state machine, and the
// routing of WebRTC control messages between peers. It owns no media and
// interprets no SDP.
type SignalService struct {
	log       *slog.Logger
	publisher broadcast.Publisher
	now       func() time.Time

	mu       sync.RWMutex
	rooms    map[string]*domain.Room
	sessions map[string]*domain.Session

	emptyRoomTTL time.Duration
	runner       *cron.Cron
}

func NewSignalService(publisher broadcast.Publisher, log *slog.Logger, emptyRoomTTL time.Duration) *SignalService {
	if log == nil {
		log = slog.Default()
	}
	if publisher == nil {
		publisher = broadcast.NopPublisher{}
	}
	if emptyRoomTTL <= 0 {
		emptyRoomTTL = defaultEmptyRoomTTL
	}
	return &SignalService{
		log:          log,
		publisher:    publisher,
		now:          func() time.Time { return time.Now().UTC() },
		rooms:        make(map[string]*domain.Room),
		sessions:     make(map[string]*domain.Session),
		emptyRoomTTL: emptyRoomTTL,
	}
}

// CreateSession mints a CREATED session for the room, creating the room
// itself if needed.
func (s *SignalService) CreateSession(roomID string) *domain.Session {
	session := domain.NewSession(roomID)

	s.mu.Lock()
	if _, ok := s.rooms[roomID]; !ok {
		room := domain.NewRoom(roomID)
		room.EmptySince = s.now()
		s.rooms[roomID] = room
	}
	s.sessions[session.SessionID] = session
	s.mu.Unlock()

	s.log.Info("created signaling session",
		slog.String("session_id", session.SessionID),
		slog.String("room_id", roomID),
	)
	return session
}

// Join attaches a user to the room, replacing any previous entry for the
// same user. The newcomer privately receives one EXISTING_PEER message per
// peer already present, and the room receives USER_JOINED, so both sides
// learn about each other regardless of arrival order.
func (s *SignalService) Join(roomID, userID, userRole string) *domain.Peer {
	const op = "service.signal.join"
	log := s.log.With(
		slog.String("op", op),
		slog.String("room_id", roomID),
		slog.String("user_id", userID),
	)

	room := s.roomOrCreate(roomID)
	peer := domain.NewPeer(userID, userRole)

	room.Mutex.Lock()
	existing := make([]*domain.Peer, 0, len(room.Peers))
	for id, p := range room.Peers {
		if id == userID {
			continue
		}
		existing = append(existing, p)
	}
	room.Peers[userID] = peer
	room.EmptySince = time.Time{}
	room.Mutex.Unlock()

	s.activateSessions(roomID)

	topic := broadcast.RoomTopic(roomID)
	s.publisher.Publish(topic, domain.RoomMessage{
		Type:       domain.MessageUserJoined,
		FromPeerID: peer.PeerID,
		Data: map[string]any{
			"userId":   peer.UserID,
			"userRole": peer.UserRole,
		},
	})

	for _, p := range existing {
		s.publisher.PublishToUser(topic, userID, domain.RoomMessage{
			Type:       domain.MessageExistingPeer,
			FromPeerID: p.PeerID,
			Data: map[string]any{
				"userId":        p.UserID,
				"userRole":      p.UserRole,
				"screenSharing": p.ScreenSharing,
			},
		})
	}

	log.Info("peer joined",
		slog.String("peer_id", peer.PeerID),
		slog.String("role", userRole),
		slog.Int("existing_peers", len(existing)),
	)
	return peer
}

// Leave detaches the user's peer and notifies the remaining peers.
// Leaving a room or peer that does not exist is a harmless no-op.
func (s *SignalService) Leave(roomID, userID string) Outcome {
	room := s.room(roomID)
	if room == nil {
		s.log.Debug("leave for unknown room", slog.String("room_id", roomID))
		return OutcomeNoRoom
	}

	peer, ok := room.Remove(userID, s.now())
	if !ok {
		s.log.Debug("leave for unknown peer",
			slog.String("room_id", roomID),
			slog.String("user_id", userID),
		)
		return OutcomeNoPeer
	}

	s.publisher.Publish(broadcast.RoomTopic(roomID), domain.RoomMessage{
		Type:       domain.MessageUserLeft,
		FromPeerID: peer.PeerID,
	})

	s.log.Info("peer left",
		slog.String("room_id", roomID),
		slog.String("user_id", userID),
		slog.String("peer_id", peer.PeerID),
	)
	return OutcomeApplied
}

// EndSession tears the call down: every peer receives SESSION_END, the
// room is discarded, and its sessions become ENDED. Idempotent.
func (s *SignalService) EndSession(roomID string) Outcome {
	now := s.now()

	s.mu.Lock()
	room, ok := s.rooms[roomID]
	delete(s.rooms, roomID)
	ended := false
	for _, session := range s.sessions {
		if session.RoomID == roomID && session.Status != domain.SessionStatusEnded {
			session.End(now)
			ended = true
		}
	}
	s.mu.Unlock()

	if !ok && !ended {
		s.log.Debug("end for unknown room", slog.String("room_id", roomID))
		return OutcomeNoRoom
	}

	if room != nil {
		topic := broadcast.RoomTopic(roomID)
		for _, peer := range room.Snapshot() {
			s.publisher.PublishToUser(topic, peer.UserID, domain.RoomMessage{
				Type: domain.MessageSessionEnd,
			})
		}
	}

	s.log.Info("ended signaling session", slog.String("room_id", roomID))
	return OutcomeApplied
}

// Relay routes one inbound control message. Routing policy: point-to-point
// when the signal names a known target peer, dropped when the target is
// unknown, room-wide broadcast when no target is named. Receivers filter
// on fromPeerId/toPeerId.
func (s *SignalService) Relay(roomID, userID string, msg *domain.SignalMessage) Outcome {
	const op = "service.signal.relay"
	if msg == nil {
		return OutcomeUnsupported
	}
	log := s.log.With(
		slog.String("op", op),
		slog.String("room_id", roomID),
		slog.String("user_id", userID),
		slog.String("type", msg.Type),
	)

	room := s.room(roomID)
	if room == nil {
		log.Warn("signal for unknown room")
		return OutcomeNoRoom
	}

	sender, ok := room.Get(userID)
	if !ok {
		log.Warn("signal from user not in room")
		return OutcomeNoPeer
	}

	switch msg.Type {
	case domain.MessageOffer, domain.MessageAnswer, domain.MessageICECandidate:
		forward := msg.Forward(sender.PeerID)
		topic := broadcast.RoomTopic(roomID)

		if msg.TargetPeerID == "" {
			s.publisher.Publish(topic, forward)
			log.Debug("broadcast signal to room")
			return OutcomeApplied
		}

		target, ok := room.FindByPeerID(msg.TargetPeerID)
		if !ok {
			log.Warn("signal for unknown target peer", slog.String("target_peer_id", msg.TargetPeerID))
			return OutcomeNoTarget
		}
		s.publisher.PublishToUser(topic, target.UserID, forward)
		log.Debug("forwarded signal", slog.String("target_peer_id", target.PeerID))
		return OutcomeApplied

	case domain.MessageScreenShareStart:
		return s.SetScreenSharing(roomID, userID, true)
	case domain.MessageScreenShareStop:
		return s.SetScreenSharing(roomID, userID, false)
	default:
		log.Warn("unsupported signal type")
		return OutcomeUnsupported
	}
}

// SetScreenSharing flips the sender's flag and notifies every other peer.
func (s *SignalService) SetScreenSharing(roomID, userID string, enabled bool) Outcome {
	room := s.room(roomID)
	if room == nil {
		s.log.Debug("screen share for unknown room", slog.String("room_id", roomID))
		return OutcomeNoRoom
	}

	room.Mutex.Lock()
	sender, ok := room.Peers[userID]
	if ok {
		sender.ScreenSharing = enabled
	}
	others := make([]*domain.Peer, 0, len(room.Peers))
	for id, p := range room.Peers {
		if id != userID {
			others = append(others, p)
		}
	}
	room.Mutex.Unlock()

	if !ok {
		s.log.Debug("screen share from user not in room",
			slog.String("room_id", roomID),
			slog.String("user_id", userID),
		)
		return OutcomeNoPeer
	}

	msgType := domain.MessageScreenShareStop
	if enabled {
		msgType = domain.MessageScreenShareStart
	}
	topic := broadcast.RoomTopic(roomID)
	for _, p := range others {
		s.publisher.PublishToUser(topic, p.UserID, domain.RoomMessage{
			Type:       msgType,
			FromPeerID: sender.PeerID,
		})
	}

	return OutcomeApplied
}

// RoomStatus reports the room's participant count and session state.
func (s *SignalService) RoomStatus(roomID string) RoomStatus {
	s.mu.RLock()
	room := s.rooms[roomID]
	var latest *domain.Session
	for _, session := range s.sessions {
		if session.RoomID != roomID {
			continue
		}
		if latest == nil || session.CreatedAt.After(latest.CreatedAt) {
			latest = session
		}
	}
	s.mu.RUnlock()

	status := RoomStatus{RoomID: roomID}
	if room != nil {
		status.ParticipantCount = room.Size()
	}
	if latest != nil {
		status.SessionStatus = latest.Status
		status.SessionStartedAt = latest.CreatedAt
		status.Active = latest.Status == domain.SessionStatusActive
	}
	return status
}

// CleanupIdleRooms reclaims rooms that have sat empty longer than the TTL
// and drops their sessions, then ages out ended sessions whose room is
// already gone so an ended call's record does not live forever. Runs on a
// schedule, concurrently with live joins; a join inside a reclaimed room
// simply recreates it.
func (s *SignalService) CleanupIdleRooms() int {
	now := s.now()

	s.mu.Lock()
	reclaimed := 0
	for id, room := range s.rooms {
		if room.IdleSince(now) > s.emptyRoomTTL {
			delete(s.rooms, id)
			for sid, session := range s.sessions {
				if session.RoomID == id {
					session.End(now)
					delete(s.sessions, sid)
				}
			}
			reclaimed++
		}
	}

	dropped := 0
	for sid, session := range s.sessions {
		if _, live := s.rooms[session.RoomID]; live {
			continue
		}
		if session.Status == domain.SessionStatusEnded && now.Sub(session.EndedAt) > s.emptyRoomTTL {
			delete(s.sessions, sid)
			dropped++
		}
	}
	s.mu.Unlock()

	if reclaimed > 0 || dropped > 0 {
		s.log.Info("reclaimed idle rooms",
			slog.Int("rooms", reclaimed),
			slog.Int("ended_sessions", dropped),
		)
	}
	return reclaimed
}

// StartSweeps schedules the idle-room cleanup until Close is called.
func (s *SignalService) StartSweeps(interval time.Duration) error {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	runner := cron.New(cron.WithLocation(time.UTC))
	if _, err := runner.AddFunc("@every "+interval.String(), func() {
		s.CleanupIdleRooms()
	}); err != nil {
		return err
	}
	runner.Start()
	s.runner = runner
	return nil
}

func (s *SignalService) Close() {
	if s.runner != nil {
		<-s.runner.Stop().Done()
	}
}

func (s *SignalService) room(roomID string) *domain.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms[roomID]
}

func (s *SignalService) roomOrCreate(roomID string) *domain.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		room = domain.NewRoom(roomID)
		room.EmptySince = s.now()
		s.rooms[roomID] = room
	}
	return room
}

func (s *SignalService) activateSessions(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.sessions {
		if session.RoomID == roomID {
			session.Activate()
		}
	}
}
