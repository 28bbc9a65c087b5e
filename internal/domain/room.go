package domain

import (
	"sync"
	"time"
)

// Room is the ephemeral namespace for one call: the set of peers currently
// attached, keyed by user id so a user cannot hold two entries at once.
type Room struct {
	Mutex      sync.RWMutex
	ID         string
	Peers      map[string]*Peer
	CreatedAt  time.Time
	EmptySince time.Time
}

func NewRoom(id string) *Room {
	now := time.Now().UTC()
	return &Room{
		ID:        id,
		Peers:     make(map[string]*Peer),
		CreatedAt: now,
		// A room is idle from creation until the first join, so a session
		// that nobody ever joins does not pin its room forever.
		EmptySince: now,
	}
}

// Put inserts or replaces the peer entry for its user and returns the
// replaced entry, if any.
func (r *Room) Put(peer *Peer) *Peer {
	r.Mutex.Lock()
	defer r.Mutex.Unlock()
	previous := r.Peers[peer.UserID]
	r.Peers[peer.UserID] = peer
	r.EmptySince = time.Time{}
	return previous
}

// Remove deletes the peer entry for userID and reports whether it existed.
func (r *Room) Remove(userID string, now time.Time) (*Peer, bool) {
	r.Mutex.Lock()
	defer r.Mutex.Unlock()
	peer, ok := r.Peers[userID]
	if !ok {
		return nil, false
	}
	delete(r.Peers, userID)
	if len(r.Peers) == 0 {
		r.EmptySince = now
	}
	return peer, true
}

// Get returns the peer entry for userID.
func (r *Room) Get(userID string) (*Peer, bool) {
	r.Mutex.RLock()
	defer r.Mutex.RUnlock()
	peer, ok := r.Peers[userID]
	return peer, ok
}

// FindByPeerID scans for a peer by its connection-instance id.
func (r *Room) FindByPeerID(peerID string) (*Peer, bool) {
	r.Mutex.RLock()
	defer r.Mutex.RUnlock()
	for _, peer := range r.Peers {
		if peer.PeerID == peerID {
			return peer, true
		}
	}
	return nil, false
}

// Snapshot copies the current peer set for iteration outside the lock.
func (r *Room) Snapshot() []*Peer {
	r.Mutex.RLock()
	defer r.Mutex.RUnlock()
	peers := make([]*Peer, 0, len(r.Peers))
	for _, peer := range r.Peers {
		peers = append(peers, peer)
	}
	return peers
}

func (r *Room) Size() int {
	r.Mutex.RLock()
	defer r.Mutex.RUnlock()
	return len(r.Peers)
}

// IdleSince reports how long the room has been empty at the given instant.
// Zero while the room has peers.
func (r *Room) IdleSince(now time.Time) time.Duration {
	r.Mutex.RLock()
	defer r.Mutex.RUnlock()
	if len(r.Peers) > 0 || r.EmptySince.IsZero() {
		return 0
	}
	return now.Sub(r.EmptySince)
}
