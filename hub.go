package main

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/scalecode-solutions/driftchat/matching"
)

// SessionState is the exclusive lifecycle state of a session. A session is
// in exactly one state at any time.
type SessionState int

const (
	StateIdle SessionState = iota
	StateQueued
	StateInRoom
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateQueued:
		return "queued"
	case StateInRoom:
		return "in-room"
	default:
		return "unknown"
	}
}

// errNotIdle is returned when a session that is already in a room tries to
// enter the queue. Not reported to the client; the request is dropped.
var errNotIdle = errors.New("session is not idle")

// errUnknownSession is returned for operations on an unregistered session.
var errUnknownSession = errors.New("unknown session")

// sessionInfo is the registry record for one connected session. State,
// interest, and room id live here, keyed by session id, rather than on the
// transport object. All fields are guarded by the hub mutex.
type sessionInfo struct {
	sess     SessionInterface
	state    SessionState
	interest string
	roomID   string
}

// SessionView is a read-only snapshot of a registry record.
type SessionView struct {
	ID       string
	State    SessionState
	Interest string
	RoomID   string
}

// Hub is the session registry and the single authority over the waiting
// queue and the room table. Every mutation of shared state happens under
// one mutex, so no two matching passes or teardown paths can interleave.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*sessionInfo
	queue    *matching.Queue
	rooms    *RoomManager

	// Channels for session lifecycle
	register   chan SessionInterface
	unregister chan SessionInterface
	shutdown   chan struct{}

	// Presence coordinator (set after initialization)
	presence *PresenceManager

	logger *zap.Logger
}

// NewHub creates a new Hub instance.
func NewHub(queue *matching.Queue, logger *zap.Logger) *Hub {
	return &Hub{
		sessions:   make(map[string]*sessionInfo),
		queue:      queue,
		rooms:      NewRoomManager(),
		register:   make(chan SessionInterface, 256),
		unregister: make(chan SessionInterface, 256),
		shutdown:   make(chan struct{}),
		logger:     logger,
	}
}

// SetPresence sets the presence coordinator.
func (h *Hub) SetPresence(p *PresenceManager) {
	h.presence = p
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case sess := <-h.register:
			h.addSession(sess)

		case sess := <-h.unregister:
			h.presence.Disconnect(sess)

		case <-h.shutdown:
			h.closeAllSessions()
			return
		}
	}
}

// Shutdown gracefully shuts down the hub.
func (h *Hub) Shutdown() {
	close(h.shutdown)
}

// Register adds a session to the hub.
// Non-blocking: if the buffer is full, spawns a goroutine to retry.
func (h *Hub) Register(sess SessionInterface) {
	select {
	case h.register <- sess:
	default:
		go func() { h.register <- sess }()
	}
}

// Unregister removes a session from the hub.
// Non-blocking: if the buffer is full, spawns a goroutine to retry.
// This prevents connection leaks when sessions can't unregister.
func (h *Hub) Unregister(sess SessionInterface) {
	select {
	case h.unregister <- sess:
	default:
		go func() { h.unregister <- sess }()
	}
}

func (h *Hub) addSession(sess SessionInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[sess.ID()]; ok {
		return
	}
	h.sessions[sess.ID()] = &sessionInfo{sess: sess, state: StateIdle}
	h.logger.Info("session connected", zap.String("session", shortID(sess.ID())))
}

func (h *Hub) closeAllSessions() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, info := range h.sessions {
		info.sess.Close()
	}
	h.sessions = make(map[string]*sessionInfo)
}

// GetSession returns a snapshot of a session's registry record.
func (h *Hub) GetSession(id string) (SessionView, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	info, ok := h.sessions[id]
	if !ok {
		return SessionView{}, false
	}
	return SessionView{
		ID:       id,
		State:    info.state,
		Interest: info.interest,
		RoomID:   info.roomID,
	}, true
}

// SessionCount returns the total number of connected sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// QueuedCount returns the number of sessions waiting to be matched.
func (h *Hub) QueuedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.queue.Len()
}

// RoomCount returns the number of live rooms.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms.count()
}

// StartQueuing enters the session into the waiting queue and runs a
// matching pass. Returns matching.ErrAlreadyQueued for a duplicate entry
// and errNotIdle for a session already in a room. The queuing
// acknowledgement and any match notifications are sent from here so the
// whole transition is one critical section.
func (h *Hub) StartQueuing(sess SessionInterface, interest string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	info := h.sessions[sess.ID()]
	if info == nil {
		return errUnknownSession
	}
	switch info.state {
	case StateQueued:
		return matching.ErrAlreadyQueued
	case StateInRoom:
		return errNotIdle
	}

	if err := h.queue.Enqueue(sess.ID(), interest); err != nil {
		return err
	}
	info.state = StateQueued
	info.interest = interest
	info.sess.Send(QueueStatus(true))
	h.logger.Debug("session queued",
		zap.String("session", shortID(sess.ID())),
		zap.String("interest", interest))

	h.matchLocked()
	return nil
}

// StopQueuing cancels a pending queue entry. Returns false if the session
// was not queued (idempotent).
func (h *Hub) StopQueuing(sess SessionInterface) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	info := h.sessions[sess.ID()]
	if info == nil || !h.queue.Remove(sess.ID()) {
		return false
	}
	info.state = StateIdle
	info.interest = ""
	h.logger.Debug("session left queue", zap.String("session", shortID(sess.ID())))
	return true
}

// matchLocked runs one matching pass and, on success, creates the room and
// notifies both members. Caller holds h.mu.
func (h *Hub) matchLocked() {
	pair, ok := h.queue.MatchPass()
	if !ok {
		return
	}

	a := h.sessions[pair.A.SessionID]
	b := h.sessions[pair.B.SessionID]
	if a == nil || b == nil {
		// The queue never outlives its sessions; disconnects dequeue
		// before the record is deleted.
		h.logger.Error("matched entry without a registry record",
			zap.String("a", shortID(pair.A.SessionID)),
			zap.String("b", shortID(pair.B.SessionID)))
		return
	}

	room := h.rooms.create(a.sess.ID(), b.sess.ID())
	for _, info := range []*sessionInfo{a, b} {
		info.state = StateInRoom
		info.roomID = room.ID
		info.interest = ""
		info.sess.Send(MatchedIn(room.ID))
		info.sess.Send(QueueStatus(false))
	}

	h.logger.Info("sessions matched",
		zap.String("a", shortID(a.sess.ID())),
		zap.String("b", shortID(b.sess.ID())),
		zap.String("room", shortID(room.ID)),
		zap.String("interest", pair.A.Interest))
}

// RelayChat delivers a chat message to every other member of the room.
// Valid only while the sender is in that exact room; a stale or foreign
// room id is a silent no-op.
func (h *Hub) RelayChat(sess SessionInterface, roomID, message string) {
	h.relay(sess, roomID, ChatFrom(sess.ID(), message))
}

// RelayTyping delivers a typing indicator to every other member of the
// room, under the same validity rule as RelayChat.
func (h *Hub) RelayTyping(sess SessionInterface, roomID string, stopped bool) {
	what := InfoUserTyping
	if stopped {
		what = InfoUserStoppedTyping
	}
	h.relay(sess, roomID, TypingInfo(roomID, what))
}

func (h *Hub) relay(sess SessionInterface, roomID string, msg *ServerMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	info := h.sessions[sess.ID()]
	if info == nil || info.state != StateInRoom || info.roomID != roomID {
		h.logger.Debug("relay dropped",
			zap.String("session", shortID(sess.ID())),
			zap.String("room", shortID(roomID)))
		return
	}

	room := h.rooms.get(roomID)
	if room == nil {
		return
	}
	for _, id := range room.Members() {
		if id == sess.ID() {
			continue
		}
		if member := h.sessions[id]; member != nil {
			member.sess.Send(msg)
		}
	}
}
