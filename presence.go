package main

import "go.uber.org/zap"

// PresenceManager coordinates leave, confirmed-leave, and disconnect flows.
// It owns no state of its own; it drives the hub's registry, queue, and
// room table under the hub mutex.
type PresenceManager struct {
	hub    *Hub
	logger *zap.Logger
}

// NewPresenceManager creates a new presence coordinator.
func NewPresenceManager(hub *Hub, logger *zap.Logger) *PresenceManager {
	return &PresenceManager{hub: hub, logger: logger}
}

// LeaveRoom handles an explicit leave request. The partner is notified
// and keeps the room until they also leave, disconnect, or force it
// closed. The leaver is always acknowledged, even for a stale room id:
// a room already torn down by the partner's concurrent disconnect is a
// benign race, not an error.
func (p *PresenceManager) LeaveRoom(sess SessionInterface, msgID, roomID string) {
	h := p.hub
	h.mu.Lock()
	info := h.sessions[sess.ID()]
	if info != nil && info.state == StateInRoom && info.roomID == roomID {
		remaining, _ := h.rooms.removeMember(roomID, sess.ID())
		info.state = StateIdle
		info.roomID = ""
		if len(remaining) == 1 {
			if partner := h.sessions[remaining[0]]; partner != nil {
				partner.sess.Send(Presence(PresPartnerLeft, textPartnerLeft))
			}
		}
		p.logger.Info("session left room",
			zap.String("session", shortID(sess.ID())),
			zap.String("room", shortID(roomID)))
	} else {
		p.logger.Debug("leave for room the session is not in",
			zap.String("session", shortID(sess.ID())),
			zap.String("room", shortID(roomID)))
	}
	h.mu.Unlock()

	sess.Send(CtrlSuccess(msgID, CodeOK, "left room", map[string]any{
		"message": textLeftRoom,
	}))
}

// ConfirmLeave implements the forced symmetric teardown: every current
// member receives a force-leave notification and the room is destroyed
// unconditionally. A stale room id still yields a force-leave to the
// requester, since the room is treated as already torn down.
func (p *PresenceManager) ConfirmLeave(sess SessionInterface, roomID string) {
	h := p.hub
	h.mu.Lock()

	room := h.rooms.get(roomID)
	if room == nil {
		h.mu.Unlock()
		sess.Send(Presence(PresForceLeave, ""))
		return
	}

	info := h.sessions[sess.ID()]
	if info == nil || info.roomID != roomID {
		// A session outside the room cannot close it for its members.
		h.mu.Unlock()
		p.logger.Warn("confirm leave from non-member",
			zap.String("session", shortID(sess.ID())),
			zap.String("room", shortID(roomID)))
		return
	}

	for _, id := range room.Members() {
		member := h.sessions[id]
		if member == nil {
			continue
		}
		member.state = StateIdle
		member.roomID = ""
		member.sess.Send(Presence(PresForceLeave, ""))
	}
	h.rooms.destroy(roomID)
	h.mu.Unlock()

	p.logger.Info("room force closed",
		zap.String("session", shortID(sess.ID())),
		zap.String("room", shortID(roomID)))
}

// Disconnect handles the loss of a session's transport: a queued session
// is dequeued, an in-room session's partner is notified and the room is
// destroyed, and the registry record is deleted. Calling it again for the
// same session is a no-op.
func (p *PresenceManager) Disconnect(sess SessionInterface) {
	h := p.hub
	h.mu.Lock()

	info := h.sessions[sess.ID()]
	if info == nil {
		h.mu.Unlock()
		return
	}

	switch info.state {
	case StateQueued:
		h.queue.Remove(sess.ID())

	case StateInRoom:
		roomID := info.roomID
		if partnerID, ok := h.rooms.partnerOf(roomID, sess.ID()); ok {
			if partner := h.sessions[partnerID]; partner != nil {
				partner.state = StateIdle
				partner.roomID = ""
				partner.sess.Send(Presence(PresPartnerDisconnected, textPartnerDisconnected))
			}
		}
		h.rooms.destroy(roomID)
	}

	delete(h.sessions, sess.ID())
	h.mu.Unlock()

	p.logger.Info("session disconnected",
		zap.String("session", shortID(sess.ID())),
		zap.String("state", info.state.String()))
}
