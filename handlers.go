package main

import (
	"errors"
	"strings"
	"time"

	"github.com/scalecode-solutions/runeseg"
	"go.uber.org/zap"

	"github.com/scalecode-solutions/driftchat/config"
	"github.com/scalecode-solutions/driftchat/matching"
	"github.com/scalecode-solutions/driftchat/ratelimit"
)

// Handlers holds dependencies for inbound event handlers. Handlers
// validate payloads and flood limits, then drive the hub and presence
// coordinator.
type Handlers struct {
	hub      *Hub
	presence *PresenceManager
	cfg      *config.Config
	logger   *zap.Logger

	enqueueLimiter *ratelimit.Limiter
	chatLimiter    *ratelimit.Limiter
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(hub *Hub, presence *PresenceManager, cfg *config.Config, logger *zap.Logger) *Handlers {
	return &Handlers{
		hub:      hub,
		presence: presence,
		cfg:      cfg,
		logger:   logger,
		enqueueLimiter: ratelimit.New(
			cfg.Limits.EnqueueLimit,
			time.Duration(cfg.Limits.EnqueueWindow)*time.Second),
		chatLimiter: ratelimit.New(
			cfg.Limits.MessageLimit,
			time.Duration(cfg.Limits.MessageWindow)*time.Second),
	}
}

// HandleStart processes a "start chatting" request.
func (h *Handlers) HandleStart(s SessionInterface, msg *ClientMessage) {
	interest := strings.TrimSpace(msg.Start.Interest)
	if graphemeCount(interest) > h.cfg.Limits.MaxInterestChars {
		s.Send(CtrlError(msg.ID, CodeBadRequest, "interest too long"))
		return
	}
	if !h.enqueueLimiter.Allow(s.ID()) {
		s.Send(CtrlError(msg.ID, CodeTooManyRequests, "too many queue attempts"))
		return
	}

	err := h.hub.StartQueuing(s, interest)
	switch {
	case err == nil:
	case errors.Is(err, matching.ErrAlreadyQueued):
		s.Send(CtrlError(msg.ID, CodeConflict, "already queuing"))
	case errors.Is(err, errNotIdle):
		// Benign invalid request; the session keeps its room.
		h.logger.Debug("start chatting while in a room",
			zap.String("session", shortID(s.ID())))
	default:
		h.logger.Warn("start chatting failed",
			zap.String("session", shortID(s.ID())), zap.Error(err))
	}
}

// HandleStop processes a "stop queuing" request.
func (h *Handlers) HandleStop(s SessionInterface, msg *ClientMessage) {
	if h.hub.StopQueuing(s) {
		s.Send(CtrlSuccess(msg.ID, CodeOK, "removed from queue", nil))
		s.Send(QueueStatus(false))
	}
}

// HandleChat processes a chat message.
func (h *Handlers) HandleChat(s SessionInterface, msg *ClientMessage) {
	chat := msg.Chat
	if chat.Message == "" {
		return
	}
	if graphemeCount(chat.Message) > h.cfg.Limits.MaxMessageChars {
		s.Send(CtrlError(msg.ID, CodeBadRequest, "message too long"))
		return
	}
	if !h.chatLimiter.Allow(s.ID()) {
		s.Send(CtrlError(msg.ID, CodeTooManyRequests, "too many messages"))
		return
	}
	h.hub.RelayChat(s, chat.Room, chat.Message)
}

// HandleTyping processes typing and stopped-typing indicators.
func (h *Handlers) HandleTyping(s SessionInterface, typing *MsgClientTyping, stopped bool) {
	h.hub.RelayTyping(s, typing.Room, stopped)
}

// HandleLeave processes a "leave room" request.
func (h *Handlers) HandleLeave(s SessionInterface, msg *ClientMessage) {
	h.presence.LeaveRoom(s, msg.ID, msg.Leave.Room)
}

// HandleConfirmLeave processes a "confirm leave" request.
func (h *Handlers) HandleConfirmLeave(s SessionInterface, msg *ClientMessage) {
	h.presence.ConfirmLeave(s, msg.Confirm.Room)
}

// SessionClosed releases per-session limiter state. Called when a
// session's transport goes away.
func (h *Handlers) SessionClosed(s SessionInterface) {
	h.enqueueLimiter.Forget(s.ID())
	h.chatLimiter.Forget(s.ID())
}

// graphemeCount returns the length of s in grapheme clusters, so emoji and
// combining sequences count as one character each.
func graphemeCount(s string) int {
	n := 0
	state := -1
	for len(s) > 0 {
		_, s, _, state = runeseg.StepString(s, state)
		n++
	}
	return n
}
