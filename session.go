package main

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 16 * 1024 // 16KB
	// Send buffer size
	sendBufferSize = 64
)

// Session represents a WebSocket connection. The session carries no chat
// state of its own; state, interest, and room membership live in the hub's
// registry, keyed by the session id.
type Session struct {
	id         string
	hub        *Hub
	conn       *websocket.Conn
	send       chan *ServerMessage
	handlers   *Handlers
	remoteAddr string

	// Last activity timestamp (atomic access)
	lastAction int64

	// Closing state
	closing int32
	once    sync.Once
}

// NewSession creates a new session.
func NewSession(hub *Hub, conn *websocket.Conn, remoteAddr string, handlers *Handlers) *Session {
	return &Session{
		id:         uuid.New().String(),
		hub:        hub,
		conn:       conn,
		send:       make(chan *ServerMessage, sendBufferSize),
		handlers:   handlers,
		remoteAddr: remoteAddr,
		lastAction: time.Now().UnixNano(),
	}
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// Send queues a message to be sent to the client.
// Safe to call from multiple goroutines.
func (s *Session) Send(msg *ServerMessage) {
	// Close may shut the channel between the closing check and the send;
	// recovering is cheaper than taking a mutex on every send.
	defer func() {
		recover()
	}()

	if atomic.LoadInt32(&s.closing) == 1 {
		return
	}
	select {
	case s.send <- msg:
	default:
		// Buffer full, close the session
		go s.Close() // Close in goroutine to avoid deadlock
	}
}

// Close closes the session.
// Safe to call multiple times - only first call takes effect.
func (s *Session) Close() {
	s.once.Do(func() {
		atomic.StoreInt32(&s.closing, 1)
		close(s.send)
		s.conn.Close()
	})
}

// Run starts the session's read and write pumps.
func (s *Session) Run() {
	go s.writePump()
	s.readPump()
}

// readPump pumps messages from the WebSocket connection to the handlers.
func (s *Session) readPump() {
	defer func() {
		s.handlers.SessionClosed(s)
		s.hub.Unregister(s)
		s.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			break
		}

		atomic.StoreInt64(&s.lastAction, time.Now().UnixNano())

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			s.Send(CtrlError("", CodeBadRequest, "malformed message"))
			continue
		}

		s.dispatch(&msg)
	}
}

// writePump pumps messages from the engine to the WebSocket connection.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := s.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch routes a client message to the appropriate handler. Events for
// the same session are handled in arrival order because dispatch runs on
// the session's read pump.
func (s *Session) dispatch(msg *ClientMessage) {
	switch {
	case msg.Start != nil:
		s.handlers.HandleStart(s, msg)
	case msg.Stop != nil:
		s.handlers.HandleStop(s, msg)
	case msg.Chat != nil:
		s.handlers.HandleChat(s, msg)
	case msg.Typing != nil:
		s.handlers.HandleTyping(s, msg.Typing, false)
	case msg.StopTyping != nil:
		s.handlers.HandleTyping(s, msg.StopTyping, true)
	case msg.Leave != nil:
		s.handlers.HandleLeave(s, msg)
	case msg.Confirm != nil:
		s.handlers.HandleConfirmLeave(s, msg)
	default:
		s.Send(CtrlError(msg.ID, CodeBadRequest, "unknown message type"))
	}
}
