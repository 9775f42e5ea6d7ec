package main

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scalecode-solutions/driftchat/config"
	"github.com/scalecode-solutions/driftchat/matching"
)

// testSession is a minimal session for testing that captures sent messages.
// It implements SessionInterface.
type testSession struct {
	id       string
	messages []*ServerMessage
	closed   bool
	mu       sync.Mutex
}

// Compile-time check that testSession implements SessionInterface.
var _ SessionInterface = (*testSession)(nil)

func newTestSession() *testSession {
	return &testSession{
		id:       uuid.New().String(),
		messages: make([]*ServerMessage, 0),
	}
}

func (s *testSession) ID() string { return s.id }

func (s *testSession) Send(msg *ServerMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

func (s *testSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *testSession) LastMessage() *ServerMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		return nil
	}
	return s.messages[len(s.messages)-1]
}

func (s *testSession) MessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// MatchedRoom returns the room id from the first match notification, or "".
func (s *testSession) MatchedRoom() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.Matched != nil {
			return m.Matched.Room
		}
	}
	return ""
}

// LastQueueStatus returns the most recent queuing status, or nil.
func (s *testSession) LastQueueStatus() *bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Queue != nil {
			v := s.messages[i].Queue.Queuing
			return &v
		}
	}
	return nil
}

// Chats returns all relayed chat messages received.
func (s *testSession) Chats() []*MsgServerChat {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*MsgServerChat
	for _, m := range s.messages {
		if m.Chat != nil {
			out = append(out, m.Chat)
		}
	}
	return out
}

// PresEvents returns the What values of all presence notifications received.
func (s *testSession) PresEvents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, m := range s.messages {
		if m.Pres != nil {
			out = append(out, m.Pres.What)
		}
	}
	return out
}

// InfoEvents returns the What values of all info notifications received.
func (s *testSession) InfoEvents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, m := range s.messages {
		if m.Info != nil {
			out = append(out, m.Info.What)
		}
	}
	return out
}

// newTestHub creates a hub with a strict-matching queue and registers no
// sessions. The run loop is not started; tests drive the hub directly.
func newTestHub() (*Hub, *PresenceManager) {
	logger := zap.NewNop()
	hub := NewHub(matching.New(false), logger)
	presence := NewPresenceManager(hub, logger)
	hub.SetPresence(presence)
	return hub, presence
}

// connect registers a fresh test session with the hub.
func connect(hub *Hub) *testSession {
	sess := newTestSession()
	hub.addSession(sess)
	return sess
}

// testHandlers creates handlers over a fresh hub with the given config.
func testHandlers(cfg *config.Config) (*Handlers, *Hub, *PresenceManager) {
	if cfg == nil {
		cfg = config.Default()
	}
	hub, presence := newTestHub()
	h := NewHandlers(hub, presence, cfg, zap.NewNop())
	return h, hub, presence
}

// matchPair connects two sessions and matches them through the queue,
// returning both sessions and the shared room id.
func matchPair(hub *Hub) (*testSession, *testSession, string) {
	a := connect(hub)
	b := connect(hub)
	hub.StartQueuing(a, "music")
	hub.StartQueuing(b, "music")
	return a, b, a.MatchedRoom()
}
