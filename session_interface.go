package main

// SessionInterface defines the methods the engine needs from a connected
// session. This interface enables exercising the engine in tests without a
// live WebSocket connection.
type SessionInterface interface {
	ID() string
	Send(msg *ServerMessage)
	Close()
}

// Compile-time check that Session implements SessionInterface.
var _ SessionInterface = (*Session)(nil)
