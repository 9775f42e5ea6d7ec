package main

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/scalecode-solutions/driftchat/config"
	"github.com/scalecode-solutions/driftchat/middleware"
)

// Server handles HTTP and WebSocket connections.
type Server struct {
	hub      *Hub
	config   *config.Config
	handlers *Handlers
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a new server.
func NewServer(hub *Hub, cfg *config.Config, handlers *Handlers, logger *zap.Logger) *Server {
	return &Server{
		hub:      hub,
		config:   cfg,
		handlers: handlers,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     middleware.CheckOrigin(cfg.Server.AllowedOrigins),
		},
	}
}

// SetupRoutes configures HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v0/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
}

// handleWebSocket upgrades HTTP to WebSocket and creates a session.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	remoteAddr := r.RemoteAddr
	if s.config.Server.UseXForwardedFor {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			remoteAddr = xff
		}
	}

	sess := NewSession(s.hub, conn, remoteAddr, s.handlers)
	s.hub.Register(sess)

	// Run the session (blocks until session closes)
	sess.Run()
}

// handleHealth is a simple health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","sessions":%d,"queued":%d,"rooms":%d}`,
		s.hub.SessionCount(), s.hub.QueuedCount(), s.hub.RoomCount())
}
