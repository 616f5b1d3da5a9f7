// Package server carries the outward surface: the WebSocket endpoint the
// clients hold open, and the small HTTP API around it.
package server

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	"chat-relay/auth"
	"chat-relay/history"
	"chat-relay/observability"
	"chat-relay/registry"
	"chat-relay/repositories"
	"chat-relay/router"

	"github.com/gorilla/websocket"
)

type Server struct {
	log           *slog.Logger
	tokens        *auth.TokenManager
	router        *router.Router
	history       *history.Service
	groups        repositories.IGroupRepository
	users         repositories.IUserRepository
	registry      *registry.Registry
	monitor       *observability.Monitor
	upgrader      websocket.Upgrader
	sessionBuffer int
	openSessions  atomic.Int64
}

func NewServer(log *slog.Logger, tokens *auth.TokenManager, rt *router.Router,
	historyService *history.Service, groups repositories.IGroupRepository,
	users repositories.IUserRepository, reg *registry.Registry,
	monitor *observability.Monitor, sessionBuffer int) *Server {
	return &Server{
		log:      log,
		tokens:   tokens,
		router:   rt,
		history:  historyService,
		groups:   groups,
		users:    users,
		registry: reg,
		monitor:  monitor,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients of the original system connect cross-origin;
			// credential verification is what gates the connection.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		sessionBuffer: sessionBuffer,
	}
}

// Routes wires the full surface. The WebSocket endpoint authenticates
// during its own handshake; every other privileged route goes through the
// bearer middleware.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	authed := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(s.tokens, h)
	}

	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.Handle("GET /api/messages/history", authed(s.handleHistory))
	mux.Handle("POST /api/messages", authed(s.handlePostMessage))
	mux.Handle("POST /api/groups", authed(s.handleCreateGroup))
	mux.Handle("POST /api/groups/{id}/join", authed(s.handleJoinGroup))
	mux.Handle("POST /api/groups/{id}/leave", authed(s.handleLeaveGroup))
	mux.Handle("GET /api/groups/mine", authed(s.handleMyGroups))
	mux.Handle("GET /api/users", authed(s.handleUserSearch))
	mux.HandleFunc("GET /debug/stats", s.handleStats)
	return mux
}

func (s *Server) OpenSessions() int {
	return int(s.openSessions.Load())
}
