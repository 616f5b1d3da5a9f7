package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"chat-relay/auth"
	"chat-relay/domain"
	apperrors "chat-relay/errors"
	"chat-relay/events"

	"github.com/samber/lo"
)

// handleWebSocket authenticates the handshake, upgrades, and runs the
// connection's pumps. An unauthenticated attempt is rejected with 401
// before any event is read.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	identity, err := s.tokens.Verify(auth.BearerToken(r))
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	sess := NewSession(s.log, conn, identity, s.router, s.sessionBuffer)
	s.openSessions.Add(1)
	s.log.Info("client connected", "session_id", sess.id, "user_id", identity.ID)
	defer func() {
		s.openSessions.Add(-1)
		s.log.Info("client disconnected", "session_id", sess.id, "user_id", identity.ID)
	}()

	// The pumps outlive the request context once the connection is
	// hijacked; their lifetime is the connection's own.
	ctx := context.Background()
	go sess.writePump()
	sess.readPump(ctx)
}

// handleHistory serves GET /api/messages/history?room=&limit=.
// Same authorization rules as a join: history of a room you may not join
// is not yours to read.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	room := domain.RoomKey(firstQuery(r, "room", "roomKey"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	if err := s.router.Authorize(identity.ID, room); err != nil {
		writeError(w, err)
		return
	}
	messages, err := s.history.Fetch(room, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"messages": lo.Map(messages, func(item domain.Message, _ int) events.MessagePayload {
			return events.FromMessage(item, "")
		}),
	})
}

type postMessageRequest struct {
	Room        string `json:"room"`
	RoomID      string `json:"roomId"`
	RoomIDAlias string `json:"room_id"`
	Text        string `json:"text"`
	Message     string `json:"message"`
}

// handlePostMessage is the HTTP twin of the socket send: persist first,
// then the same broadcast path.
func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "invalid payload"})
		return
	}

	room := domain.RoomKey(firstNonEmpty(req.Room, req.RoomID, req.RoomIDAlias))
	if room == "" {
		room = domain.GlobalRoom
	}
	message, err := s.router.Post(r.Context(), identity, room, firstNonEmpty(req.Text, req.Message))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": events.FromMessage(message, ""),
	})
}

type createGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "name required"})
		return
	}

	group, err := s.groups.Create(req.Name, req.Description, identity.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "group": group})
}

func (s *Server) handleJoinGroup(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	if err := s.groups.AddMember(r.PathValue("id"), identity.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "joined group"})
}

func (s *Server) handleLeaveGroup(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	if err := s.groups.RemoveMember(r.PathValue("id"), identity.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "left group"})
}

func (s *Server) handleMyGroups(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())
	groups, err := s.groups.GroupsOf(identity.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "groups": groups})
}

// handleUserSearch backs the personal-chat flow: find the peer by email,
// then both sides derive the same personal room key locally.
func (s *Server) handleUserSearch(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "email required"})
		return
	}
	user, err := s.users.GetByEmail(email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    map[string]string{"id": user.ID, "name": user.Name, "email": user.Email},
	})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.monitor.Snapshot(s.OpenSessions(), s.registry.RoomCount()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto HTTP statuses. Store failures
// stay generic; they are never dressed up as success.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrMissingToken), errors.Is(err, apperrors.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrNotParticipant), errors.Is(err, apperrors.ErrNotGroupMember):
		status = http.StatusForbidden
	case errors.Is(err, apperrors.ErrEmptyMessage),
		errors.Is(err, apperrors.ErrMalformedRoomKey),
		errors.Is(err, apperrors.ErrNotRoomMember):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrGroupNotFound), errors.Is(err, apperrors.ErrUserNotFound):
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]any{"success": false, "message": err.Error()})
}

func firstQuery(r *http.Request, names ...string) string {
	for _, name := range names {
		if v := r.URL.Query().Get(name); v != "" {
			return v
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
