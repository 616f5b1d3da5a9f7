package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chat-relay/domain"
	apperrors "chat-relay/errors"
	"chat-relay/events"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// newTestConn opens a real client-side WebSocket connection against a
// server that just holds it open.
func newTestConn(t *testing.T) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func Test_Consume_Wraps_Events_In_Frames(t *testing.T) {
	req := require.New(t)
	sess := NewSession(nil, newTestConn(t), domain.Identity{ID: "alice"}, nil, 4)

	err := sess.Consume(context.Background(), events.JoinedRoom{Room: domain.GlobalRoom})
	req.NoError(err)

	raw := <-sess.send
	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	req.NoError(json.Unmarshal(raw, &env))
	req.Equal(events.TypeJoinedRoom, env.Type)
	req.JSONEq(`{"room":"global"}`, string(env.Data))
}

func Test_Consume_Never_Blocks_On_Full_Buffer(t *testing.T) {
	req := require.New(t)
	sess := NewSession(nil, newTestConn(t), domain.Identity{ID: "alice"}, nil, 1)
	ctx := context.Background()

	// Given a session whose buffer is already full
	req.NoError(sess.Consume(ctx, events.JoinedRoom{Room: domain.GlobalRoom}))

	// Then the next event is dropped, not queued
	err := sess.Consume(ctx, events.LeftRoom{Room: domain.GlobalRoom})
	req.ErrorIs(err, apperrors.ErrSlowConsumer)
}

func Test_Consume_After_Close_Is_Rejected(t *testing.T) {
	req := require.New(t)
	sess := NewSession(nil, newTestConn(t), domain.Identity{ID: "alice"}, nil, 4)

	// Given a session torn down by its read side
	sess.close()

	// Then a broadcaster still holding the member gets an error, not a
	// send on a closed channel
	err := sess.Consume(context.Background(), events.JoinedRoom{Room: domain.GlobalRoom})
	req.ErrorIs(err, apperrors.ErrSessionClosed)
}

func Test_Consume_Racing_Close_Never_Panics(t *testing.T) {
	req := require.New(t)
	sess := NewSession(nil, newTestConn(t), domain.Identity{ID: "alice"}, nil, 1)

	// A delivering goroutine keeps consuming while the session closes
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			_ = sess.Consume(context.Background(), events.JoinedRoom{Room: domain.GlobalRoom})
		}
	}()
	sess.close()
	<-done

	req.ErrorIs(sess.Consume(context.Background(), events.JoinedRoom{Room: domain.GlobalRoom}), apperrors.ErrSessionClosed)
}

func Test_Session_Ids_Are_Unique(t *testing.T) {
	req := require.New(t)
	conn := newTestConn(t)
	first := NewSession(nil, conn, domain.Identity{ID: "alice"}, nil, 1)
	second := NewSession(nil, conn, domain.Identity{ID: "alice"}, nil, 1)

	// Two connections of the same user remain distinct members
	req.NotEqual(first.id, second.id)
}

func Test_WriteError_Maps_The_Taxonomy(t *testing.T) {
	req := require.New(t)

	tests := []struct {
		err    error
		status int
	}{
		{apperrors.ErrMissingToken, http.StatusUnauthorized},
		{apperrors.ErrInvalidToken, http.StatusUnauthorized},
		{apperrors.ErrNotParticipant, http.StatusForbidden},
		{apperrors.ErrNotGroupMember, http.StatusForbidden},
		{apperrors.ErrEmptyMessage, http.StatusBadRequest},
		{apperrors.ErrMalformedRoomKey, http.StatusBadRequest},
		{apperrors.ErrNotRoomMember, http.StatusBadRequest},
		{apperrors.ErrGroupNotFound, http.StatusNotFound},
		{apperrors.ErrUserNotFound, http.StatusNotFound},
		{apperrors.ErrMessageStore, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		recorder := httptest.NewRecorder()
		writeError(recorder, tt.err)
		req.Equal(tt.status, recorder.Code, "error %v", tt.err)

		var body struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
		}
		req.NoError(json.Unmarshal(recorder.Body.Bytes(), &body))
		req.False(body.Success)
		req.NotEmpty(body.Message)
	}
}
