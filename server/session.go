package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/events"
	"chat-relay/router"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 8192
)

// Session is one authenticated WebSocket connection. It implements
// contract.EventSink: outbound events are JSON frames queued on a buffered
// channel that the write pump drains. The identity is verified once at
// handshake time and never changes.
type Session struct {
	id       string
	identity domain.Identity
	conn     *websocket.Conn
	send     chan []byte
	router   *router.Router
	log      *slog.Logger

	// mu serializes Consume against close: a broadcaster may hold a
	// snapshot of this session after its read pump has torn it down, and
	// must get an error back, never a send on a closed channel.
	mu     sync.Mutex
	closed bool
	once   sync.Once
}

func NewSession(log *slog.Logger, conn *websocket.Conn, identity domain.Identity,
	rt *router.Router, bufferSize int) *Session {
	conn.SetReadLimit(maxMessageSize)
	return &Session{
		id:       uuid.NewString(),
		identity: identity,
		conn:     conn,
		send:     make(chan []byte, bufferSize),
		router:   rt,
		log:      log,
	}
}

func (s *Session) Member() contract.Member {
	return contract.Member{SessionID: s.id, Identity: s.identity, Sink: s}
}

// frame is the outbound envelope: {"type": ..., "data": {...}}.
type frame struct {
	Type string          `json:"type"`
	Data events.Outbound `json:"data"`
}

// Consume queues one outbound event. It never blocks: a session that
// cannot keep up loses the event and recovers through history replay.
func (s *Session) Consume(_ context.Context, e events.Outbound) error {
	data, err := json.Marshal(frame{Type: e.EventType(), Data: e})
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.ErrSessionClosed
	}
	select {
	case s.send <- data:
		return nil
	default:
		return errors.ErrSlowConsumer
	}
}

// readPump processes inbound frames sequentially: events of one connection
// are handled in read order, which gives the per-sender broadcast ordering.
// On exit every membership is released before the connection goroutines die.
func (s *Session) readPump(ctx context.Context) {
	defer func() {
		s.router.Disconnect(ctx, s.Member())
		s.close()
	}()

	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("unexpected close", "session_id", s.id, "error", err)
			}
			return
		}

		evt, err := events.ParseInbound(raw)
		if err != nil {
			s.notifyError(ctx, err)
			continue
		}
		if err := s.dispatch(ctx, evt); err != nil {
			s.notifyError(ctx, err)
		}
	}
}

// dispatch maps each canonical inbound event onto the router. Group events
// are room events in disguise: their room key is derived from the group id.
func (s *Session) dispatch(ctx context.Context, evt events.Inbound) error {
	member := s.Member()
	switch e := evt.(type) {
	case events.JoinRoom:
		return s.router.Join(ctx, member, e.Room)
	case events.LeaveRoom:
		return s.router.Leave(ctx, member, e.Room)
	case events.SendMessage:
		_, err := s.router.Send(ctx, member, e.Room, e.Text, e.To)
		return err
	case events.GroupJoin:
		return s.router.Join(ctx, member, domain.GroupRoom(e.GroupID))
	case events.GroupLeave:
		return s.router.Leave(ctx, member, domain.GroupRoom(e.GroupID))
	case events.GroupMessage:
		_, err := s.router.Send(ctx, member, domain.GroupRoom(e.GroupID), e.Text, "")
		return err
	default:
		return errors.ErrMalformedRoomKey
	}
}

// notifyError reaches the offending client only; other room members see
// nothing of a rejected event.
func (s *Session) notifyError(ctx context.Context, err error) {
	if consumeErr := s.Consume(ctx, events.ErrorMessage{Message: err.Error()}); consumeErr != nil {
		s.log.Debug("error notification lost", "session_id", s.id, "error", consumeErr)
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case data, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close is idempotent; it tears down the connection and lets the write
// pump drain out.
func (s *Session) close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.send)
		s.mu.Unlock()
		_ = s.conn.Close()
	})
}
