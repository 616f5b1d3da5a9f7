//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"chat-relay/domain"
	"chat-relay/events"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself: the supervisor recovers its panics and
// restarts it.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker,
// for logging and supervision purposes.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is the delivery end of one client connection.
// Consume must not block registry mutation: implementations buffer and
// drop rather than stall the broadcast path.
type EventSink interface {
	Consume(ctx context.Context, e events.Outbound) error
}

// Member ties a live connection to its authenticated identity inside a room
// member set.
type Member struct {
	SessionID string
	Identity  domain.Identity
	Sink      EventSink
}

// IRegistry owns the live room membership. Durable rows are owned by the
// repositories; neither caches the other's state.
type IRegistry interface {
	// Join adds the member to the room set. Idempotent: a second join of the
	// same session is a no-op on the set. Returns the member count after the
	// call and whether the session was newly added.
	Join(room domain.RoomKey, m Member) (int, bool)
	Leave(room domain.RoomKey, sessionID string)
	// Drop removes the session from every room it was a member of and
	// returns the affected rooms.
	Drop(sessionID string) []domain.RoomKey
	MembersOf(room domain.RoomKey) []Member
	IsMember(room domain.RoomKey, sessionID string) bool
	// Broadcast delivers e to every member present at the moment of the
	// call. Best effort: joins racing the broadcast may miss it, history
	// replay is the durable catch-up.
	Broadcast(ctx context.Context, room domain.RoomKey, e events.Outbound)
}
