// Package registry owns the live room membership: which connections are in
// which rooms right now. Nothing here is persisted; durable state belongs to
// the repositories.
package registry

import (
	"context"
	"log/slog"
	"sync"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/events"
)

type memberSet map[string]contract.Member

type Registry struct {
	mu    sync.RWMutex
	log   *slog.Logger
	rooms map[domain.RoomKey]memberSet
	// joined is the reverse index, session -> rooms, so that a disconnect
	// can release every membership without scanning the room map.
	joined map[string]map[domain.RoomKey]struct{}
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		log:    log,
		rooms:  make(map[domain.RoomKey]memberSet),
		joined: make(map[string]map[domain.RoomKey]struct{}),
	}
}

// Join adds the member to the room's set. Idempotent on the set: joining a
// room twice leaves a single entry. Returns the member count after the call
// and whether this session was newly added.
func (r *Registry) Join(room domain.RoomKey, m contract.Member) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[room]
	if !ok {
		members = make(memberSet)
		r.rooms[room] = members
	}
	_, already := members[m.SessionID]
	members[m.SessionID] = m

	if _, ok := r.joined[m.SessionID]; !ok {
		r.joined[m.SessionID] = make(map[domain.RoomKey]struct{})
	}
	r.joined[m.SessionID][room] = struct{}{}

	return len(members), !already
}

// Leave removes the session from one room. Empty rooms are dropped from the
// map so idle keys do not accumulate.
func (r *Registry) Leave(room domain.RoomKey, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(room, sessionID)
}

func (r *Registry) leaveLocked(room domain.RoomKey, sessionID string) {
	if members, ok := r.rooms[room]; ok {
		delete(members, sessionID)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	if rooms, ok := r.joined[sessionID]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(r.joined, sessionID)
		}
	}
}

// Drop releases every membership of a disconnecting session and returns the
// rooms it was in. Cleanup is unconditional: a closed connection must never
// linger in a member set.
func (r *Registry) Drop(sessionID string) []domain.RoomKey {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms, ok := r.joined[sessionID]
	if !ok {
		return nil
	}
	affected := make([]domain.RoomKey, 0, len(rooms))
	for room := range rooms {
		affected = append(affected, room)
	}
	for _, room := range affected {
		r.leaveLocked(room, sessionID)
	}
	return affected
}

func (r *Registry) MembersOf(room domain.RoomKey) []contract.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[room]
	if !ok {
		return nil
	}
	snapshot := make([]contract.Member, 0, len(members))
	for _, m := range members {
		snapshot = append(snapshot, m)
	}
	return snapshot
}

func (r *Registry) IsMember(room domain.RoomKey, sessionID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[room]
	if !ok {
		return false
	}
	_, member := members[sessionID]
	return member
}

// RoomCount reports how many rooms currently have at least one member.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// SessionCount reports how many sessions currently hold at least one
// membership.
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.joined)
}

// Broadcast delivers e to the members present at the moment of the call.
// The set is snapshotted under the read lock, delivery happens outside it:
// a slow sink must never block joins or leaves. Failed deliveries are
// logged and dropped; history replay is the durable catch-up.
func (r *Registry) Broadcast(ctx context.Context, room domain.RoomKey, e events.Outbound) {
	for _, m := range r.MembersOf(room) {
		if err := m.Sink.Consume(ctx, e); err != nil {
			r.log.Warn("dropping event for member",
				"room", room,
				"session_id", m.SessionID,
				"event", e.EventType(),
				"error", err)
		}
	}
}
