// Package router is the protocol state machine: it validates inbound
// events against the live registry and the durable store, persists before
// any broadcast, and fans out to the room's current member set.
package router

import (
	"context"
	"log/slog"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/events"
	"chat-relay/history"
	"chat-relay/moderation"
	"chat-relay/repositories"

	"github.com/samber/lo"
)

type Router struct {
	log         *slog.Logger
	registry    contract.IRegistry
	messages    repositories.IMessageRepository
	groups      repositories.IGroupRepository
	history     *history.Service
	moderator   *moderation.Moderator
	replayLimit int
}

func NewRouter(log *slog.Logger, registry contract.IRegistry,
	messages repositories.IMessageRepository, groups repositories.IGroupRepository,
	historyService *history.Service, moderator *moderation.Moderator,
	replayLimit int) *Router {
	return &Router{
		log:         log,
		registry:    registry,
		messages:    messages,
		groups:      groups,
		history:     historyService,
		moderator:   moderator,
		replayLimit: replayLimit,
	}
}

// Join authorizes the caller against the room's derivation rule, adds the
// session to the live set, acknowledges, and replays recent history to the
// caller only. Group rooms additionally broadcast their refreshed member
// list. An unauthorized join is rejected and never acknowledged.
func (rt *Router) Join(ctx context.Context, m contract.Member, room domain.RoomKey) error {
	if err := rt.Authorize(m.Identity.ID, room); err != nil {
		return err
	}

	members, added := rt.registry.Join(room, m)
	rt.log.Info("session joined room",
		"room", room, "session_id", m.SessionID, "user_id", m.Identity.ID,
		"members", members, "rejoin", !added)

	if err := m.Sink.Consume(ctx, events.JoinedRoom{Room: room}); err != nil {
		rt.log.Warn("join ack lost", "session_id", m.SessionID, "error", err)
	}

	rt.replay(ctx, m, room)

	if room.IsGroup() {
		rt.broadcastGroupMembers(ctx, room)
	}
	return nil
}

// Leave removes the session from one room and acknowledges. Group rooms
// broadcast their refreshed member list to the remaining members.
func (rt *Router) Leave(ctx context.Context, m contract.Member, room domain.RoomKey) error {
	if err := room.Validate(); err != nil {
		return err
	}

	rt.registry.Leave(room, m.SessionID)
	if err := m.Sink.Consume(ctx, events.LeftRoom{Room: room}); err != nil {
		rt.log.Warn("leave ack lost", "session_id", m.SessionID, "error", err)
	}

	if room.IsGroup() {
		rt.broadcastGroupMembers(ctx, room)
	}
	return nil
}

// Send persists the message, then broadcasts it with its store-assigned id
// and timestamp. Order of those two steps is the durable-before-visible
// guarantee: if Append fails there is nothing to broadcast, and every
// broadcast payload already exists in history.
func (rt *Router) Send(ctx context.Context, m contract.Member, room domain.RoomKey,
	body, to string) (domain.Message, error) {
	if err := room.Validate(); err != nil {
		return domain.Message{}, err
	}
	if !rt.registry.IsMember(room, m.SessionID) {
		return domain.Message{}, errors.ErrNotRoomMember
	}

	message, err := rt.messages.Append(room, m.Identity.ID, rt.moderator.Censor(body))
	if err != nil {
		return domain.Message{}, err
	}

	if !room.IsPersonal() {
		to = ""
	}
	payload := events.FromMessage(message, to)
	rt.registry.Broadcast(ctx, room, events.NewMessage{MessagePayload: payload})

	if err := m.Sink.Consume(ctx, events.MessageSent{MessagePayload: payload}); err != nil {
		rt.log.Warn("send ack lost", "session_id", m.SessionID, "error", err)
	}
	return message, nil
}

// Post is the HTTP variant of Send: same authorization and the same
// persist-then-broadcast path, minus the live-membership requirement,
// since the caller has no connection to be a member with.
func (rt *Router) Post(ctx context.Context, identity domain.Identity,
	room domain.RoomKey, body string) (domain.Message, error) {
	if err := rt.Authorize(identity.ID, room); err != nil {
		return domain.Message{}, err
	}

	message, err := rt.messages.Append(room, identity.ID, rt.moderator.Censor(body))
	if err != nil {
		return domain.Message{}, err
	}

	rt.registry.Broadcast(ctx, room, events.NewMessage{MessagePayload: events.FromMessage(message, "")})
	return message, nil
}

// Disconnect releases every membership of the session. The departed
// connection gets nothing; affected group rooms learn their new member
// list.
func (rt *Router) Disconnect(ctx context.Context, m contract.Member) {
	affected := rt.registry.Drop(m.SessionID)
	if len(affected) > 0 {
		rt.log.Info("session disconnected",
			"session_id", m.SessionID, "user_id", m.Identity.ID, "rooms", len(affected))
	}
	for _, room := range affected {
		if room.IsGroup() {
			rt.broadcastGroupMembers(ctx, room)
		}
	}
}

// Authorize enforces the derivation rule of each room kind: global is open,
// personal rooms encode their two participants in the key, group rooms
// require a persisted membership row.
func (rt *Router) Authorize(userID string, room domain.RoomKey) error {
	if err := room.Validate(); err != nil {
		return err
	}
	switch {
	case room.IsGlobal():
		return nil
	case room.IsPersonal():
		if !room.HasParticipant(userID) {
			return errors.ErrNotParticipant
		}
		return nil
	default:
		groupID, err := room.GroupID()
		if err != nil {
			return err
		}
		member, err := rt.groups.IsMember(groupID, userID)
		if err != nil {
			return err
		}
		if !member {
			return errors.ErrNotGroupMember
		}
		return nil
	}
}

func (rt *Router) replay(ctx context.Context, m contract.Member, room domain.RoomKey) {
	messages, err := rt.history.Fetch(room, rt.replayLimit)
	if err != nil {
		rt.log.Error("history replay failed", "room", room, "error", err)
		return
	}
	if len(messages) == 0 {
		return
	}
	replay := events.History{
		Room: room,
		Messages: lo.Map(messages, func(item domain.Message, _ int) events.MessagePayload {
			return events.FromMessage(item, "")
		}),
	}
	if err := m.Sink.Consume(ctx, replay); err != nil {
		rt.log.Warn("history replay lost", "session_id", m.SessionID, "error", err)
	}
}

func (rt *Router) broadcastGroupMembers(ctx context.Context, room domain.RoomKey) {
	groupID, err := room.GroupID()
	if err != nil {
		return
	}
	members := rt.registry.MembersOf(room)
	infos := lo.Map(members, func(m contract.Member, _ int) events.GroupMemberInfo {
		return events.GroupMemberInfo{UserID: m.Identity.ID, Name: m.Identity.Name}
	})
	infos = lo.UniqBy(infos, func(info events.GroupMemberInfo) string { return info.UserID })

	rt.registry.Broadcast(ctx, room, events.GroupMembers{GroupID: groupID, Members: infos})
}
