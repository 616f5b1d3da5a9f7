package registry

import (
	"context"
	"log/slog"
	"testing"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/events"
	"chat-relay/mocks"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func member(sessionID, userID string, sink contract.EventSink) contract.Member {
	return contract.Member{
		SessionID: sessionID,
		Identity:  domain.Identity{ID: userID},
		Sink:      sink,
	}
}

func Test_Join_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(slog.Default())
	alice := member("s-1", "alice", nil)

	// When the same session joins the same room twice
	count, added := reg.Join(domain.GlobalRoom, alice)
	req.Equal(1, count)
	req.True(added)

	count, added = reg.Join(domain.GlobalRoom, alice)

	// Then the set still holds a single entry
	req.Equal(1, count)
	req.False(added)
	req.Len(reg.MembersOf(domain.GlobalRoom), 1)
}

func Test_Join_Counts_Distinct_Sessions(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(slog.Default())

	reg.Join(domain.GlobalRoom, member("s-1", "alice", nil))
	count, _ := reg.Join(domain.GlobalRoom, member("s-2", "bob", nil))

	req.Equal(2, count)
	req.Equal(1, reg.RoomCount())
	req.Equal(2, reg.SessionCount())
}

func Test_Leave_Drops_Empty_Rooms(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(slog.Default())

	reg.Join(domain.GlobalRoom, member("s-1", "alice", nil))
	reg.Leave(domain.GlobalRoom, "s-1")

	req.Empty(reg.MembersOf(domain.GlobalRoom))
	req.Zero(reg.RoomCount())
	req.Zero(reg.SessionCount())
}

func Test_Leave_Unknown_Session_Is_Noop(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(slog.Default())

	reg.Join(domain.GlobalRoom, member("s-1", "alice", nil))
	reg.Leave(domain.GlobalRoom, "s-unknown")

	req.Len(reg.MembersOf(domain.GlobalRoom), 1)
}

func Test_Drop_Releases_Every_Membership(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(slog.Default())
	personal := domain.PersonalRoom("alice", "bob")
	group := domain.GroupRoom("g-1")

	// Given a session present in three rooms
	alice := member("s-1", "alice", nil)
	reg.Join(domain.GlobalRoom, alice)
	reg.Join(personal, alice)
	reg.Join(group, alice)
	reg.Join(domain.GlobalRoom, member("s-2", "bob", nil))

	// When the session disconnects
	affected := reg.Drop("s-1")

	// Then every membership is released and the affected rooms reported
	req.ElementsMatch([]domain.RoomKey{domain.GlobalRoom, personal, group}, affected)
	req.False(reg.IsMember(domain.GlobalRoom, "s-1"))
	req.False(reg.IsMember(personal, "s-1"))
	req.False(reg.IsMember(group, "s-1"))

	// And the other session is untouched
	req.True(reg.IsMember(domain.GlobalRoom, "s-2"))
}

func Test_Drop_Unknown_Session_Returns_Nothing(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(slog.Default())

	req.Nil(reg.Drop("s-ghost"))
}

func Test_Broadcast_Reaches_Every_Member(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	reg := NewRegistry(slog.Default())

	evt := events.JoinedRoom{Room: domain.GlobalRoom}

	first := mocks.NewMockEventSink(ctrl)
	first.EXPECT().Consume(gomock.Any(), evt).Return(nil).Times(1)
	second := mocks.NewMockEventSink(ctrl)
	second.EXPECT().Consume(gomock.Any(), evt).Return(nil).Times(1)

	reg.Join(domain.GlobalRoom, member("s-1", "alice", first))
	reg.Join(domain.GlobalRoom, member("s-2", "bob", second))

	reg.Broadcast(context.Background(), domain.GlobalRoom, evt)
}

func Test_Broadcast_Skips_Other_Rooms(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	reg := NewRegistry(slog.Default())

	bystander := mocks.NewMockEventSink(ctrl)
	// No Consume expected: the member sits in another room
	reg.Join(domain.PersonalRoom("alice", "bob"), member("s-1", "alice", bystander))

	reg.Broadcast(context.Background(), domain.GlobalRoom, events.JoinedRoom{Room: domain.GlobalRoom})
}

func Test_Broadcast_Failed_Delivery_Does_Not_Stop_Fanout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	reg := NewRegistry(slog.Default())

	evt := events.JoinedRoom{Room: domain.GlobalRoom}

	failing := mocks.NewMockEventSink(ctrl)
	failing.EXPECT().Consume(gomock.Any(), evt).Return(context.DeadlineExceeded).Times(1)
	healthy := mocks.NewMockEventSink(ctrl)
	healthy.EXPECT().Consume(gomock.Any(), evt).Return(nil).Times(1)

	reg.Join(domain.GlobalRoom, member("s-1", "alice", failing))
	reg.Join(domain.GlobalRoom, member("s-2", "bob", healthy))

	reg.Broadcast(context.Background(), domain.GlobalRoom, evt)
}
