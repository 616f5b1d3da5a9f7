package domain

import (
	"testing"

	"chat-relay/errors"

	"github.com/stretchr/testify/require"
)

func Test_PersonalRoom_Is_Commutative(t *testing.T) {
	req := require.New(t)

	// Given two users, regardless of who initiates
	ab := PersonalRoom("alice", "bob")
	ba := PersonalRoom("bob", "alice")

	// Then both sides derive the same key without negotiation
	req.Equal(ab, ba)
	req.Equal(RoomKey("room-alice--bob"), ab)
}

func Test_PersonalRoom_Normalizes_Case_And_Spacing(t *testing.T) {
	req := require.New(t)

	req.Equal(PersonalRoom("alice", "bob"), PersonalRoom(" Alice ", "BOB"))
}

func Test_Room_Kinds_Are_Distinct(t *testing.T) {
	req := require.New(t)

	personal := PersonalRoom("alice", "bob")
	group := GroupRoom("g-42")

	req.True(GlobalRoom.IsGlobal())
	req.False(GlobalRoom.IsPersonal())
	req.False(GlobalRoom.IsGroup())

	req.True(personal.IsPersonal())
	req.False(personal.IsGlobal())
	req.False(personal.IsGroup())

	req.True(group.IsGroup())
	req.False(group.IsGlobal())
	req.False(group.IsPersonal())
}

func Test_Participants_Roundtrip(t *testing.T) {
	req := require.New(t)

	room := PersonalRoom("bob", "alice")
	first, second, err := room.Participants()
	req.NoError(err)
	req.Equal("alice", first)
	req.Equal("bob", second)

	req.True(room.HasParticipant("alice"))
	req.True(room.HasParticipant("Bob"))
	req.False(room.HasParticipant("mallory"))
}

func Test_Participants_Rejects_Malformed_Keys(t *testing.T) {
	req := require.New(t)

	for _, room := range []RoomKey{
		"room---",
		"room-alice--",
		"room---bob",
		"room-alice--alice",
		"global",
		"group:g-1",
	} {
		_, _, err := room.Participants()
		req.ErrorIs(err, errors.ErrMalformedRoomKey, "room %q", room)
	}
}

func Test_GroupID_Extraction(t *testing.T) {
	req := require.New(t)

	id, err := GroupRoom("g-42").GroupID()
	req.NoError(err)
	req.Equal("g-42", id)

	_, err = RoomKey("group:").GroupID()
	req.ErrorIs(err, errors.ErrMalformedRoomKey)

	_, err = GlobalRoom.GroupID()
	req.ErrorIs(err, errors.ErrMalformedRoomKey)
}

func Test_Validate_Accepts_Known_Shapes_Only(t *testing.T) {
	req := require.New(t)

	req.NoError(GlobalRoom.Validate())
	req.NoError(PersonalRoom("alice", "bob").Validate())
	req.NoError(GroupRoom("g-42").Validate())

	for _, room := range []RoomKey{"", "lobby", "room-alice--alice", "group:"} {
		req.ErrorIs(room.Validate(), errors.ErrMalformedRoomKey, "room %q", room)
	}
}
