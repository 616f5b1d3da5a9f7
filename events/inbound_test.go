package events

import (
	"testing"

	"chat-relay/domain"

	"github.com/stretchr/testify/require"
)

func Test_ParseInbound_Resolves_Field_Aliases(t *testing.T) {
	req := require.New(t)

	// Given the same send expressed with every historical field casing
	frames := [][]byte{
		[]byte(`{"type":"new_message","room":"global","text":"hi","to":"bob"}`),
		[]byte(`{"type":"new_message","roomId":"global","message":"hi","receiver_id":"bob"}`),
		[]byte(`{"type":"new_message","room_id":"global","text":"hi","to":"bob"}`),
	}

	// Then every variant decodes to the same canonical event
	for _, frame := range frames {
		evt, err := ParseInbound(frame)
		req.NoError(err)
		send, ok := evt.(SendMessage)
		req.True(ok)
		req.Equal(domain.GlobalRoom, send.Room)
		req.Equal("hi", send.Text)
		req.Equal("bob", send.To)
	}
}

func Test_ParseInbound_Canonical_Field_Wins_Over_Alias(t *testing.T) {
	req := require.New(t)

	evt, err := ParseInbound([]byte(`{"type":"new_message","room":"global","text":"canonical","message":"alias"}`))
	req.NoError(err)
	req.Equal("canonical", evt.(SendMessage).Text)
}

func Test_ParseInbound_Group_Events(t *testing.T) {
	req := require.New(t)

	evt, err := ParseInbound([]byte(`{"type":"group_join","group_id":"g-1"}`))
	req.NoError(err)
	req.Equal(GroupJoin{GroupID: "g-1"}, evt)

	evt, err = ParseInbound([]byte(`{"type":"group_message","groupId":"g-1","message":"hello"}`))
	req.NoError(err)
	req.Equal(GroupMessage{GroupID: "g-1", Text: "hello"}, evt)
}

func Test_ParseInbound_Rejects_Unknown_Type(t *testing.T) {
	req := require.New(t)

	_, err := ParseInbound([]byte(`{"type":"teleport","room":"global"}`))
	req.Error(err)
	req.Contains(err.Error(), "unknown event type")
}

func Test_ParseInbound_Rejects_Missing_Required_Fields(t *testing.T) {
	req := require.New(t)

	// Missing room
	_, err := ParseInbound([]byte(`{"type":"join_room"}`))
	req.Error(err)

	// Missing text
	_, err = ParseInbound([]byte(`{"type":"new_message","room":"global"}`))
	req.Error(err)

	// Missing group id
	_, err = ParseInbound([]byte(`{"type":"group_leave"}`))
	req.Error(err)
}

func Test_ParseInbound_Rejects_Malformed_JSON(t *testing.T) {
	req := require.New(t)

	_, err := ParseInbound([]byte(`{"type":`))
	req.Error(err)
}
