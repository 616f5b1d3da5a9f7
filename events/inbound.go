package events

import (
	"encoding/json"
	"fmt"

	"chat-relay/domain"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

const (
	TypeJoinRoom     = "join_room"
	TypeLeaveRoom    = "leave_room"
	TypeSendMessage  = "new_message"
	TypeGroupJoin    = "group_join"
	TypeGroupLeave   = "group_leave"
	TypeGroupMessage = "group_message"
)

// Inbound is a client-to-server event after alias normalization and
// validation. Exactly one concrete type exists per wire type.
type Inbound interface {
	EventType() string
}

type JoinRoom struct {
	Room domain.RoomKey `validate:"required"`
}

func (JoinRoom) EventType() string { return TypeJoinRoom }

type LeaveRoom struct {
	Room domain.RoomKey `validate:"required"`
}

func (LeaveRoom) EventType() string { return TypeLeaveRoom }

type SendMessage struct {
	Room domain.RoomKey `validate:"required"`
	Text string         `validate:"required"`
	To   string
}

func (SendMessage) EventType() string { return TypeSendMessage }

type GroupJoin struct {
	GroupID string `validate:"required"`
}

func (GroupJoin) EventType() string { return TypeGroupJoin }

type GroupLeave struct {
	GroupID string `validate:"required"`
}

func (GroupLeave) EventType() string { return TypeGroupLeave }

type GroupMessage struct {
	GroupID string `validate:"required"`
	Text    string `validate:"required"`
}

func (GroupMessage) EventType() string { return TypeGroupMessage }

// envelope accepts every historical alias of every field. Clients of the
// original system disagreed on casing (roomId vs room_id, text vs message);
// aliases are resolved here once so handlers never branch on field presence.
type envelope struct {
	Type string `json:"type"`

	Room        string `json:"room"`
	RoomID      string `json:"roomId"`
	RoomIDAlias string `json:"room_id"`

	Text    string `json:"text"`
	Message string `json:"message"`

	To       string `json:"to"`
	Receiver string `json:"receiver_id"`

	GroupID      string `json:"groupId"`
	GroupIDAlias string `json:"group_id"`
}

func (e envelope) room() domain.RoomKey {
	return domain.RoomKey(firstNonEmpty(e.Room, e.RoomID, e.RoomIDAlias))
}

func (e envelope) text() string {
	return firstNonEmpty(e.Text, e.Message)
}

func (e envelope) to() string {
	return firstNonEmpty(e.To, e.Receiver)
}

func (e envelope) groupID() string {
	return firstNonEmpty(e.GroupID, e.GroupIDAlias)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ParseInbound decodes a raw client frame into its canonical event.
// Unknown types and schema violations are rejected here, before any
// handler runs.
func ParseInbound(raw []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed event: %w", err)
	}

	var evt Inbound
	switch env.Type {
	case TypeJoinRoom:
		evt = JoinRoom{Room: env.room()}
	case TypeLeaveRoom:
		evt = LeaveRoom{Room: env.room()}
	case TypeSendMessage:
		evt = SendMessage{Room: env.room(), Text: env.text(), To: env.to()}
	case TypeGroupJoin:
		evt = GroupJoin{GroupID: env.groupID()}
	case TypeGroupLeave:
		evt = GroupLeave{GroupID: env.groupID()}
	case TypeGroupMessage:
		evt = GroupMessage{GroupID: env.groupID(), Text: env.text()}
	default:
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}

	if err := validate.Struct(evt); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", env.Type, err)
	}
	return evt, nil
}
