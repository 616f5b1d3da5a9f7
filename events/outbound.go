package events

import (
	"time"

	"chat-relay/domain"
)

// Outbound is a server-to-client event. Every event names its wire type;
// the transport wraps it in a {type, data} envelope.
type Outbound interface {
	EventType() string
}

const (
	TypeJoinedRoom   = "joined_room"
	TypeLeftRoom     = "left_room"
	TypeHistory      = "history"
	TypeNewMessage   = "new_message"
	TypeMessageSent  = "message_sent"
	TypeGroupMembers = "group_members"
	TypeError        = "error_message"
)

type JoinedRoom struct {
	Room domain.RoomKey `json:"room"`
}

func (JoinedRoom) EventType() string { return TypeJoinedRoom }

type LeftRoom struct {
	Room domain.RoomKey `json:"room"`
}

func (LeftRoom) EventType() string { return TypeLeftRoom }

// MessagePayload is the wire form of a persisted message. The id and
// timestamp are the ones assigned by the store.
type MessagePayload struct {
	ID        uint64         `json:"id"`
	Room      domain.RoomKey `json:"room"`
	From      string         `json:"from"`
	To        string         `json:"to,omitempty"`
	Text      string         `json:"text"`
	CreatedAt time.Time      `json:"createdAt"`
}

// History replays persisted messages to a freshly joined client,
// oldest first.
type History struct {
	Room     domain.RoomKey   `json:"room"`
	Messages []MessagePayload `json:"messages"`
}

func (History) EventType() string { return TypeHistory }

// NewMessage is the room broadcast of one persisted message.
type NewMessage struct {
	MessagePayload
}

func (NewMessage) EventType() string { return TypeNewMessage }

// MessageSent acknowledges a send to its author, carrying the same
// persisted payload as the broadcast.
type MessageSent struct {
	MessagePayload
}

func (MessageSent) EventType() string { return TypeMessageSent }

type GroupMemberInfo struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// GroupMembers is broadcast to a group room whenever its live membership
// changes. Personal and global rooms carry no presence.
type GroupMembers struct {
	GroupID string            `json:"groupId"`
	Members []GroupMemberInfo `json:"members"`
}

func (GroupMembers) EventType() string { return TypeGroupMembers }

// ErrorMessage is delivered to the offending client only.
type ErrorMessage struct {
	Message string `json:"message"`
}

func (ErrorMessage) EventType() string { return TypeError }

// FromMessage maps a stored message onto its wire form.
func FromMessage(m domain.Message, to string) MessagePayload {
	return MessagePayload{
		ID:        m.ID,
		Room:      m.Room,
		From:      m.AuthorID,
		To:        to,
		Text:      m.Body,
		CreatedAt: m.CreatedAt,
	}
}
