package domain

import "time"

// Message is a persisted chat message. Immutable once stored:
// the ID is assigned by the store and defines the authoritative order
// within a room.
type Message struct {
	ID        uint64
	Room      RoomKey
	AuthorID  string
	Body      string
	CreatedAt time.Time
}

// ArchivedMessage is a Message relocated to the cold store.
// It keeps the original id and timestamp; an id lives under exactly one
// of the live or archived keyspaces at any time.
type ArchivedMessage struct {
	Message
	ArchivedAt time.Time
}
