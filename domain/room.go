package domain

import (
	"chat-relay/errors"
	"strings"
)

// RoomKey identifies a broadcast domain. Three shapes exist:
// the fixed global room, personal rooms derived from a pair of user ids,
// and group rooms keyed by a persisted group id.
type RoomKey string

const (
	GlobalRoom RoomKey = "global"

	personalPrefix    = "room-"
	personalSeparator = "--"
	groupPrefix       = "group:"
)

// PersonalRoom derives the room key shared by users a and b.
// Both sides compute the same key without negotiation: ids are lowercased
// and sorted, so PersonalRoom(a, b) == PersonalRoom(b, a).
func PersonalRoom(a, b string) RoomKey {
	first := strings.ToLower(strings.TrimSpace(a))
	second := strings.ToLower(strings.TrimSpace(b))
	if first > second {
		first, second = second, first
	}
	return RoomKey(personalPrefix + first + personalSeparator + second)
}

// GroupRoom returns the room key backing a persisted group.
func GroupRoom(groupID string) RoomKey {
	return RoomKey(groupPrefix + groupID)
}

func (k RoomKey) IsGlobal() bool {
	return k == GlobalRoom
}

func (k RoomKey) IsPersonal() bool {
	return strings.HasPrefix(string(k), personalPrefix)
}

func (k RoomKey) IsGroup() bool {
	return strings.HasPrefix(string(k), groupPrefix)
}

// Participants parses the two user ids encoded in a personal room key.
func (k RoomKey) Participants() (string, string, error) {
	if !k.IsPersonal() {
		return "", "", errors.ErrMalformedRoomKey
	}
	raw := strings.TrimPrefix(string(k), personalPrefix)
	parts := strings.Split(raw, personalSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" || parts[0] == parts[1] {
		return "", "", errors.ErrMalformedRoomKey
	}
	return parts[0], parts[1], nil
}

// HasParticipant reports whether userID is one of the two ids encoded
// in a personal room key.
func (k RoomKey) HasParticipant(userID string) bool {
	first, second, err := k.Participants()
	if err != nil {
		return false
	}
	id := strings.ToLower(strings.TrimSpace(userID))
	return id == first || id == second
}

// GroupID extracts the group id from a group room key.
func (k RoomKey) GroupID() (string, error) {
	if !k.IsGroup() {
		return "", errors.ErrMalformedRoomKey
	}
	id := strings.TrimPrefix(string(k), groupPrefix)
	if id == "" {
		return "", errors.ErrMalformedRoomKey
	}
	return id, nil
}

// Validate rejects keys that match none of the three known shapes.
func (k RoomKey) Validate() error {
	switch {
	case k.IsGlobal():
		return nil
	case k.IsPersonal():
		_, _, err := k.Participants()
		return err
	case k.IsGroup():
		_, err := k.GroupID()
		return err
	default:
		return errors.ErrMalformedRoomKey
	}
}
