package domain

import "time"

// Group is a persisted multi-member room definition. Live membership of the
// matching group room is a subset of the persisted members.
type Group struct {
	ID          string
	Name        string
	Description string
	CreatedBy   string
	CreatedAt   time.Time
}

// GroupMember is one (group, user) membership pair. The pair is unique and
// authorizes joining the corresponding group room.
type GroupMember struct {
	GroupID string
	UserID  string
}
