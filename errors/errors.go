package errors

import "fmt"

var (
	// Credential failures. The connection or request is rejected before any
	// state is created.
	ErrMissingToken = fmt.Errorf("authorization token is missing")
	ErrInvalidToken = fmt.Errorf("invalid or expired token")

	// Validation failures. Terminal for the single event, notified to the
	// sender only.
	ErrEmptyMessage     = fmt.Errorf("message is empty")
	ErrMalformedRoomKey = fmt.Errorf("malformed room key")
	ErrNotRoomMember    = fmt.Errorf("not a member of this room")

	// Authorization failures. The join is rejected and never acknowledged.
	ErrNotParticipant  = fmt.Errorf("not a participant of this personal room")
	ErrNotGroupMember  = fmt.Errorf("not a member of this group")
	ErrGroupNotFound   = fmt.Errorf("group not found")
	ErrUserNotFound    = fmt.Errorf("user not found")
	ErrMessageNotFound = fmt.Errorf("message not found")

	// Store and archival failures.
	ErrMessageStore   = fmt.Errorf("message store failure")
	ErrArchivalFailed = fmt.Errorf("archival run failed")

	// Delivery. A full session buffer drops the event; the client catches
	// up through history replay.
	ErrSlowConsumer  = fmt.Errorf("session send buffer full")
	ErrSessionClosed = fmt.Errorf("session already closed")

	ErrWorkerPanic = fmt.Errorf("worker panic")
)
