// Package history is the read side of the message store: it hydrates
// clients on initial load and on room join. No side effects.
package history

import (
	"chat-relay/domain"
	"chat-relay/repositories"
)

type Service struct {
	messages repositories.IMessageRepository
}

func NewService(messages repositories.IMessageRepository) *Service {
	return &Service{messages: messages}
}

// Fetch returns up to limit persisted messages of a room, oldest first, in
// the store's commit order.
func (s *Service) Fetch(room domain.RoomKey, limit int) ([]domain.Message, error) {
	if err := room.Validate(); err != nil {
		return nil, err
	}
	return s.messages.History(room, limit)
}
