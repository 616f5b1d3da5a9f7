//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chat-relay/domain"
	"chat-relay/errors"

	"github.com/dgraph-io/badger/v4"
)

const (
	livePrefix     = "msg:"
	archivedPrefix = "arch:"
	sequenceKey    = "seq:message"

	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

type IMessageRepository interface {
	Append(room domain.RoomKey, authorID, body string) (domain.Message, error)
	History(room domain.RoomKey, limit int) ([]domain.Message, error)
	ArchiveBefore(cutoff time.Time) (int, error)
	ArchivedHistory(room domain.RoomKey, limit int) ([]domain.ArchivedMessage, error)
	Close() error
}

type MessageRepository struct {
	db  *badger.DB
	seq *badger.Sequence
	log *slog.Logger
}

// NewMessageRepository claims the message id sequence once at startup.
// Ids are store-assigned and strictly monotonic; their order is the
// authoritative order of a room.
func NewMessageRepository(db *badger.DB, log *slog.Logger) (*MessageRepository, error) {
	seq, err := db.GetSequence([]byte(sequenceKey), 100)
	if err != nil {
		return nil, fmt.Errorf("claiming message sequence: %w", err)
	}
	return &MessageRepository{db: db, seq: seq, log: log}, nil
}

func (m *MessageRepository) Close() error {
	return m.seq.Release()
}

// storedMessage is the on-disk row. ArchivedAt is zero while the row lives
// under the live prefix.
type storedMessage struct {
	ID         uint64 `json:"id"`
	Room       string `json:"room"`
	Author     string `json:"author"`
	Body       string `json:"body"`
	CreatedAt  int64  `json:"created_at"`
	ArchivedAt int64  `json:"archived_at,omitempty"`
}

// liveKey formats "msg:{room}:{id}" with 19-digit zero padding so that a
// lexicographic prefix scan yields id (commit) order.
func liveKey(room domain.RoomKey, id uint64) []byte {
	return []byte(fmt.Sprintf("%s%s:%019d", livePrefix, room, id))
}

// Append validates, assigns the next id, and commits the row. The commit
// completes before Append returns: callers broadcast only what is already
// durable.
func (m *MessageRepository) Append(room domain.RoomKey, authorID, body string) (domain.Message, error) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return domain.Message{}, errors.ErrEmptyMessage
	}
	if err := room.Validate(); err != nil {
		return domain.Message{}, err
	}

	next, err := m.seq.Next()
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrMessageStore, err)
	}

	message := domain.Message{
		ID:        next + 1, // sequences start at zero, ids at one
		Room:      room,
		AuthorID:  authorID,
		Body:      trimmed,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(toStored(message))
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrMessageStore, err)
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(liveKey(room, message.ID), data)
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrMessageStore, err)
	}
	return message, nil
}

// History returns the most recent messages of a room in ascending id order.
// The scan walks backwards to honour the limit, then the slice is reversed.
func (m *MessageRepository) History(room domain.RoomKey, limit int) ([]domain.Message, error) {
	limit = clampLimit(limit)
	prefix := []byte(livePrefix + string(room) + ":")

	var rows []storedMessage
	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the last possible id for this room, then walk back.
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if len(rows) == limit {
				break
			}
			var row storedMessage
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &row)
			})
			if err != nil {
				return err
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrMessageStore, err)
	}

	messages := make([]domain.Message, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		messages = append(messages, fromStored(rows[i]))
	}
	return messages, nil
}

// ArchiveBefore relocates every live row older than cutoff under the
// archived prefix, stamping the archival time and deleting the live key.
// Copy and delete are one badger transaction: a failure anywhere rolls the
// whole run back, so an id is never visible in both keyspaces or neither.
func (m *MessageRepository) ArchiveBefore(cutoff time.Time) (int, error) {
	type agedRow struct {
		key []byte
		row storedMessage
	}

	moved := 0
	err := m.db.Update(func(txn *badger.Txn) error {
		moved = 0

		// Collect first, mutate after: the iterator must not observe the
		// transaction's own pending writes.
		var aged []agedRow
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		prefix := []byte(livePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var row storedMessage
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &row)
			})
			if err != nil {
				it.Close()
				return err
			}
			if time.Unix(0, row.CreatedAt).Before(cutoff) {
				aged = append(aged, agedRow{key: item.KeyCopy(nil), row: row})
			}
		}
		it.Close()

		now := time.Now().UTC()
		for _, entry := range aged {
			entry.row.ArchivedAt = now.UnixNano()
			data, err := json.Marshal(entry.row)
			if err != nil {
				return err
			}
			archKey := []byte(archivedPrefix + strings.TrimPrefix(string(entry.key), livePrefix))
			if err := txn.Set(archKey, data); err != nil {
				return err
			}
			if err := txn.Delete(entry.key); err != nil {
				return err
			}
			moved++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errors.ErrArchivalFailed, err)
	}
	return moved, nil
}

// ArchivedHistory reads the cold store, ascending id order. Used by the
// inspector, never by the live messaging path.
func (m *MessageRepository) ArchivedHistory(room domain.RoomKey, limit int) ([]domain.ArchivedMessage, error) {
	limit = clampLimit(limit)
	prefix := []byte(archivedPrefix + string(room) + ":")

	var archived []domain.ArchivedMessage
	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if len(archived) == limit {
				break
			}
			var row storedMessage
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &row)
			})
			if err != nil {
				return err
			}
			archived = append(archived, domain.ArchivedMessage{
				Message:    fromStored(row),
				ArchivedAt: time.Unix(0, row.ArchivedAt).UTC(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrMessageStore, err)
	}
	return archived, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultHistoryLimit
	case limit > maxHistoryLimit:
		return maxHistoryLimit
	default:
		return limit
	}
}

func toStored(message domain.Message) storedMessage {
	return storedMessage{
		ID:        message.ID,
		Room:      string(message.Room),
		Author:    message.AuthorID,
		Body:      message.Body,
		CreatedAt: message.CreatedAt.UnixNano(),
	}
}

func fromStored(row storedMessage) domain.Message {
	return domain.Message{
		ID:        row.ID,
		Room:      domain.RoomKey(row.Room),
		AuthorID:  row.Author,
		Body:      row.Body,
		CreatedAt: time.Unix(0, row.CreatedAt).UTC(),
	}
}
