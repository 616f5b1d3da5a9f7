//go:generate go run go.uber.org/mock/mockgen -source=group.go -destination=../mocks/mock_group_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"chat-relay/domain"
	"chat-relay/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	groupPrefix  = "grp:"
	memberPrefix = "grpm:"
)

type IGroupRepository interface {
	Create(name, description, createdBy string) (domain.Group, error)
	Get(groupID string) (domain.Group, error)
	AddMember(groupID, userID string) error
	RemoveMember(groupID, userID string) error
	IsMember(groupID, userID string) (bool, error)
	GroupsOf(userID string) ([]domain.Group, error)
}

type GroupRepository struct {
	db *badger.DB
}

func NewGroupRepository(db *badger.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

type storedGroup struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedBy   string `json:"created_by"`
	CreatedAt   int64  `json:"created_at"`
}

func groupKey(groupID string) []byte {
	return []byte(groupPrefix + groupID)
}

// memberKey is the unique (group, user) pair. Its presence alone is the
// membership; there is no value to decode.
func memberKey(groupID, userID string) []byte {
	return []byte(memberPrefix + groupID + ":" + userID)
}

// Create persists the group and enrolls its creator as the first member,
// in one transaction.
func (g *GroupRepository) Create(name, description, createdBy string) (domain.Group, error) {
	group := domain.Group{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now().UTC(),
	}

	data, err := json.Marshal(storedGroup{
		ID:          group.ID,
		Name:        group.Name,
		Description: group.Description,
		CreatedBy:   group.CreatedBy,
		CreatedAt:   group.CreatedAt.UnixNano(),
	})
	if err != nil {
		return domain.Group{}, fmt.Errorf("%w: %v", errors.ErrMessageStore, err)
	}

	err = g.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(groupKey(group.ID), data); err != nil {
			return err
		}
		return txn.Set(memberKey(group.ID, createdBy), nil)
	})
	if err != nil {
		return domain.Group{}, fmt.Errorf("%w: %v", errors.ErrMessageStore, err)
	}
	return group, nil
}

func (g *GroupRepository) Get(groupID string) (domain.Group, error) {
	var row storedGroup
	err := g.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(groupKey(groupID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &row)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Group{}, errors.ErrGroupNotFound
	}
	if err != nil {
		return domain.Group{}, fmt.Errorf("%w: %v", errors.ErrMessageStore, err)
	}
	return fromStoredGroup(row), nil
}

// AddMember is idempotent: re-adding an existing pair rewrites the same key.
func (g *GroupRepository) AddMember(groupID, userID string) error {
	err := g.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(groupKey(groupID)); err != nil {
			return err
		}
		return txn.Set(memberKey(groupID, userID), nil)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return errors.ErrGroupNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrMessageStore, err)
	}
	return nil
}

func (g *GroupRepository) RemoveMember(groupID, userID string) error {
	err := g.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(memberKey(groupID, userID))
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrMessageStore, err)
	}
	return nil
}

func (g *GroupRepository) IsMember(groupID, userID string) (bool, error) {
	var member bool
	err := g.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(memberKey(groupID, userID))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			member = false
			return nil
		}
		if err != nil {
			return err
		}
		member = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", errors.ErrMessageStore, err)
	}
	return member, nil
}

// GroupsOf scans every membership pair for userID. Membership keys are laid
// out group-first, so this is a full scan of the membership prefix; the
// sets involved stay small enough that a per-user index is not worth its
// write amplification.
func (g *GroupRepository) GroupsOf(userID string) ([]domain.Group, error) {
	var groupIDs []string
	suffix := ":" + userID

	err := g.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte(memberPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			if len(key) > len(suffix) && key[len(key)-len(suffix):] == suffix {
				groupIDs = append(groupIDs, key[len(memberPrefix):len(key)-len(suffix)])
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrMessageStore, err)
	}

	groups := make([]domain.Group, 0, len(groupIDs))
	for _, id := range groupIDs {
		group, err := g.Get(id)
		if stderrors.Is(err, errors.ErrGroupNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func fromStoredGroup(row storedGroup) domain.Group {
	return domain.Group{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		CreatedBy:   row.CreatedBy,
		CreatedAt:   time.Unix(0, row.CreatedAt).UTC(),
	}
}
