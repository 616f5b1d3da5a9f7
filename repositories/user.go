//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"

	"chat-relay/domain"
	"chat-relay/errors"

	"github.com/dgraph-io/badger/v4"
)

const (
	userPrefix      = "user:"
	userEmailPrefix = "useremail:"
)

// IUserRepository is the read-mostly mirror of the identity provider's user
// table. Save exists so the provider (or a test) can seed it; the messaging
// core itself only reads.
type IUserRepository interface {
	Save(identity domain.Identity) error
	Get(userID string) (domain.Identity, error)
	GetByEmail(email string) (domain.Identity, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

type storedUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

func (u *UserRepository) Save(identity domain.Identity) error {
	data, err := json.Marshal(storedUser(identity))
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrMessageStore, err)
	}
	err = u.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(userPrefix+identity.ID), data); err != nil {
			return err
		}
		// Secondary key for the personal-chat user search.
		return txn.Set([]byte(userEmailPrefix+identity.Email), []byte(identity.ID))
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrMessageStore, err)
	}
	return nil
}

func (u *UserRepository) Get(userID string) (domain.Identity, error) {
	var row storedUser
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userPrefix + userID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &row)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Identity{}, errors.ErrUserNotFound
	}
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", errors.ErrMessageStore, err)
	}
	return domain.Identity(row), nil
}

func (u *UserRepository) GetByEmail(email string) (domain.Identity, error) {
	var userID string
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userEmailPrefix + email))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			userID = string(val)
			return nil
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Identity{}, errors.ErrUserNotFound
	}
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", errors.ErrMessageStore, err)
	}
	return u.Get(userID)
}
