package repositories

import (
	"testing"

	"chat-relay/domain"
	"chat-relay/errors"

	"github.com/stretchr/testify/require"
)

func Test_User_Save_And_Get(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	alice := domain.Identity{ID: "u-1", Name: "Alice", Email: "alice@example.com", Phone: "0600000000"}
	req.NoError(repository.Save(alice))

	fetched, err := repository.Get("u-1")
	req.NoError(err)
	req.Equal(alice, fetched)
}

func Test_User_Lookup_By_Email(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	alice := domain.Identity{ID: "u-1", Name: "Alice", Email: "alice@example.com"}
	req.NoError(repository.Save(alice))

	fetched, err := repository.GetByEmail("alice@example.com")
	req.NoError(err)
	req.Equal(alice, fetched)

	_, err = repository.GetByEmail("nobody@example.com")
	req.ErrorIs(err, errors.ErrUserNotFound)
}

func Test_User_Unknown_Id(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	_, err := repository.Get("u-ghost")
	req.ErrorIs(err, errors.ErrUserNotFound)
}
