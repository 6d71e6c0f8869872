package repositories

import (
	"chat-relay/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func newUserRepository(t *testing.T) *UserRepository {
	t.Helper()
	repository, err := NewUserRepository(openBadger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repository.Close() })
	return repository
}

func TestUserRepository_Create_And_Get(t *testing.T) {
	req := require.New(t)
	repository := newUserRepository(t)

	// Given two registered users
	ada, err := repository.CreateUser("Ada", "hash-ada")
	req.NoError(err)
	bo, err := repository.CreateUser("Bo", "hash-bo")
	req.NoError(err)

	// Then ids are positive and distinct
	req.Positive(int64(ada))
	req.NotEqual(ada, bo)

	byID, err := repository.GetUserByID(ada)
	req.NoError(err)
	req.Equal("Ada", byID.Username)
	req.Equal("hash-ada", byID.PasswordHash)
	req.False(byID.CreatedAt.IsZero())

	byName, err := repository.GetUserByName("bo")
	req.NoError(err)
	req.Equal(bo, byName.ID)
}

func TestUserRepository_Duplicate_Username_Is_Rejected(t *testing.T) {
	req := require.New(t)
	repository := newUserRepository(t)

	_, err := repository.CreateUser("Ada", "hash")
	req.NoError(err)

	_, err = repository.CreateUser("ADA", "hash")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func TestUserRepository_Unknown_User(t *testing.T) {
	req := require.New(t)
	repository := newUserRepository(t)

	_, err := repository.GetUserByID(42)
	req.ErrorIs(err, errors.ErrUserNotFound)
	_, err = repository.GetUserByName("nobody")
	req.ErrorIs(err, errors.ErrUserNotFound)
	req.ErrorIs(repository.UpdateUsername(42, "x"), errors.ErrUserNotFound)
}

func TestUserRepository_UpdateUsername_Moves_Index(t *testing.T) {
	req := require.New(t)
	repository := newUserRepository(t)

	ada, err := repository.CreateUser("Ada", "hash")
	req.NoError(err)
	_, err = repository.CreateUser("Bo", "hash")
	req.NoError(err)

	// When Ada renames herself
	req.NoError(repository.UpdateUsername(ada, "Countess"))

	// Then the old name is free and the new one resolves
	_, err = repository.GetUserByName("Ada")
	req.ErrorIs(err, errors.ErrUserNotFound)
	user, err := repository.GetUserByName("Countess")
	req.NoError(err)
	req.Equal(ada, user.ID)

	// A taken name is refused, a case-only change is allowed
	req.ErrorIs(repository.UpdateUsername(ada, "bo"), errors.ErrUserAlreadyExists)
	req.NoError(repository.UpdateUsername(ada, "COUNTESS"))
}

func TestUserRepository_UpdatePasswordHash(t *testing.T) {
	req := require.New(t)
	repository := newUserRepository(t)

	ada, err := repository.CreateUser("Ada", "old")
	req.NoError(err)
	req.NoError(repository.UpdatePasswordHash(ada, "new"))

	user, err := repository.GetUserByID(ada)
	req.NoError(err)
	req.Equal("new", user.PasswordHash)
}
