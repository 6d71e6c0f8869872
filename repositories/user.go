//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type IUserRepository interface {
	CreateUser(username, hashedPassword string) (domain.UserID, error)
	GetUserByID(id domain.UserID) (domain.User, error)
	GetUserByName(username string) (domain.User, error)
	UpdateUsername(id domain.UserID, newUsername string) error
	UpdatePasswordHash(id domain.UserID, hashedPassword string) error
}

type UserRepository struct {
	db  *badger.DB
	seq *badger.Sequence
}

// NewUserRepository leases ids from a badger sequence.
// Close must be called to give back the unused part of the lease.
func NewUserRepository(db *badger.DB) (*UserRepository, error) {
	seq, err := db.GetSequence([]byte("seq:user"), 100)
	if err != nil {
		return nil, fmt.Errorf("user sequence: %w", err)
	}
	return &UserRepository{db: db, seq: seq}, nil
}

func (u *UserRepository) Close() error {
	return u.seq.Release()
}

type userRecord struct {
	ID           int64  `cbor:"id"`
	Username     string `cbor:"username"`
	PasswordHash string `cbor:"password_hash"`
	CreatedAt    int64  `cbor:"created_at"`
}

// Two keys per user:
//
//	user:id:{id padded}      -> record
//	user:name:{lower(name)}  -> id
//
// Usernames are unique regardless of case.
func idKey(id domain.UserID) []byte {
	return []byte(fmt.Sprintf("user:id:%019d", id))
}

func nameKey(username string) []byte {
	return []byte("user:name:" + strings.ToLower(username))
}

// CreateUser persists the user and returns the newly allocated id.
// Ids start at 1 so they never collide with the reserved negative identities.
func (u *UserRepository) CreateUser(username, hashedPassword string) (domain.UserID, error) {
	next, err := u.seq.Next()
	if err != nil {
		return 0, err
	}
	id := domain.UserID(next + 1)
	data, err := marshal(userRecord{
		ID:           int64(id),
		Username:     username,
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now().UTC().Unix(),
	})
	if err != nil {
		return 0, fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		if err := ensureFree(txn, username); err != nil {
			return err
		}
		if err := txn.Set(idKey(id), data); err != nil {
			return err
		}
		return txn.Set(nameKey(username), []byte(strconv.FormatInt(int64(id), 10)))
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (u *UserRepository) GetUserByID(id domain.UserID) (domain.User, error) {
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		record, err := getRecord(txn, id)
		if err != nil {
			return err
		}
		user = toUser(record)
		return nil
	})
	return user, err
}

func (u *UserRepository) GetUserByName(username string) (domain.User, error) {
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(nameKey(username))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrUserNotFound
		}
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return fmt.Errorf("corrupted username index for %q: %w", username, err)
		}
		record, err := getRecord(txn, domain.UserID(id))
		if err != nil {
			return err
		}
		user = toUser(record)
		return nil
	})
	return user, err
}

// UpdateUsername moves the name index in the same transaction as the record.
func (u *UserRepository) UpdateUsername(id domain.UserID, newUsername string) error {
	return u.db.Update(func(txn *badger.Txn) error {
		record, err := getRecord(txn, id)
		if err != nil {
			return err
		}
		if !strings.EqualFold(record.Username, newUsername) {
			if err := ensureFree(txn, newUsername); err != nil {
				return err
			}
		}
		if err := txn.Delete(nameKey(record.Username)); err != nil {
			return err
		}
		record.Username = newUsername
		if err := putRecord(txn, record); err != nil {
			return err
		}
		return txn.Set(nameKey(newUsername), []byte(strconv.FormatInt(record.ID, 10)))
	})
}

func (u *UserRepository) UpdatePasswordHash(id domain.UserID, hashedPassword string) error {
	return u.db.Update(func(txn *badger.Txn) error {
		record, err := getRecord(txn, id)
		if err != nil {
			return err
		}
		record.PasswordHash = hashedPassword
		return putRecord(txn, record)
	})
}

func ensureFree(txn *badger.Txn, username string) error {
	_, err := txn.Get(nameKey(username))
	switch {
	case err == nil:
		return errors.ErrUserAlreadyExists
	case stderrors.Is(err, badger.ErrKeyNotFound):
		return nil
	default:
		return err
	}
}

func getRecord(txn *badger.Txn, id domain.UserID) (userRecord, error) {
	var record userRecord
	item, err := txn.Get(idKey(id))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return record, errors.ErrUserNotFound
	}
	if err != nil {
		return record, err
	}
	err = item.Value(func(val []byte) error {
		return unmarshal(val, &record)
	})
	return record, err
}

func putRecord(txn *badger.Txn, record userRecord) error {
	data, err := marshal(record)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return txn.Set(idKey(domain.UserID(record.ID)), data)
}

func toUser(record userRecord) domain.User {
	return domain.User{
		ID:           domain.UserID(record.ID),
		Username:     record.Username,
		PasswordHash: record.PasswordHash,
		CreatedAt:    time.Unix(record.CreatedAt, 0).UTC(),
	}
}
