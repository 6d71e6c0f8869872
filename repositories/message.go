//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chat-relay/domain"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IMessageRepository interface {
	StoreMessage(message domain.PublicMessage) error
	GetMessages() ([]domain.PublicMessage, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

// NewMessageRepository keeps the whole history readable when limitMessages is nil.
// Otherwise only the most recent limitMessages are returned.
func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

type messageRecord struct {
	ID     string `cbor:"id"`
	UserID int64  `cbor:"user_id"`
	Text   string `cbor:"text"`
	At     int64  `cbor:"at"`
}

const messagePrefix = "msg:"

// StoreMessage persists a message in BadgerDB.
// The key is formatted as "msg:{timestamp_padded}:{uuid}":
//  1. 19-digit zero padding keeps lexicographical order chronological.
//  2. The uuid separates two messages stored within the same nanosecond.
//
// The author's username is not stored, it is resolved when history is read.
func (m MessageRepository) StoreMessage(message domain.PublicMessage) error {
	key := fmt.Sprintf("%s%019d:%s", messagePrefix, message.At.UnixNano(), message.ID)
	bytes, err := marshal(lo.ToPtr(fromPublicMessage(message)))
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// GetMessages returns stored messages in ascending timestamp order.
// The scan walks backwards so the limit keeps the newest messages.
func (m MessageRepository) GetMessages() ([]domain.PublicMessage, error) {
	var records []messageRecord
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(messagePrefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// msg:9999999999999999999 sits after every stored key
		for it.Seek(append(prefix, []byte("9999999999999999999")...)); it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(records) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", *m.limitMessages))
				break
			}
			var record messageRecord
			err := it.Item().Value(func(value []byte) error {
				return unmarshal(value, &record)
			})
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Reverse(records)
	messages := make([]domain.PublicMessage, 0, len(records))
	for _, record := range records {
		message, err := toPublicMessage(record)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func fromPublicMessage(message domain.PublicMessage) messageRecord {
	return messageRecord{
		ID:     message.ID.String(),
		UserID: int64(message.UserID),
		Text:   message.Text,
		At:     message.At.UnixNano(),
	}
}

func toPublicMessage(record messageRecord) (domain.PublicMessage, error) {
	parsedID, err := uuid.Parse(record.ID)
	if err != nil {
		return domain.PublicMessage{}, err
	}
	return domain.PublicMessage{
		ID:     parsedID,
		UserID: domain.UserID(record.UserID),
		Text:   record.Text,
		At:     time.Unix(0, record.At).UTC(),
	}, nil
}
