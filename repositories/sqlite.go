package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// SQLiteStore serves both repositories from a single database file.
// It is the alternative to badger when STORE_DRIVER=sqlite.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        username TEXT UNIQUE NOT NULL COLLATE NOCASE,
        password_hash TEXT NOT NULL,
        created_at INTEGER NOT NULL
    );

    CREATE TABLE IF NOT EXISTS messages (
        id TEXT PRIMARY KEY, -- UUID
        user_id INTEGER NOT NULL,
        text TEXT NOT NULL,
        timestamp INTEGER NOT NULL, -- unix nanoseconds
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages (timestamp);
    `
	_, err := s.db.Exec(schema)
	return err
}

// User methods
func (s *SQLiteStore) CreateUser(username, hashedPassword string) (domain.UserID, error) {
	res, err := s.db.Exec("INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)",
		username, hashedPassword, time.Now().UTC().Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return 0, errors.ErrUserAlreadyExists
		}
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read user id: %w", err)
	}
	return domain.UserID(id), nil
}

func (s *SQLiteStore) GetUserByID(id domain.UserID) (domain.User, error) {
	return s.queryUser("SELECT id, username, password_hash, created_at FROM users WHERE id = ?", int64(id))
}

func (s *SQLiteStore) GetUserByName(username string) (domain.User, error) {
	return s.queryUser("SELECT id, username, password_hash, created_at FROM users WHERE username = ?", username)
}

func (s *SQLiteStore) UpdateUsername(id domain.UserID, newUsername string) error {
	res, err := s.db.Exec("UPDATE users SET username = ? WHERE id = ?", newUsername, int64(id))
	if err != nil {
		if isUniqueViolation(err) {
			return errors.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to update username: %w", err)
	}
	return expectOneRow(res)
}

func (s *SQLiteStore) UpdatePasswordHash(id domain.UserID, hashedPassword string) error {
	res, err := s.db.Exec("UPDATE users SET password_hash = ? WHERE id = ?", hashedPassword, int64(id))
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return expectOneRow(res)
}

func (s *SQLiteStore) queryUser(query string, arg any) (domain.User, error) {
	var (
		user      domain.User
		id        int64
		createdAt int64
	)
	err := s.db.QueryRow(query, arg).Scan(&id, &user.Username, &user.PasswordHash, &createdAt)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return domain.User{}, errors.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	user.ID = domain.UserID(id)
	user.CreatedAt = time.Unix(createdAt, 0).UTC()
	return user, nil
}

// Message methods
func (s *SQLiteStore) StoreMessage(message domain.PublicMessage) error {
	_, err := s.db.Exec("INSERT INTO messages (id, user_id, text, timestamp) VALUES (?, ?, ?, ?)",
		message.ID.String(), int64(message.UserID), message.Text, message.At.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetMessages() ([]domain.PublicMessage, error) {
	rows, err := s.db.Query("SELECT id, user_id, text, timestamp FROM messages ORDER BY timestamp ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.PublicMessage
	for rows.Next() {
		var (
			rawID  string
			userID int64
			text   string
			at     int64
		)
		if err := rows.Scan(&rawID, &userID, &text, &at); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, err
		}
		messages = append(messages, domain.PublicMessage{
			ID:     id,
			UserID: domain.UserID(userID),
			Text:   text,
			At:     time.Unix(0, at).UTC(),
		})
	}
	return messages, rows.Err()
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return stderrors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.ErrUserNotFound
	}
	return nil
}

var (
	_ IUserRepository    = (*SQLiteStore)(nil)
	_ IMessageRepository = (*SQLiteStore)(nil)
	_ IUserRepository    = (*UserRepository)(nil)
	_ IMessageRepository = MessageRepository{}
)
