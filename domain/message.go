// Package domain contains core concepts of the relay.
// This file defines Message records and related rules.
// Messages are immutable once created.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// PublicMessage is a message visible to every connected user.
// It is persisted before being broadcast.
type PublicMessage struct {
	ID       uuid.UUID
	UserID   UserID
	Username string // resolved at read time, never stored
	Text     string
	At       time.Time
}

// PrivateMessage lives only as long as its room. It is never persisted.
type PrivateMessage struct {
	Room     RoomID
	UserID   UserID
	Username string
	Text     string
	At       time.Time
}
