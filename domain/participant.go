// Package domain contains core concepts of the relay.
// This file defines user identities and the reserved synthetic participants.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// UserID is the stable identifier issued by the account store.
type UserID int64

const (
	// SystemUserID authors informational messages only, never a participant.
	SystemUserID UserID = -1
	// BotUserID is the synthetic chat partner. It never owns a connection.
	BotUserID UserID = -2

	SystemUsername = "System"
)

// IsReserved reports whether the identity belongs to a synthetic participant.
func (id UserID) IsReserved() bool {
	return id == SystemUserID || id == BotUserID
}

// User is an account as stored by the account store.
type User struct {
	ID           UserID
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// ActiveUser is one line of a presence snapshot.
type ActiveUser struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
}
