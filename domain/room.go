package domain

import (
	"time"

	"github.com/google/uuid"
)

// RoomID identifies a private room. It must not be guessable.
type RoomID string

// NewRoomID returns a random version 4 UUID.
func NewRoomID() RoomID {
	return RoomID(uuid.NewString())
}

type RoomState int

const (
	RoomPending RoomState = iota
	RoomLive
)

func (s RoomState) String() string {
	switch s {
	case RoomPending:
		return "PENDING"
	case RoomLive:
		return "LIVE"
	default:
		return "UNKNOWN"
	}
}

// PrivateRoom is a consent-gated conversation between exactly two participants.
// The participant pair never changes after creation. A closed room is simply forgotten.
type PrivateRoom struct {
	ID           RoomID
	ParticipantA UserID // initiator
	ParticipantB UserID // target
	Accepted     bool
	Greeted      bool
	State        RoomState
	CreatedAt    time.Time
}

func NewPrivateRoom(from, to UserID, at time.Time) *PrivateRoom {
	return &PrivateRoom{
		ID:           NewRoomID(),
		ParticipantA: from,
		ParticipantB: to,
		State:        RoomPending,
		CreatedAt:    at,
	}
}

// HasParticipant is the whole authorization rule of a room.
func (r *PrivateRoom) HasParticipant(id UserID) bool {
	return id == r.ParticipantA || id == r.ParticipantB
}

// Other returns the counterpart of id. The result is meaningless if id is not a participant.
func (r *PrivateRoom) Other(id UserID) UserID {
	if id == r.ParticipantA {
		return r.ParticipantB
	}
	return r.ParticipantA
}

func (r *PrivateRoom) InvolvesBot() bool {
	return r.HasParticipant(BotUserID)
}

// Accept records the target's consent. It returns false when a decision was already taken,
// so a repeated or contradictory answer has no effect.
func (r *PrivateRoom) Accept() bool {
	if r.Accepted || r.State != RoomPending {
		return false
	}
	r.Accepted = true
	return true
}

// MarkJoined flips the room to LIVE once both participants are in.
// It returns true only the first time, which is when the greeting must be sent.
func (r *PrivateRoom) MarkJoined(bothJoined bool) bool {
	if !bothJoined || r.Greeted {
		return false
	}
	r.Greeted = true
	r.State = RoomLive
	return true
}
