// Package event defines what the relay pushes to connections.
// Type values are the wire event names and must not change.
package event

import (
	"chat-relay/domain"
	"time"
)

type Type string

const (
	ActiveUsersType                Type = "activeUsers"
	MessagesType                   Type = "messages"
	ChatMessageType                Type = "chatMessage"
	IncomingPrivateChatRequestType Type = "incomingPrivateChatRequest"
	NavigateToPrivateChatType      Type = "navigateToPrivateChat"
	PrivateChatRejectedType        Type = "privateChatRejected"
	UnauthorizedRoomType           Type = "unauthorizedRoom"
	PrivateMessageType             Type = "privateMessage"
	PrivateChatEndedType           Type = "privateChatEnded"
	TypingType                     Type = "typing"
	StopTypingType                 Type = "stopTyping"
	YourUsernameType               Type = "yourUsername"
	UsernameChangedType            Type = "usernameChanged"
)

// Event is one outbound frame. Payload is nil for signal-only events.
type Event struct {
	Type      Type
	CreatedAt time.Time
	Payload   any
}

func New(t Type, payload any) Event {
	return Event{Type: t, CreatedAt: time.Now().UTC(), Payload: payload}
}

// BestEffort events may be dropped under backpressure without correctness impact.
func (e Event) BestEffort() bool {
	return e.Type == TypingType || e.Type == StopTypingType
}

type ChatMessage struct {
	UserID   domain.UserID `json:"userId"`
	Text     string        `json:"text"`
	Time     time.Time     `json:"time"`
	Username string        `json:"username"`
}

type IncomingPrivateChatRequest struct {
	FromID       domain.UserID `json:"fromId"`
	FromUsername string        `json:"fromUsername"`
	Room         domain.RoomID `json:"room"`
}

type RoomRef struct {
	Room domain.RoomID `json:"room"`
}

type PrivateMessage struct {
	Room     domain.RoomID `json:"room"`
	UserID   domain.UserID `json:"userId"`
	Username string        `json:"username"`
	Text     string        `json:"text"`
	Time     time.Time     `json:"time"`
}

type UsernameChanged struct {
	UserID      domain.UserID `json:"userId"`
	OldUsername string        `json:"oldUsername"`
	NewUsername string        `json:"newUsername"`
}

func FromPublicMessage(m domain.PublicMessage) ChatMessage {
	return ChatMessage{UserID: m.UserID, Text: m.Text, Time: m.At, Username: m.Username}
}

func FromPrivateMessage(m domain.PrivateMessage) PrivateMessage {
	return PrivateMessage{Room: m.Room, UserID: m.UserID, Username: m.Username, Text: m.Text, Time: m.At}
}
