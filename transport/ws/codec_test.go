package ws

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	room := domain.RoomID("3f1c2a9e-7d4b-4c55-9e0a-1b2c3d4e5f60")

	tests := []struct {
		description string
		frame       string
		want        domain.Command
	}{
		{"active users", `{"event":"getActiveUser"}`, domain.GetActiveUsersCommand{}},
		{"history", `{"event":"getMessages","data":null}`, domain.GetMessagesCommand{}},
		{"own username", `{"event":"getMyUsername"}`, domain.GetMyUsernameCommand{}},
		{"public message object", `{"event":"chatMessage","data":{"text":"hello"}}`, domain.PostPublicCommand{Text: "hello"}},
		{"public message string", `{"event":"chatMessage","data":"hello"}`, domain.PostPublicCommand{Text: "hello"}},
		{
			"private chat request",
			`{"event":"privateChatRequest","data":{"fromId":1,"toId":-2}}`,
			domain.RequestPrivateChatCommand{FromID: 1, ToID: domain.BotUserID},
		},
		{
			"private chat request with string ids",
			`{"event":"privateChatRequest","data":{"fromId":"1","toId":"2"}}`,
			domain.RequestPrivateChatCommand{FromID: 1, ToID: 2},
		},
		{
			"private chat response",
			`{"event":"privateChatResponse","data":{"fromId":2,"toId":1,"room":"` + string(room) + `","accepted":true}}`,
			domain.RespondPrivateChatCommand{FromID: 2, ToID: 1, Room: room, Accepted: true},
		},
		{"join bare room", `{"event":"joinPrivateRoom","data":"` + string(room) + `"}`, domain.JoinRoomCommand{Room: room}},
		{"join wrapped room", `{"event":"joinPrivateRoom","data":{"room":"` + string(room) + `"}}`, domain.JoinRoomCommand{Room: room}},
		{
			"private message",
			`{"event":"privateMessage","data":{"room":"` + string(room) + `","text":"hi"}}`,
			domain.PostPrivateCommand{Room: room, Text: "hi"},
		},
		{"end room", `{"event":"privateChatEnded","data":"` + string(room) + `"}`, domain.EndRoomCommand{Room: room}},
		{"global typing", `{"event":"typing","data":1}`, domain.TypingCommand{Signal: domain.GlobalTyping{UserID: 1}}},
		{"global typing string id", `{"event":"typing","data":"1"}`, domain.TypingCommand{Signal: domain.GlobalTyping{UserID: 1}}},
		{
			"room typing",
			`{"event":"typing","data":{"room":"` + string(room) + `","userId":1}}`,
			domain.TypingCommand{Signal: domain.RoomTyping{Room: room, UserID: 1}},
		},
		{"global stop typing", `{"event":"stopTyping"}`, domain.StopTypingCommand{}},
		{"room stop typing", `{"event":"stopTyping","data":"` + string(room) + `"}`, domain.StopTypingCommand{Room: &room}},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			req := require.New(t)
			got, err := Decode([]byte(tt.frame))
			req.NoError(err)
			req.Equal(tt.want, got)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		description string
		frame       string
		want        error
	}{
		{"not json", `hello`, errors.ErrMalformedFrame},
		{"unknown event", `{"event":"dropTables"}`, errors.ErrUnknownEvent},
		{"missing payload", `{"event":"privateMessage"}`, errors.ErrMalformedFrame},
		{"bad user id", `{"event":"privateChatRequest","data":{"fromId":"ada","toId":2}}`, errors.ErrMalformedFrame},
		{"bad typing", `{"event":"typing","data":[1]}`, errors.ErrMalformedFrame},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			req := require.New(t)
			_, err := Decode([]byte(tt.frame))
			req.ErrorIs(err, tt.want)
		})
	}
}

func TestEncode(t *testing.T) {
	req := require.New(t)
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	// Given a payload event
	data, err := Encode(event.New(event.PrivateMessageType, event.PrivateMessage{
		Room: "r1", UserID: 1, Username: "Ada", Text: "hi", Time: at,
	}))
	req.NoError(err)
	req.JSONEq(`{"event":"privateMessage","data":{"room":"r1","userId":1,"username":"Ada","text":"hi","time":"2025-03-01T12:00:00Z"}}`, string(data))

	// Given a signal-only event
	data, err = Encode(event.New(event.PrivateChatEndedType, nil))
	req.NoError(err)
	req.JSONEq(`{"event":"privateChatEnded"}`, string(data))

	// Given a bare string payload
	data, err = Encode(event.New(event.TypingType, "Ada"))
	req.NoError(err)
	var frame map[string]any
	req.NoError(json.Unmarshal(data, &frame))
	req.Equal("typing", frame["event"])
	req.Equal("Ada", frame["data"])
}
