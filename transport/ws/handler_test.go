package ws

import (
	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/mocks"
	"chat-relay/runtime"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type testFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type relayFixture struct {
	server *httptest.Server
	issuer auth.TokenIssuer
}

func newRelayFixture(t *testing.T) relayFixture {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	users := mocks.NewMockIUserRepository(ctrl)
	messages := mocks.NewMockIMessageRepository(ctrl)
	completer := mocks.NewMockICompleter(ctrl)

	users.EXPECT().GetUserByID(domain.UserID(1)).Return(domain.User{ID: 1, Username: "Ada"}, nil).AnyTimes()
	users.EXPECT().GetUserByID(domain.UserID(2)).Return(domain.User{ID: 2, Username: "Bo"}, nil).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	bot := runtime.NewBotAdapter(completer, "Bot", time.Second, log)
	reactor := runtime.NewReactor(log, users, messages, bot, 64)
	go func() { _ = reactor.Run(ctx) }()

	issuer := auth.NewTokenIssuer("ws-test-secret", time.Hour)
	server := httptest.NewServer(NewHandler(ctx, log, issuer, users, reactor, 64, "*"))

	// Cleanups run last-in first-out: sockets close before the server does
	t.Cleanup(server.Close)
	t.Cleanup(cancel)
	return relayFixture{server: server, issuer: issuer}
}

func (f relayFixture) url() string {
	return "ws" + strings.TrimPrefix(f.server.URL, "http")
}

func (f relayFixture) token(t *testing.T, id domain.UserID, name string) string {
	token, err := f.issuer.GenerateToken(id, name)
	require.NoError(t, err)
	return token
}

func send(t *testing.T, c *websocket.Conn, name string, data any) {
	require.NoError(t, c.WriteJSON(map[string]any{"event": name, "data": data}))
}

// expect skips frames until one named name arrives.
func expect(t *testing.T, c *websocket.Conn, name string) json.RawMessage {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		require.NoError(t, c.SetReadDeadline(deadline))
		var frame testFrame
		require.NoError(t, c.ReadJSON(&frame), "waiting for %s", name)
		if frame.Event == name {
			return frame.Data
		}
	}
}

// expectActiveUsers waits for a presence snapshot of exactly count users.
func expectActiveUsers(t *testing.T, c *websocket.Conn, count int) {
	t.Helper()
	for {
		var users []domain.ActiveUser
		require.NoError(t, json.Unmarshal(expect(t, c, "activeUsers"), &users))
		if len(users) == count {
			return
		}
	}
}

func TestHandler_RefusesMissingOrBadCredential(t *testing.T) {
	req := require.New(t)
	fixture := newRelayFixture(t)

	// Given no token at all
	_, resp, err := websocket.DefaultDialer.Dial(fixture.url(), nil)
	req.ErrorIs(err, websocket.ErrBadHandshake)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	// Given a token signed with another secret
	forged, err := auth.NewTokenIssuer("another-secret", time.Hour).GenerateToken(1, "Ada")
	req.NoError(err)
	_, resp, err = websocket.DefaultDialer.Dial(fixture.url()+"?token="+forged, nil)
	req.ErrorIs(err, websocket.ErrBadHandshake)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestHandler_PrivateChatEndToEnd(t *testing.T) {
	req := require.New(t)
	fixture := newRelayFixture(t)

	// Given Ada connecting with a query token and Bo with a bearer header
	ada, _, err := websocket.DefaultDialer.Dial(fixture.url()+"?token="+fixture.token(t, 1, "Ada"), nil)
	req.NoError(err)
	defer ada.Close()
	expectActiveUsers(t, ada, 1)

	header := http.Header{"Authorization": []string{"Bearer " + fixture.token(t, 2, "Bo")}}
	bo, _, err := websocket.DefaultDialer.Dial(fixture.url(), header)
	req.NoError(err)
	defer bo.Close()
	expectActiveUsers(t, ada, 2)
	expectActiveUsers(t, bo, 2)

	// When Ada asks Bo for a private chat
	send(t, ada, "privateChatRequest", map[string]any{"fromId": 1, "toId": 2})

	var incoming struct {
		FromID       int64  `json:"fromId"`
		FromUsername string `json:"fromUsername"`
		Room         string `json:"room"`
	}
	req.NoError(json.Unmarshal(expect(t, bo, "incomingPrivateChatRequest"), &incoming))
	req.Equal(int64(1), incoming.FromID)
	req.Equal("Ada", incoming.FromUsername)
	req.NotEmpty(incoming.Room)
	room := incoming.Room

	// When Bo accepts
	send(t, bo, "privateChatResponse", map[string]any{"fromId": 2, "toId": 1, "room": room, "accepted": true})

	var navigate struct {
		Room string `json:"room"`
	}
	for _, c := range []*websocket.Conn{ada, bo} {
		req.NoError(json.Unmarshal(expect(t, c, "navigateToPrivateChat"), &navigate))
		req.Equal(room, navigate.Room)
	}

	// When both join, both are greeted
	send(t, ada, "joinPrivateRoom", room)
	send(t, bo, "joinPrivateRoom", room)
	var greeting struct {
		UserID int64  `json:"userId"`
		Text   string `json:"text"`
	}
	for _, c := range []*websocket.Conn{ada, bo} {
		req.NoError(json.Unmarshal(expect(t, c, "chatMessage"), &greeting))
		req.Equal(int64(domain.SystemUserID), greeting.UserID)
	}

	// When Ada writes in the room
	send(t, ada, "privateMessage", map[string]any{"room": room, "text": "hi"})
	var private struct {
		Room     string `json:"room"`
		UserID   int64  `json:"userId"`
		Username string `json:"username"`
		Text     string `json:"text"`
	}
	req.NoError(json.Unmarshal(expect(t, bo, "privateMessage"), &private))
	req.Equal(room, private.Room)
	req.Equal(int64(1), private.UserID)
	req.Equal("Ada", private.Username)
	req.Equal("hi", private.Text)

	// When Ada goes away
	req.NoError(ada.Close())

	// Then Bo is told once and the room is gone
	var closing struct {
		Text string `json:"text"`
	}
	req.NoError(json.Unmarshal(expect(t, bo, "chatMessage"), &closing))
	req.Contains(closing.Text, "Ada")
	expect(t, bo, "privateChatEnded")

	send(t, bo, "joinPrivateRoom", room)
	expect(t, bo, "unauthorizedRoom")
}
