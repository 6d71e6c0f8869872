package runtime

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestConnection_Full_Buffer_Drops_Best_Effort_Events(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	conn := NewConnection(1, 1, logs.GetLoggerFromLevel(slog.LevelDebug))

	// Given a buffer already holding one event
	req.NoError(conn.Consume(ctx, event.New(event.ActiveUsersType, nil)))

	// When a typing signal does not fit
	req.NoError(conn.Consume(ctx, event.New(event.TypingType, "Ada")))

	// Then it is dropped and the connection stays open
	req.False(conn.closed)
	req.Equal([]event.Type{event.ActiveUsersType}, types(drain(conn)))
}

func TestConnection_Full_Buffer_Closes_On_Guaranteed_Event(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	conn := NewConnection(1, 1, logs.GetLoggerFromLevel(slog.LevelDebug))
	req.NoError(conn.Consume(ctx, event.New(event.ActiveUsersType, nil)))

	// When an event that must not be lost does not fit
	err := conn.Consume(ctx, event.New(event.PrivateChatEndedType, nil))

	// Then the connection is closed after what was already buffered
	req.ErrorIs(err, errors.ErrSlowConnection)
	first, ok := <-conn.Events()
	req.True(ok)
	req.Equal(event.ActiveUsersType, first.Type)
	_, ok = <-conn.Events()
	req.False(ok)

	// And later events are refused without panicking
	req.ErrorIs(conn.Consume(ctx, event.New(event.UnauthorizedRoomType, nil)), errors.ErrConnectionClosed)
	conn.close()
}

func TestReactor_Slow_Connection_Is_Closed_And_Torn_Down(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	ada := h.connect(1, "Ada")
	drain(ada)

	// Given Bo's only device never reads and its buffer is full
	bo := NewConnection(2, 1, logs.GetLoggerFromLevel(slog.LevelDebug))
	h.do(bo, domain.ConnectCommand{Username: "Bo"})
	req.False(bo.closed)

	// When one more guaranteed event is due
	h.do(bo, domain.GetMyUsernameCommand{})

	// Then the connection is closed
	req.True(bo.closed)

	// And the transport reports the hang up
	drain(ada)
	h.do(bo, domain.DisconnectCommand{})

	// Then Bo is gone from presence
	_, online := h.reactor.presence.DisplayNameOf(2)
	req.False(online)
	events := ofType(drain(ada), event.ActiveUsersType)
	req.Len(events, 1)
	req.Equal([]domain.ActiveUser{{ID: 1, Username: "Ada"}}, events[0].Payload)
}
