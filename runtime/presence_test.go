package runtime

import (
	"chat-relay/domain"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func newTestConnection(id domain.UserID) *Connection {
	return NewConnection(id, 64, logs.GetLoggerFromLevel(slog.LevelDebug))
}

func TestPresence_Transitions_0_1_2_1_0(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()
	first := newTestConnection(1)
	second := newTestConnection(1)

	// Given no user is connected
	req.Empty(presence.Snapshot())

	// When a first device connects
	req.True(presence.Attach(first, "Ada"))
	req.Equal([]domain.ActiveUser{{ID: 1, Username: "Ada"}}, presence.Snapshot())

	// When a second device connects, presence does not change
	req.False(presence.Attach(second, "Ada"))
	req.Len(presence.Snapshot(), 1)
	req.Len(presence.Connections(1), 2)

	// When one device leaves, the user is still online
	req.False(presence.Detach(first))
	req.Len(presence.Snapshot(), 1)
	req.True(presence.IsOnline(1))

	// When the last device leaves, the user is evicted
	req.True(presence.Detach(second))
	req.Empty(presence.Snapshot())
	req.False(presence.IsOnline(1))

	// And detaching twice is harmless
	req.False(presence.Detach(second))
}

func TestPresence_Snapshot_Keeps_First_Attachment_Order(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()
	zoe := newTestConnection(3)
	ada := newTestConnection(1)
	bo := newTestConnection(2)

	presence.Attach(zoe, "Zoe")
	presence.Attach(ada, "Ada")
	presence.Attach(bo, "Bo")
	// A second device does not move Zoe
	presence.Attach(newTestConnection(3), "Zoe")

	req.Equal([]domain.ActiveUser{
		{ID: 3, Username: "Zoe"},
		{ID: 1, Username: "Ada"},
		{ID: 2, Username: "Bo"},
	}, presence.Snapshot())

	// Ada leaves and comes back, and is now last
	presence.Detach(ada)
	presence.Attach(newTestConnection(1), "Ada")
	req.Equal(domain.UserID(1), presence.Snapshot()[2].ID)
}

func TestPresence_Rename(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()
	presence.Attach(newTestConnection(1), "Ada")
	presence.Attach(newTestConnection(1), "Ada")

	old, ok := presence.Rename(1, "Countess")
	req.True(ok)
	req.Equal("Ada", old)

	name, ok := presence.DisplayNameOf(1)
	req.True(ok)
	req.Equal("Countess", name)

	_, ok = presence.Rename(42, "Ghost")
	req.False(ok)

	users, connections := presence.Counts()
	req.Equal(1, users)
	req.Equal(2, connections)
}
