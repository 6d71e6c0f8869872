package runtime

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type ConnectionID string

// Connection is one live transport session of a verified user.
// Outbound events are buffered; the transport drains Events() until it is closed.
type Connection struct {
	ID       ConnectionID
	UserID   domain.UserID
	outbound chan event.Event
	log      *slog.Logger
	closed   bool
}

func NewConnection(userID domain.UserID, bufferSize int, log *slog.Logger) *Connection {
	id := ConnectionID(uuid.NewString())
	return &Connection{
		ID:       id,
		UserID:   userID,
		outbound: make(chan event.Event, bufferSize),
		log:      log.With("connection_id", id, "user_id", userID),
	}
}

// Consume is called by the reactor only, so it never races with close.
// A full buffer drops best-effort events. Any other event closes the connection:
// the transport then hangs up and the disconnect goes through the usual teardown.
func (c *Connection) Consume(ctx context.Context, e event.Event) error {
	if c.closed {
		return errors.ErrConnectionClosed
	}
	select {
	case c.outbound <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		if e.BestEffort() {
			c.log.Debug("Outbound buffer full, dropping best-effort event", "event", e.Type)
			return nil
		}
		c.log.Warn("Outbound buffer full, closing connection", "event", e.Type)
		c.close()
		return errors.ErrSlowConnection
	}
}

func (c *Connection) Events() <-chan event.Event {
	return c.outbound
}

// close ends the outbound stream. Safe to call more than once.
func (c *Connection) close() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.outbound)
}
