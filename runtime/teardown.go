package runtime

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"fmt"
)

const (
	reasonLeft      = "left the private chat"
	reasonLoggedOff = "has logged off"
	closingNotice   = "🚪 %s %s. The chat will be closed."
)

// disconnect unwinds everything conn took part in, then publishes the new presence.
func (r *Reactor) disconnect(ctx context.Context, conn *Connection) {
	username, _ := r.presence.DisplayNameOf(conn.UserID)
	joined := r.rooms.JoinedBy(conn)
	evicted := r.presence.Detach(conn)

	for _, room := range joined {
		r.rooms.Leave(room.ID, conn)
		if room.InvolvesBot() {
			// No human on the other side to tell
			r.rooms.Discard(room.ID)
			continue
		}
		r.closeRoom(ctx, room, username, reasonLoggedOff)
	}

	if evicted {
		// Requests nobody can answer anymore. A counterpart already waiting inside is told.
		for _, room := range r.rooms.PendingOf(conn.UserID) {
			r.closeRoom(ctx, room, username, reasonLoggedOff)
		}
	}

	conn.close()
	r.log.Debug("Connection detached", "user_id", conn.UserID, "rooms_closed", len(joined), "offline", evicted)
	r.broadcastActiveUsers(ctx)
}

func (r *Reactor) endRoom(ctx context.Context, conn *Connection, id domain.RoomID) {
	room, ok := r.authorize(ctx, conn, id)
	if !ok {
		return
	}
	username, _ := r.presence.DisplayNameOf(conn.UserID)
	r.closeRoom(ctx, room, username, reasonLeft)
}

// closeRoom tells whoever is still in the room, once, then forgets it.
// The room is discarded even when nobody is left to tell.
func (r *Reactor) closeRoom(ctx context.Context, room *domain.PrivateRoom, username, reason string) {
	if members := r.rooms.Members(room.ID); len(members) > 0 {
		r.send(ctx, members, systemMessage(fmt.Sprintf(closingNotice, username, reason)))
		r.send(ctx, members, event.New(event.PrivateChatEndedType, nil))
	}
	r.rooms.Discard(room.ID)
}
