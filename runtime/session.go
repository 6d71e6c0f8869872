package runtime

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
)

// requestPrivateChat opens a PENDING room and asks the target for consent.
// A request for an offline user is dropped without telling the initiator.
func (r *Reactor) requestPrivateChat(ctx context.Context, conn *Connection, cmd domain.RequestPrivateChatCommand) {
	log := r.log.With("user_id", conn.UserID, "target", cmd.ToID)
	switch {
	case cmd.FromID != conn.UserID:
		log.Warn("Private chat request on behalf of another user dropped", "from_id", cmd.FromID)
		return
	case cmd.ToID == conn.UserID || cmd.ToID == domain.SystemUserID:
		log.Warn("Private chat request with an invalid target dropped")
		return
	}

	if cmd.ToID == domain.BotUserID {
		room := r.rooms.Create(conn.UserID, domain.BotUserID)
		log.Debug("Bot room opened", "room", room.ID)
		r.send(ctx, r.presence.Connections(conn.UserID),
			event.New(event.NavigateToPrivateChatType, event.RoomRef{Room: room.ID}))
		return
	}

	targets := r.presence.Connections(cmd.ToID)
	if len(targets) == 0 {
		log.Debug("Private chat target offline, request dropped")
		return
	}
	room := r.rooms.Create(conn.UserID, cmd.ToID)
	fromUsername, _ := r.presence.DisplayNameOf(conn.UserID)
	r.send(ctx, targets, event.New(event.IncomingPrivateChatRequestType, event.IncomingPrivateChatRequest{
		FromID:       conn.UserID,
		FromUsername: fromUsername,
		Room:         room.ID,
	}))
}

// respond applies the target's decision. Only participant B of an undecided PENDING room may answer,
// and only the first answer counts.
func (r *Reactor) respond(ctx context.Context, conn *Connection, cmd domain.RespondPrivateChatCommand) {
	room, ok := r.authorize(ctx, conn, cmd.Room)
	if !ok {
		return
	}
	log := r.log.With("user_id", conn.UserID, "room", room.ID)
	if cmd.FromID != conn.UserID || room.ParticipantB != conn.UserID || room.ParticipantA != cmd.ToID {
		log.Warn("Private chat response does not match the request", "from_id", cmd.FromID, "to_id", cmd.ToID)
		return
	}
	if room.Accepted || room.State != domain.RoomPending {
		log.Debug("Private chat response for a room already decided ignored", "accepted", cmd.Accepted)
		return
	}

	initiator := r.presence.Connections(room.ParticipantA)
	ref := event.RoomRef{Room: room.ID}
	if !cmd.Accepted {
		r.send(ctx, initiator, event.New(event.PrivateChatRejectedType, ref))
		r.rooms.Discard(room.ID)
		log.Debug("Private chat rejected")
		return
	}
	room.Accept()
	both := append(initiator, r.presence.Connections(room.ParticipantB)...)
	r.send(ctx, both, event.New(event.NavigateToPrivateChatType, ref))
}

// joinRoom adds conn to the room once authorized. The greeting goes out exactly once,
// when both participants are in for the first time.
func (r *Reactor) joinRoom(ctx context.Context, conn *Connection, id domain.RoomID) {
	room, ok := r.authorize(ctx, conn, id)
	if !ok {
		return
	}
	r.rooms.Join(room.ID, conn)
	if room.MarkJoined(r.rooms.BothJoined(room.ID)) {
		r.log.Debug("Private room live", "room", room.ID)
		r.send(ctx, r.rooms.Members(room.ID), systemMessage(greetingText))
	}
}

func (r *Reactor) typing(ctx context.Context, conn *Connection, signal domain.TypingSignal) {
	username, _ := r.presence.DisplayNameOf(conn.UserID)
	e := event.New(event.TypingType, username)
	switch sig := signal.(type) {
	case domain.GlobalTyping:
		r.send(ctx, r.othersThan(conn, r.presence.All()), e)
	case domain.RoomTyping:
		if _, ok := r.authorize(ctx, conn, sig.Room); !ok {
			return
		}
		r.send(ctx, r.othersThan(conn, r.rooms.Members(sig.Room)), e)
	}
}

func (r *Reactor) stopTyping(ctx context.Context, conn *Connection, id *domain.RoomID) {
	e := event.New(event.StopTypingType, nil)
	if id == nil {
		r.send(ctx, r.othersThan(conn, r.presence.All()), e)
		return
	}
	if _, ok := r.authorize(ctx, conn, *id); !ok {
		return
	}
	r.send(ctx, r.othersThan(conn, r.rooms.Members(*id)), e)
}

func (r *Reactor) othersThan(conn *Connection, connections []*Connection) []*Connection {
	var others []*Connection
	for _, c := range connections {
		if c.ID != conn.ID {
			others = append(others, c)
		}
	}
	return others
}
