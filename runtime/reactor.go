// Package runtime owns the live state of the relay: connections, presence and private rooms.
// A single Reactor goroutine applies every command, so that state has exactly one writer.
package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/moderation"
	"chat-relay/repositories"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	greetingText   = "🕊️ Everything said here is gone once you leave the chat."
	renameNotice   = "ℹ️ %s is now known as %s"
	unknownUser    = "Unknown"
	maxMessageSize = 4000
)

type envelope struct {
	conn *Connection // nil for commands that do not come from a connection
	cmd  domain.Command
}

// Internal commands re-entering the reactor once asynchronous work is done.
type historyLoaded struct {
	messages []domain.PublicMessage
	err      error
}

type botReplied struct {
	room domain.RoomID
	text string
}

func (historyLoaded) CommandName() string { return "historyLoaded" }
func (botReplied) CommandName() string    { return "botReplied" }

var _ contract.IRelay = (*Reactor)(nil)

type Reactor struct {
	log       *slog.Logger
	presence  *Presence
	rooms     *RoomTable
	users     repositories.IUserRepository
	messages  repositories.IMessageRepository
	bot       BotAdapter
	moderator *moderation.Moderator
	inbox     chan envelope
}

func NewReactor(log *slog.Logger, users repositories.IUserRepository,
	messages repositories.IMessageRepository, bot BotAdapter, bufferSize int) *Reactor {
	return &Reactor{
		log:      log,
		presence: NewPresence(),
		rooms:    NewRoomTable(),
		users:    users,
		messages: messages,
		bot:      bot,
		inbox:    make(chan envelope, bufferSize),
	}
}

// WithModerator censors public and private text before it is stored or relayed.
func (r *Reactor) WithModerator(moderator *moderation.Moderator) *Reactor {
	r.moderator = moderator
	return r
}

// Stats is a point-in-time sample of the relay. It may be taken from any goroutine.
type Stats struct {
	ActiveUsers   int `json:"activeUsers"`
	Connections   int `json:"connections"`
	Rooms         int `json:"rooms"`
	InboxLength   int `json:"inboxLength"`
	InboxCapacity int `json:"inboxCapacity"`
}

// Stats reads len and cap of the inbox without blocking, so a sample may be slightly stale.
func (r *Reactor) Stats() Stats {
	users, connections := r.presence.Counts()
	return Stats{
		ActiveUsers:   users,
		Connections:   connections,
		Rooms:         r.rooms.Len(),
		InboxLength:   len(r.inbox),
		InboxCapacity: cap(r.inbox),
	}
}

// Submit queues a command from conn. Commands of one connection are handled in submission order.
func (r *Reactor) Submit(ctx context.Context, conn *Connection, cmd domain.Command) error {
	select {
	case r.inbox <- envelope{conn: conn, cmd: cmd}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", errors.ErrReactorStopped, ctx.Err())
	}
}

// Rename propagates a username change made through the account API.
func (r *Reactor) Rename(ctx context.Context, userID domain.UserID, oldUsername, newUsername string) error {
	return r.Submit(ctx, nil, domain.RenameCommand{UserID: userID, OldUsername: oldUsername, NewUsername: newUsername})
}

// Run processes one command at a time until ctx is canceled.
func (r *Reactor) Run(ctx context.Context) error {
	r.log.Info("Starting reactor")
	for {
		select {
		case <-ctx.Done():
			r.log.Debug("Stopping reactor")
			return ctx.Err()
		case env := <-r.inbox:
			r.handle(ctx, env)
		}
	}
}

func (r *Reactor) handle(ctx context.Context, env envelope) {
	if env.conn != nil && !r.presence.Has(env.conn) {
		if _, ok := env.cmd.(domain.ConnectCommand); !ok {
			r.log.Debug("Command from a detached connection ignored", "command", env.cmd.CommandName())
			return
		}
	}

	switch cmd := env.cmd.(type) {
	case domain.ConnectCommand:
		r.connect(ctx, env.conn, cmd.Username)
	case domain.DisconnectCommand:
		r.disconnect(ctx, env.conn)
	case domain.GetActiveUsersCommand:
		r.send(ctx, []*Connection{env.conn}, event.New(event.ActiveUsersType, r.presence.Snapshot()))
	case domain.GetMyUsernameCommand:
		r.sendMyUsername(ctx, env.conn)
	case domain.GetMessagesCommand:
		r.loadHistory(ctx, env.conn)
	case historyLoaded:
		r.deliverHistory(ctx, env.conn, cmd)
	case domain.PostPublicCommand:
		r.postPublic(ctx, env.conn, cmd.Text)
	case domain.RequestPrivateChatCommand:
		r.requestPrivateChat(ctx, env.conn, cmd)
	case domain.RespondPrivateChatCommand:
		r.respond(ctx, env.conn, cmd)
	case domain.JoinRoomCommand:
		r.joinRoom(ctx, env.conn, cmd.Room)
	case domain.PostPrivateCommand:
		r.postPrivate(ctx, env.conn, cmd)
	case botReplied:
		r.deliverBotReply(ctx, cmd)
	case domain.EndRoomCommand:
		r.endRoom(ctx, env.conn, cmd.Room)
	case domain.TypingCommand:
		r.typing(ctx, env.conn, cmd.Signal)
	case domain.StopTypingCommand:
		r.stopTyping(ctx, env.conn, cmd.Room)
	case domain.RenameCommand:
		r.rename(ctx, cmd)
	default:
		r.log.Warn(fmt.Sprintf("Not implemented command : %v", cmd))
	}
}

func (r *Reactor) connect(ctx context.Context, conn *Connection, username string) {
	if first := r.presence.Attach(conn, username); first {
		r.broadcastActiveUsers(ctx)
		return
	}
	// Presence did not change, only the new device needs the list
	r.send(ctx, []*Connection{conn}, event.New(event.ActiveUsersType, r.presence.Snapshot()))
}

func (r *Reactor) sendMyUsername(ctx context.Context, conn *Connection) {
	if name, ok := r.presence.DisplayNameOf(conn.UserID); ok {
		r.send(ctx, []*Connection{conn}, event.New(event.YourUsernameType, name))
	}
}

// loadHistory reads the store off the reactor goroutine and re-enters with historyLoaded.
func (r *Reactor) loadHistory(ctx context.Context, conn *Connection) {
	go func() {
		messages, err := r.messages.GetMessages()
		if err == nil {
			messages = r.resolveAuthors(messages)
		}
		_ = r.Submit(ctx, conn, historyLoaded{messages: messages, err: err})
	}()
}

// resolveAuthors fills usernames at read time so renames show up in history.
func (r *Reactor) resolveAuthors(messages []domain.PublicMessage) []domain.PublicMessage {
	names := make(map[domain.UserID]string)
	for i := range messages {
		id := messages[i].UserID
		name, ok := names[id]
		if !ok {
			name = r.authorName(id)
			names[id] = name
		}
		messages[i].Username = name
	}
	return messages
}

func (r *Reactor) authorName(id domain.UserID) string {
	switch id {
	case domain.SystemUserID:
		return domain.SystemUsername
	case domain.BotUserID:
		return r.bot.Name()
	}
	user, err := r.users.GetUserByID(id)
	if err != nil {
		r.log.Debug("Author of a stored message not found", "user_id", id, "error", err)
		return unknownUser
	}
	return user.Username
}

func (r *Reactor) deliverHistory(ctx context.Context, conn *Connection, loaded historyLoaded) {
	if loaded.err != nil {
		r.log.Error("Loading history failed", "user_id", conn.UserID, "error", loaded.err)
		return
	}
	payload := lo.Map(loaded.messages, func(m domain.PublicMessage, _ int) event.ChatMessage {
		return event.FromPublicMessage(m)
	})
	r.send(ctx, []*Connection{conn}, event.New(event.MessagesType, payload))
}

// postPublic stores the message before anyone can see it.
// A failed store aborts the post: nothing is broadcast.
func (r *Reactor) postPublic(ctx context.Context, conn *Connection, text string) {
	text, ok := r.clean(text)
	if !ok {
		return
	}
	username, _ := r.presence.DisplayNameOf(conn.UserID)
	message := domain.PublicMessage{
		ID:       uuid.New(),
		UserID:   conn.UserID,
		Username: username,
		Text:     text,
		At:       time.Now().UTC(),
	}
	if err := r.messages.StoreMessage(message); err != nil {
		r.log.Error("Public message dropped", "user_id", conn.UserID,
			"error", fmt.Errorf("%w: %w", errors.ErrPersistenceFailure, err))
		return
	}
	r.broadcast(ctx, event.New(event.ChatMessageType, event.FromPublicMessage(message)))
}

func (r *Reactor) postPrivate(ctx context.Context, conn *Connection, cmd domain.PostPrivateCommand) {
	room, ok := r.authorize(ctx, conn, cmd.Room)
	if !ok {
		return
	}
	text, ok := r.clean(cmd.Text)
	if !ok {
		return
	}
	username, _ := r.presence.DisplayNameOf(conn.UserID)
	message := domain.PrivateMessage{Room: room.ID, UserID: conn.UserID, Username: username, Text: text, At: time.Now().UTC()}
	r.send(ctx, r.rooms.Members(room.ID), event.New(event.PrivateMessageType, event.FromPrivateMessage(message)))

	if room.Other(conn.UserID) == domain.BotUserID {
		go func() {
			reply := r.bot.Reply(ctx, text)
			_ = r.Submit(ctx, nil, botReplied{room: room.ID, text: reply})
		}()
	}
}

// deliverBotReply runs after the completion call; the room may have closed meanwhile.
func (r *Reactor) deliverBotReply(ctx context.Context, reply botReplied) {
	if _, ok := r.rooms.Get(reply.room); !ok {
		r.log.Debug("Room closed before the bot answered", "room", reply.room)
		return
	}
	message := domain.PrivateMessage{
		Room:     reply.room,
		UserID:   domain.BotUserID,
		Username: r.bot.Name(),
		Text:     reply.text,
		At:       time.Now().UTC(),
	}
	r.send(ctx, r.rooms.Members(reply.room), event.New(event.PrivateMessageType, event.FromPrivateMessage(message)))
}

func (r *Reactor) rename(ctx context.Context, cmd domain.RenameCommand) {
	old, online := r.presence.Rename(cmd.UserID, cmd.NewUsername)
	if online && cmd.OldUsername == "" {
		cmd.OldUsername = old
	}
	r.broadcast(ctx, event.New(event.UsernameChangedType, event.UsernameChanged{
		UserID:      cmd.UserID,
		OldUsername: cmd.OldUsername,
		NewUsername: cmd.NewUsername,
	}))
	if !online {
		return
	}
	r.broadcast(ctx, systemMessage(fmt.Sprintf(renameNotice, cmd.OldUsername, cmd.NewUsername)))
	r.broadcastActiveUsers(ctx)
}

// clean trims, bounds and moderates user text. Empty text is not relayed.
func (r *Reactor) clean(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	if runes := []rune(text); len(runes) > maxMessageSize {
		text = string(runes[:maxMessageSize])
	}
	if r.moderator != nil {
		text, _ = r.moderator.Censor(text)
	}
	return text, true
}

// authorize applies the room guard and tells the caller when it refuses.
func (r *Reactor) authorize(ctx context.Context, conn *Connection, id domain.RoomID) (*domain.PrivateRoom, bool) {
	room, err := r.rooms.Authorize(conn.UserID, id)
	if err != nil {
		r.log.Warn("Room access refused", "user_id", conn.UserID, "room", id, "error", err)
		r.send(ctx, []*Connection{conn}, event.New(event.UnauthorizedRoomType, nil))
		return nil, false
	}
	return room, true
}

func (r *Reactor) broadcastActiveUsers(ctx context.Context) {
	r.broadcast(ctx, event.New(event.ActiveUsersType, r.presence.Snapshot()))
}

func (r *Reactor) broadcast(ctx context.Context, e event.Event) {
	r.send(ctx, r.presence.All(), e)
}

// send tolerates an empty recipient list.
func (r *Reactor) send(ctx context.Context, connections []*Connection, e event.Event) {
	for _, conn := range connections {
		if err := conn.Consume(ctx, e); err != nil {
			r.log.Debug("Event not delivered", "event", e.Type, "error", err)
		}
	}
}

func systemMessage(text string) event.Event {
	return event.New(event.ChatMessageType, event.ChatMessage{
		UserID:   domain.SystemUserID,
		Username: domain.SystemUsername,
		Text:     text,
		Time:     time.Now().UTC(),
	})
}
