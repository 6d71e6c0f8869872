package domain

// Command is anything a connection (or the relay itself) asks the reactor to do.
type Command interface {
	CommandName() string
}

type GetActiveUsersCommand struct{}

type GetMessagesCommand struct{}

type GetMyUsernameCommand struct{}

type PostPublicCommand struct {
	Text string
}

type RequestPrivateChatCommand struct {
	FromID UserID
	ToID   UserID
}

// RespondPrivateChatCommand is sent by the target of a request.
// FromID is the responder, ToID the initiator being answered.
type RespondPrivateChatCommand struct {
	FromID   UserID
	ToID     UserID
	Room     RoomID
	Accepted bool
}

type JoinRoomCommand struct {
	Room RoomID
}

type PostPrivateCommand struct {
	Room RoomID
	Text string
}

type EndRoomCommand struct {
	Room RoomID
}

type TypingCommand struct {
	Signal TypingSignal
}

// StopTypingCommand is global when Room is nil.
type StopTypingCommand struct {
	Room *RoomID
}

// Lifecycle commands, submitted by the transport and the account service.

type ConnectCommand struct {
	Username string
}

type DisconnectCommand struct{}

type RenameCommand struct {
	UserID      UserID
	OldUsername string
	NewUsername string
}

func (GetActiveUsersCommand) CommandName() string     { return "getActiveUser" }
func (GetMessagesCommand) CommandName() string        { return "getMessages" }
func (GetMyUsernameCommand) CommandName() string      { return "getMyUsername" }
func (PostPublicCommand) CommandName() string         { return "chatMessage" }
func (RequestPrivateChatCommand) CommandName() string { return "privateChatRequest" }
func (RespondPrivateChatCommand) CommandName() string { return "privateChatResponse" }
func (JoinRoomCommand) CommandName() string           { return "joinPrivateRoom" }
func (PostPrivateCommand) CommandName() string        { return "privateMessage" }
func (EndRoomCommand) CommandName() string            { return "privateChatEnded" }
func (TypingCommand) CommandName() string             { return "typing" }
func (StopTypingCommand) CommandName() string         { return "stopTyping" }
func (ConnectCommand) CommandName() string            { return "connect" }
func (DisconnectCommand) CommandName() string         { return "disconnect" }
func (RenameCommand) CommandName() string             { return "rename" }
