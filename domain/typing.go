package domain

// TypingSignal is either GlobalTyping or RoomTyping.
// The shape is decided once, when the frame is decoded.
type TypingSignal interface {
	typingScope()
}

type GlobalTyping struct {
	UserID UserID
}

type RoomTyping struct {
	Room   RoomID
	UserID UserID
}

func (GlobalTyping) typingScope() {}
func (RoomTyping) typingScope()   {}
