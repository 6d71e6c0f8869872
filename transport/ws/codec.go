// Package ws carries the relay protocol over WebSocket text frames.
// Every frame is a JSON object {"event": <name>, "data": <payload>}.
package ws

import (
	"bytes"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
)

type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outboundFrame struct {
	Event event.Type `json:"event"`
	Data  any        `json:"data,omitempty"`
}

// userRef accepts an id sent either as a number or as a numeric string.
type userRef domain.UserID

func (u *userRef) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: user id %s", errors.ErrMalformedFrame, data)
	}
	*u = userRef(id)
	return nil
}

// roomRef accepts a bare room id or an object carrying it.
type roomRef domain.RoomID

func (r *roomRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*r = roomRef(id)
		return nil
	}
	var wrapped struct {
		Room string `json:"room"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return fmt.Errorf("%w: room %s", errors.ErrMalformedFrame, data)
	}
	*r = roomRef(wrapped.Room)
	return nil
}

type textPayload struct {
	Text string `json:"text"`
}

type requestPayload struct {
	FromID userRef `json:"fromId"`
	ToID   userRef `json:"toId"`
}

type responsePayload struct {
	FromID   userRef       `json:"fromId"`
	ToID     userRef       `json:"toId"`
	Room     domain.RoomID `json:"room"`
	Accepted bool          `json:"accepted"`
}

type privateMessagePayload struct {
	Room domain.RoomID `json:"room"`
	Text string        `json:"text"`
}

type roomTypingPayload struct {
	Room   domain.RoomID `json:"room"`
	UserID userRef       `json:"userId"`
}

// Decode turns one inbound frame into a command.
// Unknown events yield ErrUnknownEvent, undecodable payloads ErrMalformedFrame.
func Decode(raw []byte) (domain.Command, error) {
	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrMalformedFrame, err)
	}

	switch frame.Event {
	case "getActiveUser":
		return domain.GetActiveUsersCommand{}, nil
	case "getMessages":
		return domain.GetMessagesCommand{}, nil
	case "getMyUsername":
		return domain.GetMyUsernameCommand{}, nil
	case "chatMessage":
		text, err := decodeText(frame.Data)
		if err != nil {
			return nil, err
		}
		return domain.PostPublicCommand{Text: text}, nil
	case "privateChatRequest":
		var p requestPayload
		if err := decodeData(frame.Data, &p); err != nil {
			return nil, err
		}
		return domain.RequestPrivateChatCommand{FromID: domain.UserID(p.FromID), ToID: domain.UserID(p.ToID)}, nil
	case "privateChatResponse":
		var p responsePayload
		if err := decodeData(frame.Data, &p); err != nil {
			return nil, err
		}
		return domain.RespondPrivateChatCommand{
			FromID:   domain.UserID(p.FromID),
			ToID:     domain.UserID(p.ToID),
			Room:     p.Room,
			Accepted: p.Accepted,
		}, nil
	case "joinPrivateRoom":
		var room roomRef
		if err := decodeData(frame.Data, &room); err != nil {
			return nil, err
		}
		return domain.JoinRoomCommand{Room: domain.RoomID(room)}, nil
	case "privateMessage":
		var p privateMessagePayload
		if err := decodeData(frame.Data, &p); err != nil {
			return nil, err
		}
		return domain.PostPrivateCommand{Room: p.Room, Text: p.Text}, nil
	case "privateChatEnded":
		var room roomRef
		if err := decodeData(frame.Data, &room); err != nil {
			return nil, err
		}
		return domain.EndRoomCommand{Room: domain.RoomID(room)}, nil
	case "typing":
		signal, err := decodeTyping(frame.Data)
		if err != nil {
			return nil, err
		}
		return domain.TypingCommand{Signal: signal}, nil
	case "stopTyping":
		if isAbsent(frame.Data) {
			return domain.StopTypingCommand{}, nil
		}
		var room roomRef
		if err := decodeData(frame.Data, &room); err != nil {
			return nil, err
		}
		if room == "" {
			return domain.StopTypingCommand{}, nil
		}
		id := domain.RoomID(room)
		return domain.StopTypingCommand{Room: &id}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownEvent, frame.Event)
	}
}

// Encode renders an outbound event. Signal-only events carry no data.
func Encode(e event.Event) ([]byte, error) {
	return json.Marshal(outboundFrame{Event: e.Type, Data: e.Payload})
}

func decodeData(data json.RawMessage, v any) error {
	if isAbsent(data) {
		return fmt.Errorf("%w: missing data", errors.ErrMalformedFrame)
	}
	if err := json.Unmarshal(data, v); err != nil {
		if stderrors.Is(err, errors.ErrMalformedFrame) {
			return err
		}
		return fmt.Errorf("%w: %w", errors.ErrMalformedFrame, err)
	}
	return nil
}

// decodeText accepts {"text": "..."} as well as a bare string.
func decodeText(data json.RawMessage) (string, error) {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		return text, nil
	}
	var p textPayload
	if err := decodeData(data, &p); err != nil {
		return "", err
	}
	return p.Text, nil
}

// decodeTyping settles the scope of a typing signal: a bare id is global, an object with a room is scoped.
func decodeTyping(data json.RawMessage) (domain.TypingSignal, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var p roomTypingPayload
		if err := decodeData(data, &p); err != nil {
			return nil, err
		}
		if p.Room == "" {
			return domain.GlobalTyping{UserID: domain.UserID(p.UserID)}, nil
		}
		return domain.RoomTyping{Room: p.Room, UserID: domain.UserID(p.UserID)}, nil
	}
	var id userRef
	if err := decodeData(data, &id); err != nil {
		return nil, err
	}
	return domain.GlobalTyping{UserID: domain.UserID(id)}, nil
}

func isAbsent(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
