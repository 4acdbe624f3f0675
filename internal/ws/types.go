package ws

import (
	"encoding/json"
)

// MessageType represents the different kinds of messages our system can handle
type MessageType string

const (
	// client -> server
	MessageTypeMove        MessageType = "move"
	MessageTypeUndo        MessageType = "undo"
	MessageTypeResign      MessageType = "resign"
	MessageTypeDrawOffer   MessageType = "drawOffer"
	MessageTypeDrawAccept  MessageType = "drawAccept"
	MessageTypeDrawDecline MessageType = "drawDecline"
	MessageTypeReset       MessageType = "reset"

	// server -> client
	MessageTypeGameState  MessageType = "gameState"
	MessageTypeMatchFound MessageType = "matchFound"
	MessageTypeError      MessageType = "error"
)

// Message represents a WebSocket message in our system
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

// NewError builds an error message.
func NewError(text string) Message {
	payload, _ := json.Marshal(ErrorPayload{Error: text})
	return Message{Type: MessageTypeError, Payload: payload}
}

// New builds a message of type t carrying v as JSON.
func New(t MessageType, v interface{}) (Message, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: t, Payload: payload}, nil
}
