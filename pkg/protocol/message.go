package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Type discriminates the messages carried in a frame body.
type Type string

const (
	// TypeAuth is a login attempt, valid only before authentication.
	TypeAuth Type = "auth"
	// TypeChat is a room broadcast.
	TypeChat Type = "chat"
	// TypePrivate is routed to exactly one recipient by name.
	TypePrivate Type = "private"
	// TypeNotice is a server-originated message to a single client.
	TypeNotice Type = "notice"
)

// ErrUnknownType is returned when a frame body carries a missing or
// unrecognized type discriminant.
var ErrUnknownType = errors.New("protocol: unknown message type")

// Message is the JSON payload carried inside a frame. Only the fields
// relevant to Type are populated; empty fields are omitted on the wire.
type Message struct {
	Type Type   `json:"type"`
	User string `json:"user,omitempty"`
	Pass string `json:"pass,omitempty"`
	To   string `json:"to,omitempty"`
	From string `json:"from,omitempty"`
	Text string `json:"text,omitempty"`
}

// Notice builds a server-originated informational message.
func Notice(text string) Message {
	return Message{Type: TypeNotice, Text: text}
}

func (t Type) valid() bool {
	switch t {
	case TypeAuth, TypeChat, TypePrivate, TypeNotice:
		return true
	}
	return false
}

// Encode serializes the message to its JSON wire form.
func (m Message) Encode() ([]byte, error) {
	if !m.Type.valid() {
		return nil, ErrUnknownType
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	return data, nil
}

// Decode parses a frame body into the message.
func (m *Message) Decode(data []byte) error {
	if err := json.Unmarshal(data, m); err != nil {
		return fmt.Errorf("failed to decode message: %w", err)
	}
	if !m.Type.valid() {
		return ErrUnknownType
	}
	return nil
}

// EncodeMessage produces a complete frame carrying m.
func EncodeMessage(m Message) ([]byte, error) {
	body, err := m.Encode()
	if err != nil {
		return nil, err
	}
	return EncodeFrame(body)
}

// ReadMessage reads one frame from r and decodes its body.
func ReadMessage(r io.Reader) (Message, error) {
	body, err := ReadFrame(r)
	if err != nil {
		return Message{}, err
	}
	var m Message
	if err := m.Decode(body); err != nil {
		return Message{}, err
	}
	return m, nil
}
