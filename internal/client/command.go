package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chatwire/framed-chat/pkg/protocol"
)

// Dispatch is what the interpreter decided to do with one line of input.
type Dispatch int

const (
	// DispatchNone means nothing should be sent (empty input or local error).
	DispatchNone Dispatch = iota
	// DispatchSend means the returned message goes to the server.
	DispatchSend
	// DispatchQuit means the user asked to leave.
	DispatchQuit
)

var (
	// ErrUnknownCommand reports an unrecognized /command.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrBadArguments reports a recognized command with wrong arguments.
	ErrBadArguments = errors.New("bad arguments")
)

// ParseInput interprets one line of user input. Lines starting with '/' are
// local commands; anything else becomes a chat broadcast attributed to
// user. The syntax is purely client-side; only the resulting message is
// part of the wire contract.
func ParseInput(line, user string) (protocol.Message, Dispatch, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return protocol.Message{}, DispatchNone, nil
	}
	if !strings.HasPrefix(line, "/") {
		return protocol.Message{Type: protocol.TypeChat, User: user, Text: line}, DispatchSend, nil
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit":
		return protocol.Message{}, DispatchQuit, nil
	case "/auth":
		if len(fields) != 3 {
			return protocol.Message{}, DispatchNone, fmt.Errorf("%w: usage /auth <user> <pass>", ErrBadArguments)
		}
		return protocol.Message{Type: protocol.TypeAuth, User: fields[1], Pass: fields[2]}, DispatchSend, nil
	case "/msg":
		if len(fields) < 3 {
			return protocol.Message{}, DispatchNone, fmt.Errorf("%w: usage /msg <user> <text>", ErrBadArguments)
		}
		text := strings.Join(fields[2:], " ")
		return protocol.Message{Type: protocol.TypePrivate, To: fields[1], From: user, Text: text}, DispatchSend, nil
	default:
		return protocol.Message{}, DispatchNone, fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
	}
}

// Render formats a server message for display.
func Render(msg protocol.Message) string {
	switch msg.Type {
	case protocol.TypeChat:
		return fmt.Sprintf("%s> %s", msg.User, msg.Text)
	case protocol.TypePrivate:
		return fmt.Sprintf("[private] %s> %s", msg.From, msg.Text)
	case protocol.TypeNotice:
		return fmt.Sprintf("* %s", msg.Text)
	default:
		return fmt.Sprintf("? unhandled message type %q", msg.Type)
	}
}
