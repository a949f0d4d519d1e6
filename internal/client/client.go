package client

import (
	"errors"
	"io"
	"log"
	"sync"

	"github.com/chatwire/framed-chat/internal/chat"
	"github.com/chatwire/framed-chat/pkg/protocol"
)

// Client mirrors the server session over an established connection: framed
// reads feed a message channel and writes go through the same serialized
// outbox pipeline the server uses.
type Client struct {
	conn     Connection
	outbox   *chat.Outbox
	messages chan protocol.Message

	mu       sync.Mutex
	username string

	done      chan struct{}
	closeOnce sync.Once
}

// New wraps an established connection and starts the read pump.
func New(conn Connection) *Client {
	c := &Client{
		conn:     conn,
		messages: make(chan protocol.Message, 16),
		done:     make(chan struct{}),
	}
	c.outbox = chat.NewOutbox(conn, func(err error) {
		log.Printf("Failed to write to server: %v", err)
		c.Close()
	})
	go c.readLoop()
	return c
}

// Messages returns the channel of decoded server messages. It is closed
// when the connection goes away.
func (c *Client) Messages() <-chan protocol.Message {
	return c.messages
}

// Username returns the name sent with the most recent authentication
// attempt, or the empty string.
func (c *Client) Username() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.username
}

// Send transmits msg to the server through the write pipeline.
func (c *Client) Send(msg protocol.Message) error {
	frame, err := protocol.EncodeMessage(msg)
	if err != nil {
		return err
	}
	return c.outbox.Enqueue(frame)
}

// Authenticate sends a login attempt and remembers the username for
// attribution of later messages.
func (c *Client) Authenticate(user, pass string) error {
	c.mu.Lock()
	c.username = user
	c.mu.Unlock()
	return c.Send(protocol.Message{Type: protocol.TypeAuth, User: user, Pass: pass})
}

// SendChat broadcasts text to the room.
func (c *Client) SendChat(text string) error {
	return c.Send(protocol.Message{Type: protocol.TypeChat, User: c.Username(), Text: text})
}

// SendPrivate sends text to exactly one recipient.
func (c *Client) SendPrivate(to, text string) error {
	return c.Send(protocol.Message{Type: protocol.TypePrivate, To: to, From: c.Username(), Text: text})
}

// Close tears the connection down. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.outbox.Close()
		c.conn.Close()
	})
}

func (c *Client) readLoop() {
	defer close(c.messages)
	for {
		msg, err := protocol.ReadMessage(c.conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				select {
				case <-c.done:
					// Closed locally; the read error is expected.
				default:
					log.Printf("Failed to read from server: %v", err)
				}
			}
			return
		}
		select {
		case c.messages <- msg:
		case <-c.done:
			return
		}
	}
}
