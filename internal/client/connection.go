// Package client implements the client half of the wire contract: the same
// frame codec as the server, a read pump, the serialized write pipeline,
// and the local command interpreter.
package client

import (
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/gorilla/websocket"
)

// Connection is the byte stream the client runs the frame codec over.
type Connection interface {
	io.Reader
	io.Writer
	Close() error
	RemoteAddr() string
}

// DialTCP opens a plain TCP connection to the server.
func DialTCP(address string) (Connection, error) {
	conn, err := net.Dial("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}
	return &tcpConnection{conn: conn}, nil
}

type tcpConnection struct {
	conn net.Conn
}

func (c *tcpConnection) Read(p []byte) (int, error) {
	return c.conn.Read(p)
}

func (c *tcpConnection) Write(p []byte) (int, error) {
	return c.conn.Write(p)
}

func (c *tcpConnection) Close() error {
	return c.conn.Close()
}

func (c *tcpConnection) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// DialWS connects to a WebSocket endpoint (e.g. ws://host:port/); frames
// travel inside binary messages.
func DialWS(url string) (Connection, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}
	return &wsConnection{conn: conn}, nil
}

type wsConnection struct {
	conn *websocket.Conn

	mu  sync.Mutex
	buf []byte
	pos int
}

// Read returns leftover bytes from the previous binary message before
// reading the next one, giving the codec stream semantics.
func (c *wsConnection) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pos < len(c.buf) {
		n := copy(p, c.buf[c.pos:])
		c.pos += n
		if c.pos >= len(c.buf) {
			c.buf = nil
			c.pos = 0
		}
		return n, nil
	}

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return 0, err
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		n := copy(p, data)
		if n < len(data) {
			c.buf = data
			c.pos = n
		}
		return n, nil
	}
}

func (c *wsConnection) Write(p []byte) (int, error) {
	if err := c.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConnection) Close() error {
	_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
	return c.conn.Close()
}

func (c *wsConnection) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
