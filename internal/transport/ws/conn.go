// Package ws provides the WebSocket transport for the chat server. Frames
// travel inside binary WebSocket messages and are re-exposed as a byte
// stream so the session pipeline stays transport-agnostic.
package ws

import (
	"net"
	"sync"

	gws "github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// Conn adapts an upgraded WebSocket connection to the chat.Conn stream
// interface using gobwas/ws.
type Conn struct {
	conn net.Conn

	mu  sync.Mutex
	buf []byte
	pos int
}

// NewConn wraps a net.Conn that already completed the WebSocket handshake.
func NewConn(conn net.Conn) *Conn {
	return &Conn{conn: conn}
}

// Read implements chat.Conn. Bytes left over from a previous WebSocket
// message are returned before the next message is read.
func (c *Conn) Read(p []byte) (int, error) {
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

	data, err := wsutil.ReadClientBinary(c.conn)
	if err != nil {
		return 0, err
	}

	n := copy(p, data)
	if n < len(data) {
		c.buf = data
		c.pos = n
	}
	return n, nil
}

// Write implements chat.Conn by sending p as one binary message.
func (c *Conn) Write(p []byte) (int, error) {
	if err := wsutil.WriteServerBinary(c.conn, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// CloseWrite sends a close frame; WebSocket has no half-close, so the
// transport stays open for reads until the peer answers.
func (c *Conn) CloseWrite() error {
	return wsutil.WriteServerMessage(c.conn, gws.OpClose, nil)
}

// Close implements chat.Conn.
func (c *Conn) Close() error {
	_ = wsutil.WriteServerMessage(c.conn, gws.OpClose, nil)
	return c.conn.Close()
}

// RemoteAddr implements chat.Conn.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
