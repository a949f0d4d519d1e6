// Package tcp provides the TCP transport for the chat server.
package tcp

import (
	"net"
)

// Conn adapts a net.Conn to the chat.Conn stream interface.
type Conn struct {
	conn net.Conn
}

// NewConn wraps a net.Conn.
func NewConn(conn net.Conn) *Conn {
	return &Conn{conn: conn}
}

// Read implements chat.Conn.
func (c *Conn) Read(p []byte) (int, error) {
	return c.conn.Read(p)
}

// Write implements chat.Conn.
func (c *Conn) Write(p []byte) (int, error) {
	return c.conn.Write(p)
}

// CloseWrite shuts down the sending half so frames already written reach
// the peer before the connection dies. Falls back to a full close when the
// underlying connection cannot half-close.
func (c *Conn) CloseWrite() error {
	if tc, ok := c.conn.(*net.TCPConn); ok {
		return tc.CloseWrite()
	}
	return c.conn.Close()
}

// Close implements chat.Conn.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr implements chat.Conn.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
