// Package chat provides the core of the service shared by all transports:
// the Room broadcast hub, the per-connection Session state machine, and the
// serialized write pipeline both sessions and clients use.
package chat

import "io"

// Conn is the transport-agnostic byte stream a Session runs on. Both the
// TCP and WebSocket adapters satisfy it.
type Conn interface {
	io.Reader
	io.Writer

	// CloseWrite shuts down the sending half of the connection so frames
	// already queued reach the peer while reads stay open.
	CloseWrite() error

	// Close closes the connection.
	Close() error

	// RemoteAddr returns the remote address for logging.
	RemoteAddr() string
}
