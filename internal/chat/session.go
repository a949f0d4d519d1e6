package chat

import (
	"errors"
	"io"
	"log"
	"sync"

	"github.com/chatwire/framed-chat/internal/auth"
	"github.com/chatwire/framed-chat/pkg/protocol"
)

// Notices sent on the authentication path.
const (
	noticeLoggedIn  = "Success: logged in"
	noticeBadAuth   = "Error: incorrect user or pass, disconnecting..."
	noticeNameTaken = "Error: username already taken, disconnecting..."
	noticeNeedAuth  = "Error: please authenticate with /auth <user> <pass>"
)

type sessionState int

const (
	stateUnauthenticated sessionState = iota
	stateAuthenticated
	stateClosed
)

// Session owns one connection's lifecycle: the strictly sequential read
// pipeline, the serialized write pipeline, and the authentication state
// that gates Room membership. Exactly one Session exists per connection.
type Session struct {
	conn  Conn
	room  *Room
	store auth.Store

	outbox *Outbox

	mu     sync.Mutex
	state  sessionState
	user   string
	joined bool

	closeOnce sync.Once
}

// NewSession binds a connection to the shared room. Call Run to start the
// read pipeline.
func NewSession(conn Conn, room *Room, store auth.Store) *Session {
	s := &Session{conn: conn, room: room, store: store}
	s.outbox = NewOutbox(conn, func(err error) {
		log.Printf("Failed to write to %s: %v", conn.RemoteAddr(), err)
		s.teardown()
	})
	return s
}

// Deliver implements Participant: the message is encoded and handed to the
// write pipeline. Safe to call from any goroutine.
func (s *Session) Deliver(msg protocol.Message) error {
	frame, err := protocol.EncodeMessage(msg)
	if err != nil {
		return err
	}
	return s.outbox.Enqueue(frame)
}

// Run executes the read pipeline until the connection fails or the peer
// disconnects: one header, its body, decode, dispatch, repeat. It always
// leaves the room and releases the connection on the way out.
func (s *Session) Run() {
	defer s.teardown()
	for {
		msg, err := protocol.ReadMessage(s.conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("Failed to read from %s: %v", s.conn.RemoteAddr(), err)
			}
			return
		}
		s.dispatch(msg)
	}
}

// Close tears the session down. Safe to call concurrently with Run.
func (s *Session) Close() {
	s.teardown()
}

func (s *Session) dispatch(msg protocol.Message) {
	s.mu.Lock()
	state := s.state
	user := s.user
	s.mu.Unlock()

	switch state {
	case stateUnauthenticated:
		s.dispatchUnauthenticated(msg)
	case stateAuthenticated:
		s.dispatchAuthenticated(msg, user)
	case stateClosed:
		// Writes are already shut down; drain until the peer hangs up.
	}
}

func (s *Session) dispatchUnauthenticated(msg protocol.Message) {
	if msg.Type != protocol.TypeAuth {
		_ = s.Deliver(protocol.Notice(noticeNeedAuth))
		return
	}
	if !s.store.Verify(msg.User, msg.Pass) {
		log.Printf("Failed login for %q from %s", msg.User, s.conn.RemoteAddr())
		s.reject(noticeBadAuth)
		return
	}
	if s.room.Contains(msg.User) {
		log.Printf("Duplicate login for %q from %s", msg.User, s.conn.RemoteAddr())
		s.reject(noticeNameTaken)
		return
	}

	// The success notice goes out ahead of the history replay that Join
	// performs, so the client sees the login confirmed first.
	_ = s.Deliver(protocol.Notice(noticeLoggedIn))
	if err := s.room.Join(msg.User, s); err != nil {
		// Lost the name to a concurrent login between the check and the join.
		log.Printf("Duplicate login for %q from %s", msg.User, s.conn.RemoteAddr())
		s.reject(noticeNameTaken)
		return
	}

	s.mu.Lock()
	s.state = stateAuthenticated
	s.user = msg.User
	s.joined = true
	s.mu.Unlock()
	log.Printf("%q logged in from %s", msg.User, s.conn.RemoteAddr())
}

func (s *Session) dispatchAuthenticated(msg protocol.Message, user string) {
	switch msg.Type {
	case protocol.TypeChat:
		// The session, not the client, decides who spoke.
		msg.User = user
		s.room.Broadcast(msg)
	case protocol.TypePrivate:
		s.room.RoutePrivate(msg.To, user, msg.Text)
	case protocol.TypeAuth:
		// Re-authentication is not supported.
	case protocol.TypeNotice:
		// Notices are server-to-client only.
		log.Printf("Ignoring inbound notice from %s", s.conn.RemoteAddr())
	}
}

// reject answers an authentication failure: the error notice is queued,
// then the sending half shuts down once the queue drains. The read side
// stays open so the peer decides when to hang up.
func (s *Session) reject(text string) {
	s.mu.Lock()
	s.state = stateClosed
	s.mu.Unlock()

	_ = s.Deliver(protocol.Notice(text))
	s.outbox.CloseAfterDrain(func() {
		if err := s.conn.CloseWrite(); err != nil {
			s.conn.Close()
		}
	})
}

// teardown releases everything exactly once: room membership, the write
// pipeline, and the connection itself.
func (s *Session) teardown() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		user := s.user
		joined := s.joined
		s.state = stateClosed
		s.mu.Unlock()

		if joined {
			s.room.Leave(user)
		}
		s.outbox.Close()
		s.conn.Close()
	})
}
