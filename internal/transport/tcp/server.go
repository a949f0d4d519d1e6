package tcp

import (
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/chatwire/framed-chat/internal/auth"
	"github.com/chatwire/framed-chat/internal/chat"
)

// Server accepts TCP connections and runs one Session per connection
// against the shared Room. The accept loop never blocks on a single
// connection's lifecycle.
type Server struct {
	address  string
	listener net.Listener
	room     *chat.Room
	store    auth.Store
	quit     chan struct{}
	wg       sync.WaitGroup

	mu       sync.Mutex
	sessions map[*chat.Session]struct{}
}

// New creates a TCP server feeding the provided room.
func New(address string, room *chat.Room, store auth.Store) *Server {
	return &Server{
		address:  address,
		room:     room,
		store:    store,
		quit:     make(chan struct{}),
		sessions: make(map[*chat.Session]struct{}),
	}
}

// Start starts accepting TCP connections. It returns nil after Stop.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to start TCP server: %w", err)
	}
	s.listener = listener

	log.Printf("TCP server started on %s", listener.Addr().String())

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return nil
			default:
				log.Printf("Failed to accept TCP connection: %v", err)
				continue
			}
		}

		sess := chat.NewSession(NewConn(conn), s.room, s.store)
		s.track(sess)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(sess)
			sess.Run()
		}()
	}
}

// Stop stops the TCP server and closes every live session.
func (s *Server) Stop() {
	close(s.quit)
	if s.listener != nil {
		s.listener.Close()
	}

	s.mu.Lock()
	for sess := range s.sessions {
		sess.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// Addr returns the listening address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func (s *Server) track(sess *chat.Session) {
	s.mu.Lock()
	s.sessions[sess] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(sess *chat.Session) {
	s.mu.Lock()
	delete(s.sessions, sess)
	s.mu.Unlock()
}
