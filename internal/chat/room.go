package chat

import (
	"errors"
	"log"
	"sync"

	"github.com/eapache/queue"

	"github.com/chatwire/framed-chat/pkg/protocol"
)

// HistoryCapacity bounds the number of broadcast messages retained for
// replay to new participants.
const HistoryCapacity = 100

// ErrAlreadyPresent is returned by Join when the username is taken.
var ErrAlreadyPresent = errors.New("chat: username already present in room")

// Participant is the capability the Room needs from a session: a way to
// deliver one message. Delivery is a queue append and must never block on
// socket I/O. The Room holds participants as non-owning references and
// never closes one itself.
type Participant interface {
	Deliver(msg protocol.Message) error
}

// Room is the broadcast hub shared by every session in the process. It
// tracks authenticated participants by unique, case-sensitive name and
// retains a bounded ring of recent broadcasts.
type Room struct {
	mu           sync.Mutex
	participants map[string]Participant
	history      *queue.Queue
	capacity     int
}

// NewRoom creates an empty room retaining HistoryCapacity messages.
func NewRoom() *Room {
	return &Room{
		participants: make(map[string]Participant),
		history:      queue.New(),
		capacity:     HistoryCapacity,
	}
}

// Join adds p under name and replays the retained history to it, oldest
// first, before returning.
func (r *Room) Join(name string, p Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.participants[name]; ok {
		return ErrAlreadyPresent
	}
	r.participants[name] = p
	for i := 0; i < r.history.Length(); i++ {
		if err := p.Deliver(r.history.Get(i).(protocol.Message)); err != nil {
			break
		}
	}
	return nil
}

// Leave removes name from the room. Removing an absent name is a no-op, so
// read-failure and write-failure cleanups may race on the same disconnect.
func (r *Room) Leave(name string) {
	r.mu.Lock()
	delete(r.participants, name)
	r.mu.Unlock()
}

// Contains reports whether name is a current participant.
func (r *Room) Contains(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.participants[name]
	return ok
}

// Count returns the number of current participants.
func (r *Room) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.participants)
}

// Broadcast appends msg to the history ring, evicting the oldest entry past
// capacity, then delivers one copy to every current participant, the sender
// included. A participant whose delivery fails is evicted without aborting
// delivery to the others.
func (r *Room) Broadcast(msg protocol.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history.Add(msg)
	for r.history.Length() > r.capacity {
		r.history.Remove()
	}
	for name, p := range r.participants {
		if err := p.Deliver(msg); err != nil {
			log.Printf("Dropping participant %q: %v", name, err)
			delete(r.participants, name)
		}
	}
}

// RoutePrivate delivers a private message to exactly one recipient. An
// unknown recipient is a silent drop: no confirmation or error reaches the
// sender. Private traffic is never recorded in history.
func (r *Room) RoutePrivate(to, from, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[to]
	if !ok {
		return
	}
	msg := protocol.Message{Type: protocol.TypePrivate, To: to, From: from, Text: text}
	if err := p.Deliver(msg); err != nil {
		log.Printf("Dropping participant %q: %v", to, err)
		delete(r.participants, to)
	}
}
