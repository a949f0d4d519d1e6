package chat_test

import (
	"errors"
	"io"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/chatwire/framed-chat/internal/auth"
	"github.com/chatwire/framed-chat/internal/chat"
	"github.com/chatwire/framed-chat/pkg/protocol"
)

// pipeConn adapts one end of a net.Pipe to chat.Conn. Pipes cannot
// half-close, so CloseWrite falls back to a full close.
type pipeConn struct {
	net.Conn
}

func (p pipeConn) CloseWrite() error  { return p.Conn.Close() }
func (p pipeConn) RemoteAddr() string { return "pipe" }

func testStore() auth.Store {
	return auth.StaticStore{"alice": "wonder", "bob": "builder"}
}

// startSession runs a session against room on one end of a pipe and
// returns the peer end.
func startSession(t *testing.T, room *chat.Room, store auth.Store) net.Conn {
	t.Helper()
	peer, own := net.Pipe()
	sess := chat.NewSession(pipeConn{own}, room, store)
	go sess.Run()
	t.Cleanup(func() { peer.Close() })
	return peer
}

func sendMsg(t *testing.T, conn net.Conn, msg protocol.Message) {
	t.Helper()
	frame, err := protocol.EncodeMessage(msg)
	if err != nil {
		t.Fatalf("failed to encode message: %v", err)
	}
	if err := conn.SetWriteDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("failed to set write deadline: %v", err)
	}
	if _, err := conn.Write(frame); err != nil {
		t.Fatalf("failed to write frame: %v", err)
	}
}

func readMsg(t *testing.T, conn net.Conn) protocol.Message {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("failed to set read deadline: %v", err)
	}
	msg, err := protocol.ReadMessage(conn)
	if err != nil {
		t.Fatalf("failed to read message: %v", err)
	}
	return msg
}

func expectNotice(t *testing.T, conn net.Conn, fragment string) {
	t.Helper()
	msg := readMsg(t, conn)
	if msg.Type != protocol.TypeNotice {
		t.Fatalf("got %+v, want a notice containing %q", msg, fragment)
	}
	if !strings.Contains(msg.Text, fragment) {
		t.Fatalf("notice %q does not contain %q", msg.Text, fragment)
	}
}

func expectSilence(t *testing.T, conn net.Conn) {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond)); err != nil {
		t.Fatalf("failed to set read deadline: %v", err)
	}
	if msg, err := protocol.ReadMessage(conn); err == nil {
		t.Fatalf("expected no traffic, got %+v", msg)
	} else if !errors.Is(err, os.ErrDeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
}

func authenticate(t *testing.T, room *chat.Room, conn net.Conn, user, pass string) {
	t.Helper()
	sendMsg(t, conn, protocol.Message{Type: protocol.TypeAuth, User: user, Pass: pass})
	expectNotice(t, conn, "logged in")
	waitFor(t, "room membership", func() bool { return room.Contains(user) })
}

func TestSession_AuthSuccess(t *testing.T) {
	room := chat.NewRoom()
	conn := startSession(t, room, testStore())

	authenticate(t, room, conn, "alice", "wonder")
}

func TestSession_AuthFailure(t *testing.T) {
	room := chat.NewRoom()
	conn := startSession(t, room, testStore())

	sendMsg(t, conn, protocol.Message{Type: protocol.TypeAuth, User: "alice", Pass: "nope"})
	expectNotice(t, conn, "incorrect user or pass")

	// The notice drains, then the session shuts down its side.
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("failed to set read deadline: %v", err)
	}
	if _, err := protocol.ReadMessage(conn); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF after rejection, got %v", err)
	}
	if room.Contains("alice") {
		t.Error("rejected session joined the room")
	}
}

func TestSession_ChatBeforeAuth(t *testing.T) {
	room := chat.NewRoom()
	conn := startSession(t, room, testStore())

	sendMsg(t, conn, protocol.Message{Type: protocol.TypeChat, Text: "hello?"})
	expectNotice(t, conn, "please authenticate")

	// The session stays open; a proper login still works.
	authenticate(t, room, conn, "alice", "wonder")
}

func TestSession_DuplicateUsernameRejected(t *testing.T) {
	room := chat.NewRoom()
	store := testStore()
	first := startSession(t, room, store)
	second := startSession(t, room, store)

	authenticate(t, room, first, "alice", "wonder")

	sendMsg(t, second, protocol.Message{Type: protocol.TypeAuth, User: "alice", Pass: "wonder"})
	expectNotice(t, second, "already taken")

	if got := room.Count(); got != 1 {
		t.Errorf("Count() = %d, want 1 (only the first login)", got)
	}
}

func TestSession_BroadcastEchoAndFanOut(t *testing.T) {
	room := chat.NewRoom()
	store := testStore()
	alice := startSession(t, room, store)
	bob := startSession(t, room, store)

	authenticate(t, room, alice, "alice", "wonder")
	authenticate(t, room, bob, "bob", "builder")

	sendMsg(t, alice, protocol.Message{Type: protocol.TypeChat, Text: "hello room"})

	for _, conn := range []net.Conn{alice, bob} {
		msg := readMsg(t, conn)
		if msg.Type != protocol.TypeChat || msg.User != "alice" || msg.Text != "hello room" {
			t.Errorf("got %+v, want chat from alice", msg)
		}
	}
}

func TestSession_ChatUsernameNotClientSupplied(t *testing.T) {
	room := chat.NewRoom()
	conn := startSession(t, room, testStore())

	authenticate(t, room, conn, "alice", "wonder")

	// A spoofed sender is overwritten with the session's own username.
	sendMsg(t, conn, protocol.Message{Type: protocol.TypeChat, User: "mallory", Text: "hi"})
	msg := readMsg(t, conn)
	if msg.User != "alice" {
		t.Errorf("broadcast attributed to %q, want %q", msg.User, "alice")
	}
}

func TestSession_PrivateDelivery(t *testing.T) {
	room := chat.NewRoom()
	store := testStore()
	alice := startSession(t, room, store)
	bob := startSession(t, room, store)

	authenticate(t, room, alice, "alice", "wonder")
	authenticate(t, room, bob, "bob", "builder")

	sendMsg(t, alice, protocol.Message{Type: protocol.TypePrivate, To: "bob", Text: "psst"})

	msg := readMsg(t, bob)
	want := protocol.Message{Type: protocol.TypePrivate, To: "bob", From: "alice", Text: "psst"}
	if msg != want {
		t.Errorf("bob got %+v, want %+v", msg, want)
	}
	expectSilence(t, alice)
}

func TestSession_PrivateToUnknownRecipientDropped(t *testing.T) {
	room := chat.NewRoom()
	conn := startSession(t, room, testStore())

	authenticate(t, room, conn, "alice", "wonder")

	sendMsg(t, conn, protocol.Message{Type: protocol.TypePrivate, To: "carol", Text: "hello?"})
	expectSilence(t, conn)
}

func TestSession_HistoryReplayOnJoin(t *testing.T) {
	room := chat.NewRoom()
	store := testStore()
	alice := startSession(t, room, store)

	authenticate(t, room, alice, "alice", "wonder")
	for _, text := range []string{"first", "second"} {
		sendMsg(t, alice, protocol.Message{Type: protocol.TypeChat, Text: text})
		readMsg(t, alice) // own echo; history is recorded once echoed
	}

	bob := startSession(t, room, store)
	authenticate(t, room, bob, "bob", "builder")

	for _, want := range []string{"first", "second"} {
		msg := readMsg(t, bob)
		if msg.Type != protocol.TypeChat || msg.Text != want {
			t.Errorf("replay = %+v, want chat %q", msg, want)
		}
	}
}

func TestSession_AuthWhileAuthenticatedIgnored(t *testing.T) {
	room := chat.NewRoom()
	conn := startSession(t, room, testStore())

	authenticate(t, room, conn, "alice", "wonder")

	sendMsg(t, conn, protocol.Message{Type: protocol.TypeAuth, User: "bob", Pass: "builder"})
	expectSilence(t, conn)

	if room.Contains("bob") {
		t.Error("re-authentication changed room membership")
	}
	if !room.Contains("alice") {
		t.Error("re-authentication removed the session")
	}
}

func TestSession_DisconnectLeavesRoom(t *testing.T) {
	room := chat.NewRoom()
	conn := startSession(t, room, testStore())

	authenticate(t, room, conn, "alice", "wonder")

	conn.Close()
	waitFor(t, "room departure", func() bool { return !room.Contains("alice") })
}

func TestSession_MalformedFrameClosesConnection(t *testing.T) {
	room := chat.NewRoom()
	conn := startSession(t, room, testStore())

	if err := conn.SetWriteDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("failed to set write deadline: %v", err)
	}
	if _, err := conn.Write([]byte("????")); err != nil {
		t.Fatalf("failed to write garbage header: %v", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("failed to set read deadline: %v", err)
	}
	if _, err := protocol.ReadMessage(conn); err == nil {
		t.Error("expected connection teardown after framing error")
	}
}
