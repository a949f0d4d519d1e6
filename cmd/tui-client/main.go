package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/jroimartin/gocui"

	"github.com/chatwire/framed-chat/internal/client"
	"github.com/chatwire/framed-chat/pkg/protocol"
)

// chatUI is a full-screen terminal front end for the chat client: a
// scrolling message pane, a status bar, and an input line feeding the same
// command interpreter as the plain client.
type chatUI struct {
	gui    *gocui.Gui
	client *client.Client
	server string

	msgView    string
	statusView string
	inputView  string
}

func newChatUI(c *client.Client, server string) (*chatUI, error) {
	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return nil, err
	}

	ui := &chatUI{
		gui:        g,
		client:     c,
		server:     server,
		msgView:    "messages",
		statusView: "status",
		inputView:  "input",
	}

	g.SetManagerFunc(ui.layout)
	return ui, nil
}

func (ui *chatUI) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	msgHeight := maxY - 5

	if v, err := g.SetView(ui.msgView, 0, 0, maxX-1, msgHeight); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Messages"
		v.Wrap = true
		v.Autoscroll = true
		fmt.Fprintln(v, "Welcome! Authenticate with /auth <user> <pass>; /quit or Ctrl-C to exit.")
	}

	if v, err := g.SetView(ui.statusView, 0, msgHeight+1, maxX-1, msgHeight+3); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Status"
		ui.refreshStatus()
	}

	if v, err := g.SetView(ui.inputView, 0, msgHeight+3, maxX-1, maxY-1); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Input"
		v.Editable = true
		v.Wrap = true
		if _, err := g.SetCurrentView(ui.inputView); err != nil {
			return err
		}
	}

	return nil
}

func (ui *chatUI) keybindings() error {
	if err := ui.gui.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone,
		func(*gocui.Gui, *gocui.View) error {
			return gocui.ErrQuit
		}); err != nil {
		return err
	}
	return ui.gui.SetKeybinding(ui.inputView, gocui.KeyEnter, gocui.ModNone, ui.handleInput)
}

func (ui *chatUI) handleInput(_ *gocui.Gui, v *gocui.View) error {
	line := strings.TrimSpace(v.Buffer())
	v.Clear()
	if err := v.SetCursor(0, 0); err != nil {
		return err
	}

	msg, dispatch, err := client.ParseInput(line, ui.client.Username())
	if err != nil {
		ui.appendLine(fmt.Sprintf("Error: %v", err))
		return nil
	}

	switch dispatch {
	case client.DispatchNone:
		return nil
	case client.DispatchQuit:
		return gocui.ErrQuit
	case client.DispatchSend:
		if msg.Type == protocol.TypeAuth {
			err = ui.client.Authenticate(msg.User, msg.Pass)
			ui.refreshStatus()
		} else {
			err = ui.client.Send(msg)
		}
		if err != nil {
			ui.appendLine(fmt.Sprintf("Error: failed to send: %v", err))
		}
	}
	return nil
}

func (ui *chatUI) appendLine(line string) {
	ui.gui.Update(func(g *gocui.Gui) error {
		v, err := g.View(ui.msgView)
		if err != nil {
			return err
		}
		fmt.Fprintln(v, line)
		return nil
	})
}

func (ui *chatUI) refreshStatus() {
	ui.gui.Update(func(g *gocui.Gui) error {
		v, err := g.View(ui.statusView)
		if err != nil {
			return err
		}
		v.Clear()
		user := ui.client.Username()
		if user == "" {
			user = "(not authenticated)"
		}
		fmt.Fprintf(v, " %s | %s | Ctrl-C: quit", ui.server, user)
		return nil
	})
}

// receive pumps server messages into the message pane until the
// connection goes away.
func (ui *chatUI) receive() {
	for msg := range ui.client.Messages() {
		ui.appendLine(client.Render(msg))
	}
	ui.appendLine("Disconnected from server")
}

func main() {
	serverAddr := flag.String("server", "localhost:9000", "Server address (e.g. localhost:9000)")
	wsURL := flag.String("ws", "", "Connect over WebSocket instead (e.g. ws://localhost:9001/)")
	flag.Parse()

	var (
		conn client.Connection
		err  error
	)
	if *wsURL != "" {
		conn, err = client.DialWS(*wsURL)
	} else {
		conn, err = client.DialTCP(*serverAddr)
	}
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}

	c := client.New(conn)
	defer c.Close()

	ui, err := newChatUI(c, conn.RemoteAddr())
	if err != nil {
		log.Fatalf("Failed to initialize UI: %v", err)
	}
	defer ui.gui.Close()

	if err := ui.keybindings(); err != nil {
		log.Fatalf("Failed to set keybindings: %v", err)
	}

	go ui.receive()

	if err := ui.gui.MainLoop(); err != nil && err != gocui.ErrQuit {
		log.Fatalf("UI error: %v", err)
	}
}
