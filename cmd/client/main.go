package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/chatwire/framed-chat/internal/client"
	"github.com/chatwire/framed-chat/pkg/protocol"
)

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

	fmt.Printf("Connected to %s\n", conn.RemoteAddr())
	fmt.Println("Welcome! Authenticate with /auth <user> <pass>; /quit to exit.")

	// Render incoming traffic while the command loop owns stdin.
	go func() {
		for msg := range c.Messages() {
			fmt.Println(client.Render(msg))
		}
		fmt.Println("Disconnected from server")
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		msg, dispatch, err := client.ParseInput(scanner.Text(), c.Username())
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		switch dispatch {
		case client.DispatchNone:
			continue
		case client.DispatchQuit:
			return
		case client.DispatchSend:
			if err := send(c, msg); err != nil {
				log.Printf("Failed to send message: %v", err)
				return
			}
		}
	}
	if err := scanner.Err(); err != nil {
		log.Printf("Error reading input: %v", err)
	}
}

// send routes auth attempts through Authenticate so the client remembers
// the username for later attribution.
func send(c *client.Client, msg protocol.Message) error {
	if msg.Type == protocol.TypeAuth {
		return c.Authenticate(msg.User, msg.Pass)
	}
	return c.Send(msg)
}
