package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/chatwire/framed-chat/internal/auth"
	"github.com/chatwire/framed-chat/internal/chat"
	"github.com/chatwire/framed-chat/internal/config"
	"github.com/chatwire/framed-chat/internal/transport/tcp"
	"github.com/chatwire/framed-chat/internal/transport/ws"
)

type stoppable interface {
	Start() error
	Stop()
}

func main() {
	cfg := config.FromEnv()

	ports := flag.String("ports", "", "Comma-separated TCP listen ports (e.g. 9000,9001)")
	wsAddr := flag.String("ws", cfg.WSAddr, "Optional WebSocket listen port")
	credsPath := flag.String("users", cfg.CredsPath, "Optional user:pass credential file")
	flag.Parse()

	if *ports != "" {
		cfg.Ports = config.ParsePorts(*ports)
	}
	// Bare positional ports are accepted too: server 9000 9001
	if args := flag.Args(); len(args) > 0 {
		cfg.Ports = cfg.Ports[:0]
		for _, arg := range args {
			cfg.Ports = append(cfg.Ports, config.NormalizeAddr(arg))
		}
	}
	cfg.WSAddr = *wsAddr
	cfg.CredsPath = *credsPath

	store := auth.Store(auth.Default())
	if cfg.CredsPath != "" {
		loaded, err := auth.LoadFile(cfg.CredsPath)
		if err != nil {
			log.Fatalf("Failed to load credentials: %v", err)
		}
		store = loaded
	}

	// One room per process, shared by every listener.
	room := chat.NewRoom()

	var servers []stoppable
	for _, addr := range cfg.Ports {
		servers = append(servers, tcp.New(addr, room, store))
	}
	if cfg.WSAddr != "" {
		servers = append(servers, ws.New(cfg.WSAddr, room, store))
	}

	errChan := make(chan error, len(servers))
	for _, srv := range servers {
		srv := srv
		go func() {
			errChan <- srv.Start()
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down...", sig)
	}

	for _, srv := range servers {
		srv.Stop()
	}
	log.Println("Server stopped")
}
