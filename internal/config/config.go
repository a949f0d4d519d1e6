// Package config resolves the server runtime configuration from defaults
// and environment variables.
package config

import (
	"os"
	"strings"
)

// Config holds the server settings.
type Config struct {
	// Ports are the TCP listen addresses, all feeding one shared room.
	Ports []string
	// WSAddr is the optional WebSocket listen address; empty disables it.
	WSAddr string
	// CredsPath is the optional user:pass credential file.
	CredsPath string
}

// Default returns the configuration used when nothing is specified.
func Default() Config {
	return Config{Ports: []string{":9000"}}
}

// FromEnv builds a Config from the environment, falling back to defaults:
// CHAT_PORTS (comma-separated), CHAT_WS_PORT, and CHAT_USERS.
func FromEnv() Config {
	cfg := Default()
	if ports := os.Getenv("CHAT_PORTS"); ports != "" {
		cfg.Ports = ParsePorts(ports)
	}
	if ws := os.Getenv("CHAT_WS_PORT"); ws != "" {
		cfg.WSAddr = NormalizeAddr(ws)
	}
	if creds := os.Getenv("CHAT_USERS"); creds != "" {
		cfg.CredsPath = creds
	}
	return cfg
}

// ParsePorts splits a comma-separated port list into listen addresses,
// skipping empty entries. An entirely empty list falls back to the default.
func ParsePorts(s string) []string {
	var ports []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ports = append(ports, NormalizeAddr(part))
	}
	if len(ports) == 0 {
		return Default().Ports
	}
	return ports
}

// NormalizeAddr accepts both bare ports ("9000") and listen addresses
// (":9000", "0.0.0.0:9000") and returns a listen address.
func NormalizeAddr(s string) string {
	if !strings.Contains(s, ":") {
		return ":" + s
	}
	return s
}
