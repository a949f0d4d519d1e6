// Package auth provides credential verification for the chat server.
// Verification is a black-box lookup of username to secret; secrets are
// stored and compared in plain text.
package auth

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Store answers whether a username/secret pair is valid.
type Store interface {
	Verify(user, pass string) bool
}

// StaticStore verifies against a fixed in-memory table.
type StaticStore map[string]string

// Verify implements Store.
func (s StaticStore) Verify(user, pass string) bool {
	secret, ok := s[user]
	return ok && secret == pass
}

// Default returns the built-in single-user table used when no credential
// file is configured.
func Default() StaticStore {
	return StaticStore{"user": "pass"}
}

// LoadFile reads a credential file with one user:pass entry per line.
func LoadFile(path string) (StaticStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential file: %w", err)
	}
	defer f.Close()

	store, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return store, nil
}

// Parse reads user:pass entries from r, one per line. Blank lines and lines
// starting with '#' are skipped.
func Parse(r io.Reader) (StaticStore, error) {
	store := StaticStore{}
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		user, pass, ok := strings.Cut(text, ":")
		if !ok || user == "" {
			return nil, fmt.Errorf("line %d: want user:pass", line)
		}
		store[user] = pass
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return store, nil
}
