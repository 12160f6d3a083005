// Package session persists per-browser-session values behind a TTL.
package session

import (
	"context"
	"errors"
	"strings"
)

const (
	EntryCart     = "cart"
	EntryWishlist = "wishlist"
)

// ErrNotFound is returned by Load when nothing is stored or the entry expired.
var ErrNotFound = errors.New("session entry not found")

// Store keeps opaque payloads per (session, entry). Every access slides the
// entry's idle expiry forward.
type Store interface {
	Load(ctx context.Context, sessionID, entry string) ([]byte, error)
	Save(ctx context.Context, sessionID, entry string, payload []byte) error
	Delete(ctx context.Context, sessionID, entry string) error
	Ping(ctx context.Context) error
}

func validKey(sessionID, entry string) error {
	if strings.TrimSpace(sessionID) == "" {
		return errors.New("session id is required")
	}
	if strings.TrimSpace(entry) == "" {
		return errors.New("session entry is required")
	}
	return nil
}
