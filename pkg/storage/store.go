// Package storage is the durable, expiring key-value capability that backs
// the agent session. Writers that touch more than one key go through SetMany
// or a multi-key Delete so backends can apply them as one unit.
package storage

import (
	"context"
	"errors"
	"time"
)

const (
	KeyAuthToken = "auth_token"
	KeyUser      = "user"

	DefaultTTL = 7 * 24 * time.Hour
)

// SessionKeys are written and cleared together.
var SessionKeys = []string{KeyAuthToken, KeyUser}

var (
	ErrClosed = errors.New("session storage is closed")
	// ErrUnreadable marks an entry that exists but cannot be decoded.
	ErrUnreadable = errors.New("stored value cannot be read")
)

type Store interface {
	// Get returns the value stored under key. A missing or expired entry is
	// reported as ok == false with a nil error.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// SetMany stores every entry with the same ttl as one write.
	SetMany(ctx context.Context, entries map[string]string, ttl time.Duration) error
	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// ClearSession removes both halves of the session pair.
func ClearSession(ctx context.Context, s Store) error {
	return s.Delete(ctx, SessionKeys...)
}

// SaveSession writes the token and the serialized user as one unit.
func SaveSession(ctx context.Context, s Store, token, user string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return s.SetMany(ctx, map[string]string{
		KeyAuthToken: token,
		KeyUser:      user,
	}, ttl)
}
