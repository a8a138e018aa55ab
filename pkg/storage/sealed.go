package storage

import (
	"context"
	"fmt"
	"time"
)

// Cipher seals values before they reach a backend.
type Cipher interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

// SealedStore encrypts values on the way into inner and decrypts them on
// the way out. Keys stay in the clear.
type SealedStore struct {
	inner  Store
	cipher Cipher
}

func NewSealedStore(inner Store, cipher Cipher) *SealedStore {
	return &SealedStore{inner: inner, cipher: cipher}
}

// Get reports an entry that cannot be opened as ErrUnreadable.
func (s *SealedStore) Get(ctx context.Context, key string) (string, bool, error) {
	sealed, ok, err := s.inner.Get(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}
	value, err := s.cipher.Open(sealed)
	if err != nil {
		return "", false, fmt.Errorf("%w: open %s: %v", ErrUnreadable, key, err)
	}
	return value, true, nil
}

func (s *SealedStore) SetMany(ctx context.Context, entries map[string]string, ttl time.Duration) error {
	sealed := make(map[string]string, len(entries))
	for k, v := range entries {
		ct, err := s.cipher.Seal(v)
		if err != nil {
			return fmt.Errorf("seal %s: %w", k, err)
		}
		sealed[k] = ct
	}
	return s.inner.SetMany(ctx, sealed, ttl)
}

func (s *SealedStore) Delete(ctx context.Context, keys ...string) error {
	return s.inner.Delete(ctx, keys...)
}

func (s *SealedStore) Close() error {
	return s.inner.Close()
}
