// Package storagetest provides stores for tests of packages that persist
// through storage.KV.
package storagetest

import (
	"errors"
	"testing"

	"weekplan/internal/storage"
)

// New returns a fresh in-memory SQLite store closed at test cleanup.
func New(t *testing.T) *storage.SQLite {
	t.Helper()

	kv, err := storage.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

var ErrBroken = errors.New("store unavailable")

// Broken fails every operation, like a corrupt or full store.
type Broken struct{}

func (Broken) Get(string) ([]byte, error) { return nil, ErrBroken }
func (Broken) Put(string, []byte) error   { return ErrBroken }
func (Broken) Delete(string) error        { return ErrBroken }
func (Broken) Close() error               { return nil }

// Corrupt returns kv with an undecodable value under key.
func Corrupt(t *testing.T, kv storage.KV, key string) {
	t.Helper()
	if err := kv.Put(key, []byte("{not json")); err != nil {
		t.Fatalf("failed to corrupt %s: %v", key, err)
	}
}
