// Package storage owns the persistent key/value store and the two result
// policies used on top of it.
//
// Strict callers get every failure back as an *Error. Lenient callers
// (the task store, the import engine's own bookkeeping, preferences) log
// the failure and carry on with an empty value or a dropped write.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	appLog "weekplan/internal/log"
)

// Persisted keys.
const (
	KeyWeeklyAgenda   = "weekly-agenda-data"
	KeyTemplates      = "task-templates"
	KeySources        = "ical-sources"
	KeyImportedTasks  = "ical-tasks"
	KeyExportSettings = "export-settings"
	KeyVerseSettings  = "bible-verse-settings"
)

// FeedCacheKey holds the HTTP validators and last body of one feed.
func FeedCacheKey(sourceID string) string {
	return "ical-cache:" + sourceID
}

var ErrNotFound = errors.New("key not found")

// KV is a string-keyed store of opaque values.
type KV interface {
	Get(key string) ([]byte, error) // ErrNotFound when absent
	Put(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// Error reports which operation on which key failed.
type Error struct {
	Op  string // read | write | decode | encode | delete
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Read loads and decodes key. A missing key is an *Error wrapping
// ErrNotFound.
func Read[T any](kv KV, key string) (T, error) {
	var v T
	raw, err := kv.Get(key)
	if err != nil {
		return v, &Error{Op: "read", Key: key, Err: err}
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero, &Error{Op: "decode", Key: key, Err: err}
	}
	return v, nil
}

// Write encodes v and stores it under key.
func Write[T any](kv KV, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return &Error{Op: "encode", Key: key, Err: err}
	}
	if err := kv.Put(key, raw); err != nil {
		return &Error{Op: "write", Key: key, Err: err}
	}
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func Remove(kv KV, key string) error {
	if err := kv.Delete(key); err != nil && !errors.Is(err, ErrNotFound) {
		return &Error{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// ReadOrEmpty is the lenient form of Read: any failure other than a
// missing key is logged, and the zero value is returned either way.
func ReadOrEmpty[T any](kv KV, key string) T {
	v, err := Read[T](kv, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			appLog.Error("storage read degraded to empty", err, "key", key)
		}
		var zero T
		return zero
	}
	return v
}

// WriteOrDrop is the lenient form of Write: a failed write is logged and
// dropped.
func WriteOrDrop[T any](kv KV, key string, v T) {
	if err := Write(kv, key, v); err != nil {
		appLog.Error("storage write dropped", err, "key", key)
	}
}

// RemoveOrDrop is the lenient form of Remove.
func RemoveOrDrop(kv KV, key string) {
	if err := Remove(kv, key); err != nil {
		appLog.Error("storage delete dropped", err, "key", key)
	}
}
