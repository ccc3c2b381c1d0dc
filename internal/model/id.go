package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ImportedPrefix is reserved for composite ids of imported tasks.
const ImportedPrefix = "ical-"

var ErrNotImportedID = errors.New("not an imported task id")

// EncodeImportedID builds "ical-<sourceID>-<eventID>".
func EncodeImportedID(sourceID, eventID string) string {
	return ImportedPrefix + sourceID + "-" + eventID
}

// DecodeImportedID splits a composite id at the first hyphen after the
// prefix. Source ids never contain hyphens; event ids may.
func DecodeImportedID(id string) (sourceID, eventID string, err error) {
	rest, ok := strings.CutPrefix(id, ImportedPrefix)
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrNotImportedID, id)
	}
	sourceID, eventID, ok = strings.Cut(rest, "-")
	if !ok || sourceID == "" || eventID == "" {
		return "", "", fmt.Errorf("%w: %q", ErrNotImportedID, id)
	}
	return sourceID, eventID, nil
}

// IsImportedID reports whether id lives in the reserved namespace.
func IsImportedID(id string) bool {
	return strings.HasPrefix(id, ImportedPrefix)
}

// NewID returns a fresh identifier for tasks and templates. uuid strings
// are hex and hyphens, so they can never start with "ical-".
func NewID() string {
	return uuid.NewString()
}

// NewSourceID returns a hyphen-free identifier, keeping composite ids
// unambiguous.
func NewSourceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
