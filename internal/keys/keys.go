// Package keys derives identifiers and row keys for graph tables.
package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidID is returned when an identifier is not a UUID in dashed or compact form.
var ErrInvalidID = errors.New("keys: invalid identifier")

// WorkspacesPartition is the single partition holding every workspace row.
const WorkspacesPartition = "workspaces"

// NewID mints a fresh identifier in compact form (32 lower-case hex digits).
func NewID() string {
	return Compact(uuid.New())
}

// Compact renders a UUID without separators.
func Compact(id uuid.UUID) string {
	return hex.EncodeToString(id[:])
}

// ParseID normalises a dashed or compact UUID string to compact form.
// The nil UUID and the empty string are reported as absent (ok=false, err=nil).
func ParseID(s string) (id string, ok bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false, nil
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return "", false, ErrInvalidID
	}
	if parsed == uuid.Nil {
		return "", false, nil
	}
	return Compact(parsed), true, nil
}

// WorkspaceRowKey returns the row key of a workspace row.
func WorkspaceRowKey(name string) string {
	return strings.ToLower(name)
}

// EntityKey computes the claim row key for an entity natural key (its name).
func EntityKey(name string) string {
	return naturalKey("entity", name)
}

// RelationKey computes the claim row key for a relation natural key.
func RelationKey(fromID, toID, relationType string) string {
	return naturalKey("relation", fromID, toID, relationType)
}

// naturalKey hashes the kind and parts into a fixed-length row key. Parts are
// separated by NUL so that no combination of values can collide by concatenation.
func naturalKey(kind string, parts ...string) string {
	data := kind + "\x00" + strings.Join(parts, "\x00")
	h := sha256.Sum256([]byte(data))
	return hex.EncodeToString(h[:16]) // 128-bit hash as hex
}
