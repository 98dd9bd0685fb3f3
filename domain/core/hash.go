package core

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// CuboidHash identifies a materialized aggregation: the sorted dimension set plus
// the ordered measure references it was aggregated with.
type CuboidHash Hash

// NewCuboidHash hashes a dimension set (order-insensitive) and a measure list (order-sensitive).
func NewCuboidHash(dimensions []string, measures []string) CuboidHash {
	dims := make([]string, len(dimensions))
	copy(dims, dimensions)
	sort.Strings(dims)

	var b strings.Builder
	b.WriteString(strings.Join(dims, "\x1f"))
	b.WriteByte('\x1e')
	b.WriteString(strings.Join(measures, "\x1f"))
	return CuboidHash(NewHash([]byte(b.String())))
}

func (h CuboidHash) String() string { return Hash(h).String() }
