// Package streamid derives stable numeric identifiers for named streams,
// so callers can key a map of (buffer, State) pairs by a cheap uint64
// instead of carrying the original string around.
package streamid

import "github.com/coldbrew-labs/tszgorilla/internal/hash"

// ID is a stream identifier derived from a name via xxHash64. Two equal
// names always produce the same ID; collisions are possible but rare
// enough that most callers can treat distinct names as distinct IDs.
type ID uint64

// From computes the ID for the given stream name.
func From(name string) ID {
	return ID(hash.ID(name))
}
