// Package merkle computes batch-integrity roots over immutable log
// entries. The root is orthogonal to the sequential chain check: it
// changes iff any entry's data hash changes.
package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"sc3/internal/domain"
)

const HashHexLen = 64

var ErrInvalidHashLen = errors.New("invalid hash length")

// NodeHash folds two hex-encoded child hashes into their parent.
func NodeHash(left, right string) string {
	sum := sha256.Sum256([]byte(left + right))
	return hex.EncodeToString(sum[:])
}

// Root pairwise-folds the entries' data hashes level by level,
// duplicating the last element at odd-sized levels, until one root
// remains. The root of an empty entry set is the genesis hash.
func Root(entries []domain.ImmutableLogEntry) (string, error) {
	if len(entries) == 0 {
		return domain.GenesisHash, nil
	}
	level := make([]string, len(entries))
	for i, entry := range entries {
		if len(entry.DataHash) != HashHexLen {
			return "", ErrInvalidHashLen
		}
		level[i] = entry.DataHash
	}
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]string, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, NodeHash(level[i], level[i+1]))
		}
		level = next
	}
	return level[0], nil
}
