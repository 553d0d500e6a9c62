package domain

import "time"

// GenesisHash is the fixed previous-hash sentinel for the first entry of
// every chain, and the Merkle root of an empty entry set.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

type LogEntryType string

const (
	LogEntryArtifact    LogEntryType = "ARTIFACT"
	LogEntryBuild       LogEntryType = "BUILD"
	LogEntryAttestation LogEntryType = "ATTESTATION"
	LogEntryGeneric     LogEntryType = "GENERIC"
)

// ImmutableLogEntry is one element of a hash chain. Entries are immutable
// once appended; DataHash covers {type, artifact_hash, build_id, payload}
// and PreviousHash is the chain hash of the preceding entry (GenesisHash
// for sequence 0).
type ImmutableLogEntry struct {
	Sequence     int64          `json:"sequence"`
	Timestamp    time.Time      `json:"timestamp"`
	Type         LogEntryType   `json:"type"`
	ArtifactHash string         `json:"artifact_hash,omitempty"`
	BuildID      string         `json:"build_id,omitempty"`
	DataHash     string         `json:"data_hash"`
	PreviousHash string         `json:"previous_hash"`
	Payload      map[string]any `json:"payload,omitempty"`
	Signature    *Signature     `json:"signature,omitempty"`
}

// ImmutableLog is an append-only, hash-chained audit log. A sealed log
// permanently rejects further appends.
type ImmutableLog struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Entries     []ImmutableLogEntry `json:"entries"`
	HeadHash    string              `json:"head_hash"`
	CreatedAt   time.Time           `json:"created_at"`
	LastEntryAt time.Time           `json:"last_entry_at,omitempty"`
	EntryCount  int64               `json:"entry_count"`
	Sealed      bool                `json:"sealed"`
}
