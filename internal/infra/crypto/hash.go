package crypto

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"time"

	"sc3/internal/domain"
)

const (
	AlgSHA256 = "sha256"
	AlgSHA512 = "sha512"
)

// CanonicalHash canonicalizes a record and digests it with the named
// algorithm (sha256 by default). Field order of the input never affects
// the output.
func CanonicalHash(record any, algorithm string) (string, error) {
	canonical, err := Canonicalize(record)
	if err != nil {
		return "", err
	}
	switch algorithm {
	case "", AlgSHA256:
		return sha256Hex(canonical), nil
	case AlgSHA512:
		sum := sha512.Sum512(canonical)
		return hex.EncodeToString(sum[:]), nil
	default:
		return "", fmt.Errorf("unsupported hash algorithm: %s", algorithm)
	}
}

// buildIdentity is the canonical projection of a build. It carries only
// what makes two builds "the same build": source coordinates, builder,
// config and the identity-relevant environment fields. Timestamps and
// status are excluded so the hash reflects build identity, not instant.
type buildIdentity struct {
	BuilderID    string           `json:"builder_id"`
	ConfigHash   string           `json:"config_hash"`
	Environment  buildEnvIdentity `json:"environment"`
	SourceCommit string           `json:"source_commit"`
	SourceRepo   string           `json:"source_repo"`
}

type buildEnvIdentity struct {
	Arch            string `json:"arch"`
	CompilerVersion string `json:"compiler_version"`
	ContainerDigest string `json:"container_digest"`
	EnvHash         string `json:"env_hash"`
	Hermetic        bool   `json:"hermetic"`
	OS              string `json:"os"`
}

// BuildCanonicalHash computes the reproducibility hash of a build.
func BuildCanonicalHash(b domain.Build) (string, error) {
	return CanonicalHash(buildIdentity{
		BuilderID:    b.BuilderID,
		ConfigHash:   b.ConfigHash,
		SourceCommit: b.SourceCommit,
		SourceRepo:   b.SourceRepo,
		Environment: buildEnvIdentity{
			Arch:            b.Environment.Arch,
			CompilerVersion: b.Environment.CompilerVersion,
			ContainerDigest: b.Environment.ContainerDigest,
			EnvHash:         b.Environment.EnvHash,
			Hermetic:        b.Environment.Hermetic,
			OS:              b.Environment.OS,
		},
	}, AlgSHA256)
}

// DependencyRecordDigest is the canonical byte string a dependency
// signature covers: {hash, name, registry, version}.
func DependencyRecordDigest(d domain.Dependency) ([]byte, error) {
	return Canonicalize(map[string]any{
		"hash":     d.Hash,
		"name":     d.Name,
		"registry": d.Registry,
		"version":  d.Version,
	})
}

// EntryDataHash digests the mutable content of a log entry:
// {artifact_hash, build_id, payload, type}.
func EntryDataHash(entryType domain.LogEntryType, artifactHash, buildID string, payload map[string]any) (string, error) {
	canonical, err := Canonicalize(map[string]any{
		"artifact_hash": artifactHash,
		"build_id":      buildID,
		"payload":       payload,
		"type":          string(entryType),
	})
	if err != nil {
		return "", err
	}
	return sha256Hex(canonical), nil
}

// EntryChainHash is the link value of the hash chain: a digest over the
// entry's position, recorded data hash and predecessor link.
func EntryChainHash(e domain.ImmutableLogEntry) (string, error) {
	canonical, err := Canonicalize(map[string]any{
		"artifact_hash": e.ArtifactHash,
		"build_id":      e.BuildID,
		"data_hash":     e.DataHash,
		"previous_hash": e.PreviousHash,
		"sequence":      e.Sequence,
		"timestamp":     e.Timestamp.UTC().Format(time.RFC3339Nano),
		"type":          string(e.Type),
	})
	if err != nil {
		return "", err
	}
	return sha256Hex(canonical), nil
}

// EntrySigningPayload is the byte string a log entry signature covers.
func EntrySigningPayload(logID, dataHash, previousHash string) []byte {
	return []byte(logID + ":" + dataHash + ":" + previousHash)
}

func sha256Hex(input []byte) string {
	sum := sha256.Sum256(input)
	return hex.EncodeToString(sum[:])
}

// SHA256Hex exposes the plain content digest used for artifact hashes.
func SHA256Hex(input []byte) string {
	return sha256Hex(input)
}
