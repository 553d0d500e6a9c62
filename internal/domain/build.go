package domain

import "time"

type BuildStatus string

const (
	BuildStatusPending  BuildStatus = "PENDING"
	BuildStatusVerified BuildStatus = "VERIFIED"
	BuildStatusFailed   BuildStatus = "FAILED"
	BuildStatusTampered BuildStatus = "TAMPERED"
)

// BuildEnvironment captures the identity-relevant properties of the
// environment a build ran in. Everything here participates in the build's
// canonical hash; timestamps deliberately do not.
type BuildEnvironment struct {
	OS              string `json:"os"`
	Arch            string `json:"arch"`
	CompilerVersion string `json:"compiler_version"`
	EnvHash         string `json:"env_hash"`
	ContainerDigest string `json:"container_digest,omitempty"`
	Hermetic        bool   `json:"hermetic"`
}

// Build is one recorded build of the supply chain. Inputs are read-only
// to the engine: verifiers never mutate a Build.
type Build struct {
	ID            string                 `json:"id"`
	Timestamp     time.Time              `json:"timestamp"`
	Hash          string                 `json:"hash"`
	CanonicalHash string                 `json:"canonical_hash,omitempty"`
	Level         int                    `json:"level"`
	SourceRepo    string                 `json:"source_repo"`
	SourceCommit  string                 `json:"source_commit"`
	ConfigHash    string                 `json:"config_hash"`
	BuilderID     string                 `json:"builder_id"`
	Environment   BuildEnvironment       `json:"environment"`
	Provenance    *ProvenanceAttestation `json:"provenance,omitempty"`
	Status        BuildStatus            `json:"status"`
}
