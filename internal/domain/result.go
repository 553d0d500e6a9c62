package domain

import "time"

// Bundle is the input a verification runs over, supplied wholesale by the
// calling pipeline.
type Bundle struct {
	Builds       []Build                `json:"builds,omitempty"`
	Dependencies []Dependency           `json:"dependencies,omitempty"`
	Executions   []ExecutionAttestation `json:"executions,omitempty"`
	Artifacts    []Artifact             `json:"artifacts,omitempty"`
	Logs         []ImmutableLog         `json:"logs,omitempty"`
}

// BuildBatchResult carries the two counters alongside the failure list.
// Batch "passed" requires the failure list to be empty AND both counters
// to equal the batch size.
type BuildBatchResult struct {
	Passed             bool      `json:"passed"`
	CanonicalHashValid int       `json:"canonical_hash_valid"`
	LevelCompliant     int       `json:"level_compliant"`
	Failures           []Failure `json:"failures"`
}

type DependencyScanResult struct {
	Passed               bool      `json:"passed"`
	SignedCount          int       `json:"signed_count"`
	CVEViolations        []Failure `json:"cve_violations"`
	UnsignedDependencies []string  `json:"unsigned_dependencies"`
	Failures             []Failure `json:"failures"`
}

type AttestationBatchResult struct {
	Passed             bool      `json:"passed"`
	AttestedCount      int       `json:"attested_count"`
	MemorySafeCount    int       `json:"memory_safe_count"`
	FailedAttestations []string  `json:"failed_attestations"`
	Failures           []Failure `json:"failures"`
}

type ArtifactBatchResult struct {
	Passed   bool      `json:"passed"`
	Failures []Failure `json:"failures"`
}

// LogVerification is the outcome of checking one candidate log (or, in an
// aggregate result, the selected log).
type LogVerification struct {
	Passed          bool      `json:"passed"`
	LogID           string    `json:"log_id,omitempty"`
	ChainIntact     bool      `json:"chain_intact"`
	ContainmentMet  bool      `json:"containment_met"`
	WithinTimeBound bool      `json:"within_time_bound"`
	SignaturesValid bool      `json:"signatures_valid"`
	Failures        []Failure `json:"failures"`
}

// VerificationResult is the aggregated pass/fail decision. Passed is true
// iff the flat Failures list is empty.
type VerificationResult struct {
	ID                string                 `json:"id"`
	Passed            bool                   `json:"passed"`
	VerifiedAt        time.Time              `json:"verified_at"`
	TimeBound         time.Time              `json:"time_bound"`
	SeverityThreshold Severity               `json:"severity_threshold"`
	Builds            BuildBatchResult       `json:"builds"`
	Dependencies      DependencyScanResult   `json:"dependencies"`
	Executions        AttestationBatchResult `json:"executions"`
	Artifacts         ArtifactBatchResult    `json:"artifacts"`
	Log               LogVerification        `json:"log"`
	Failures          []Failure              `json:"failures"`
}
