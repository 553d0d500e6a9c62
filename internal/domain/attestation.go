package domain

import "time"

type AttestationType string

const (
	AttestationSGX       AttestationType = "SGX"
	AttestationSEV       AttestationType = "SEV"
	AttestationTrustZone AttestationType = "TRUSTZONE"
	AttestationNitro     AttestationType = "NITRO"
	AttestationSoftware  AttestationType = "SOFTWARE"
)

// KnownAttestationTypes lists every type the engine understands.
var KnownAttestationTypes = []AttestationType{
	AttestationSGX,
	AttestationSEV,
	AttestationTrustZone,
	AttestationNitro,
	AttestationSoftware,
}

// MemorySafetyResult aggregates the memory-safety evidence for an
// execution. Safe() is the conjunction of all four sub-checks.
type MemorySafetyResult struct {
	LanguageSafe         bool `json:"language_safe"`
	StaticAnalysisPassed bool `json:"static_analysis_passed"`
	BoundsChecked        bool `json:"bounds_checked"`
	SanitizersPassed     bool `json:"sanitizers_passed"`
}

func (m MemorySafetyResult) Safe() bool {
	return m.LanguageSafe && m.StaticAnalysisPassed && m.BoundsChecked && m.SanitizersPassed
}

// ExecutionAttestation is hardware- or software-rooted proof that code
// ran unmodified in an isolated environment.
type ExecutionAttestation struct {
	ID              string              `json:"id"`
	Type            AttestationType     `json:"type"`
	Measurement     string              `json:"measurement"`
	SignerID        string              `json:"signer_id"`
	SecurityVersion uint32              `json:"security_version"`
	Quote           string              `json:"quote"`
	QuoteSignature  string              `json:"quote_signature"`
	Collateral      map[string]string   `json:"collateral,omitempty"`
	MemorySafety    *MemorySafetyResult `json:"memory_safety,omitempty"`
	AttestedAt      time.Time           `json:"attested_at"`
	ExpiresAt       time.Time           `json:"expires_at"`
}

func (e ExecutionAttestation) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}
