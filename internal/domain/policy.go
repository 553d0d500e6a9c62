package domain

// Policy is the compliance configuration a verification runs under. It is
// read per call and never persisted or mutated by the engine.
type Policy struct {
	SeverityThreshold          Severity `json:"severity_threshold" yaml:"severity_threshold"`
	MinLevel                   int      `json:"min_level" yaml:"min_level"`
	RequireSignedDeps          bool     `json:"require_signed_deps" yaml:"require_signed_deps"`
	RequireAttestation         bool     `json:"require_attestation" yaml:"require_attestation"`
	RequireMemorySafety        bool     `json:"require_memory_safety" yaml:"require_memory_safety"`
	RequireHermetic            bool     `json:"require_hermetic" yaml:"require_hermetic"`
	RequireReproducible        bool     `json:"require_reproducible" yaml:"require_reproducible"`
	RequireProvenanceSignature bool     `json:"require_provenance_signature" yaml:"require_provenance_signature"`

	AllowedAttestationTypes []AttestationType `json:"allowed_attestation_types,omitempty" yaml:"allowed_attestation_types"`
	MinSecurityVersion      uint32            `json:"min_security_version" yaml:"min_security_version"`

	TrustedBuilders []string     `json:"trusted_builders" yaml:"trusted_builders"`
	TrustedKeys     []TrustedKey `json:"trusted_keys" yaml:"trusted_keys"`
	AllowedLicenses []string     `json:"allowed_licenses,omitempty" yaml:"allowed_licenses"`

	// CVESource is an opaque reference to the external vulnerability
	// database; log retention is advisory only.
	CVESource        string `json:"cve_source,omitempty" yaml:"cve_source"`
	LogRetentionDays int    `json:"log_retention_days,omitempty" yaml:"log_retention_days"`
}

func (p Policy) BuilderTrusted(builderID string) bool {
	for _, trusted := range p.TrustedBuilders {
		if trusted == builderID {
			return true
		}
	}
	return false
}

// AttestationTypeAllowed treats an empty allow-set as "all known types".
func (p Policy) AttestationTypeAllowed(t AttestationType) bool {
	if len(p.AllowedAttestationTypes) == 0 {
		for _, known := range KnownAttestationTypes {
			if known == t {
				return true
			}
		}
		return false
	}
	for _, allowed := range p.AllowedAttestationTypes {
		if allowed == t {
			return true
		}
	}
	return false
}

func (p Policy) LicenseAllowed(license string) bool {
	if len(p.AllowedLicenses) == 0 {
		return true
	}
	for _, allowed := range p.AllowedLicenses {
		if allowed == license {
			return true
		}
	}
	return false
}
