package domain

// FailureCategory is the closed set of verifier categories a failure can
// belong to.
type FailureCategory string

const (
	CategoryBuild      FailureCategory = "BUILD"
	CategoryDependency FailureCategory = "DEPENDENCY"
	CategoryExecution  FailureCategory = "EXECUTION"
	CategoryArtifact   FailureCategory = "ARTIFACT"
	CategoryLog        FailureCategory = "LOG"
)

// Stable machine-readable failure codes. Callers route on these; renaming
// one is a breaking change.
const (
	CodeHashMismatch          = "HASH_MISMATCH"
	CodeLevelInsufficient     = "SLSA_LEVEL_INSUFFICIENT"
	CodeUntrustedBuilder      = "UNTRUSTED_BUILDER"
	CodeBuildNotHermetic      = "BUILD_NOT_HERMETIC"
	CodeTimestampOutOfBound   = "TIMESTAMP_OUT_OF_BOUND"
	CodeProvenanceIncomplete  = "PROVENANCE_INCOMPLETE"
	CodeBuildNotVerified      = "BUILD_NOT_VERIFIED"

	CodeUnsignedDependency   = "UNSIGNED_DEPENDENCY"
	CodeUnknownKey           = "UNKNOWN_KEY"
	CodeKeyExpired           = "KEY_EXPIRED"
	CodeSignatureInvalid     = "SIGNATURE_INVALID"
	CodeCVEThresholdExceeded = "CVE_THRESHOLD_EXCEEDED"
	CodeLicenseNotAllowed    = "LICENSE_NOT_ALLOWED"
	CodeScanDegraded         = "SCAN_DEGRADED"

	CodeAttestationTypeNotAllowed = "ATTESTATION_TYPE_NOT_ALLOWED"
	CodeAttestationRequired       = "ATTESTATION_REQUIRED"
	CodeAttestationExpired        = "ATTESTATION_EXPIRED"
	CodeSVNBelowFloor             = "SVN_BELOW_FLOOR"
	CodeMemoryUnsafe              = "MEMORY_UNSAFE"
	CodeCollateralUnverified      = "COLLATERAL_UNVERIFIED"

	CodeProvenanceMissing          = "PROVENANCE_MISSING"
	CodeProvenanceSignatureInvalid = "PROVENANCE_SIGNATURE_INVALID"
	CodeSubjectDigestMismatch      = "SUBJECT_DIGEST_MISMATCH"
	CodeMaterialsInvalid           = "MATERIALS_INVALID"
	CodeArtifactSignatureInvalid   = "ARTIFACT_SIGNATURE_INVALID"
	CodeNotReproducible            = "NOT_REPRODUCIBLE"

	CodeChainIntegrityFailed   = "CHAIN_INTEGRITY_FAILED"
	CodeLogContainmentFailed   = "LOG_CONTAINMENT_FAILED"
	CodeLogTimestampOutOfBound = "LOG_TIMESTAMP_OUT_OF_BOUND"
	CodeLogSignatureInvalid    = "LOG_SIGNATURE_INVALID"
	CodeNoLogsProvided         = "NO_LOGS_PROVIDED"
	CodeNoSatisfyingLog        = "NO_SATISFYING_LOG"
)

// Failure is one policy violation. Violations are data, never errors: the
// engine completes every batch and reports all of them.
type Failure struct {
	Category         FailureCategory `json:"category"`
	Code             string          `json:"code"`
	Message          string          `json:"message"`
	MessageLocalized string          `json:"message_localized,omitempty"`
	EntityID         string          `json:"entity_id,omitempty"`
	Details          map[string]any  `json:"details,omitempty"`
}

// NewFailure builds a failure with the localized message resolved from
// the catalog.
func NewFailure(category FailureCategory, code, message, entityID string) Failure {
	return Failure{
		Category:         category,
		Code:             code,
		Message:          message,
		MessageLocalized: LocalizedMessage(code),
		EntityID:         entityID,
	}
}

func (f Failure) WithDetails(details map[string]any) Failure {
	f.Details = details
	return f
}
