package usecase

import (
	"fmt"
	"strings"
	"time"

	"sc3/internal/domain"
)

// Report renders a verification result as a fixed-section plain text
// report. Output is deterministic for a given result.
func Report(result domain.VerificationResult) string {
	var b strings.Builder

	verdict := "FAILED"
	if result.Passed {
		verdict = "PASSED"
	}
	fmt.Fprintf(&b, "Supply Chain Compliance Report\n")
	fmt.Fprintf(&b, "==============================\n")
	fmt.Fprintf(&b, "Verification: %s\n", result.ID)
	fmt.Fprintf(&b, "Verdict:      %s\n", verdict)
	fmt.Fprintf(&b, "Verified at:  %s\n", result.VerifiedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Time bound:   %s\n", result.TimeBound.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Threshold:    %s\n", result.SeverityThreshold)

	fmt.Fprintf(&b, "\nBuilds\n------\n")
	fmt.Fprintf(&b, "passed=%t canonical_hash_valid=%d level_compliant=%d failures=%d\n",
		result.Builds.Passed, result.Builds.CanonicalHashValid, result.Builds.LevelCompliant, len(result.Builds.Failures))

	fmt.Fprintf(&b, "\nDependencies\n------------\n")
	fmt.Fprintf(&b, "passed=%t signed=%d cve_violations=%d unsigned=%d failures=%d\n",
		result.Dependencies.Passed, result.Dependencies.SignedCount,
		len(result.Dependencies.CVEViolations), len(result.Dependencies.UnsignedDependencies),
		len(result.Dependencies.Failures))
	for _, coordinate := range result.Dependencies.UnsignedDependencies {
		fmt.Fprintf(&b, "  unsigned: %s\n", coordinate)
	}

	fmt.Fprintf(&b, "\nExecutions\n----------\n")
	fmt.Fprintf(&b, "passed=%t attested=%d memory_safe=%d failed=%d failures=%d\n",
		result.Executions.Passed, result.Executions.AttestedCount, result.Executions.MemorySafeCount,
		len(result.Executions.FailedAttestations), len(result.Executions.Failures))

	fmt.Fprintf(&b, "\nArtifacts\n---------\n")
	fmt.Fprintf(&b, "passed=%t failures=%d\n", result.Artifacts.Passed, len(result.Artifacts.Failures))

	fmt.Fprintf(&b, "\nImmutable Log\n-------------\n")
	fmt.Fprintf(&b, "passed=%t log=%s chain=%t containment=%t time_bound=%t signatures=%t\n",
		result.Log.Passed, orDash(result.Log.LogID), result.Log.ChainIntact,
		result.Log.ContainmentMet, result.Log.WithinTimeBound, result.Log.SignaturesValid)

	fmt.Fprintf(&b, "\nFailures (%d)\n------------\n", len(result.Failures))
	if len(result.Failures) == 0 {
		fmt.Fprintf(&b, "none\n")
	}
	for _, failure := range result.Failures {
		fmt.Fprintf(&b, "[%s] %s %s: %s\n", failure.Category, failure.Code, orDash(failure.EntityID), failure.Message)
	}

	return b.String()
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
