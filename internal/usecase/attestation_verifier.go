package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"sc3/internal/domain"
)

// AttestationVerifier checks execution attestations: type allow-set,
// security version floor, expiry, memory safety and (when configured)
// external collateral verification.
type AttestationVerifier struct {
	policy     domain.Policy
	collateral CollateralVerifier
	clock      func() time.Time
	log        logrus.FieldLogger
}

func NewAttestationVerifier(policy domain.Policy, collateral CollateralVerifier, clock func() time.Time, log logrus.FieldLogger) *AttestationVerifier {
	if clock == nil {
		clock = time.Now
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AttestationVerifier{
		policy:     policy,
		collateral: collateral,
		clock:      clock,
		log:        log,
	}
}

func (v *AttestationVerifier) VerifyAttestations(ctx context.Context, execs []domain.ExecutionAttestation) domain.AttestationBatchResult {
	result := domain.AttestationBatchResult{
		FailedAttestations: []string{},
		Failures:           []domain.Failure{},
	}
	for _, exec := range execs {
		failures := v.verifyAttestation(ctx, exec)
		if len(failures) == 0 {
			result.AttestedCount++
		} else {
			result.FailedAttestations = append(result.FailedAttestations, exec.ID)
		}
		if exec.MemorySafety != nil && exec.MemorySafety.Safe() {
			result.MemorySafeCount++
		}
		result.Failures = append(result.Failures, failures...)
	}
	result.Passed = len(result.Failures) == 0
	v.log.WithFields(logrus.Fields{
		"attestations": len(execs),
		"attested":     result.AttestedCount,
		"passed":       result.Passed,
	}).Debug("attestation batch verified")
	return result
}

func (v *AttestationVerifier) verifyAttestation(ctx context.Context, exec domain.ExecutionAttestation) []domain.Failure {
	var failures []domain.Failure

	// With RequireAttestation the execution must carry hardware-rooted
	// evidence; without it a software-only or quoteless record is
	// tolerated and only the remaining checks apply.
	if v.policy.RequireAttestation {
		if exec.Type == domain.AttestationSoftware || exec.Quote == "" {
			failures = append(failures, domain.NewFailure(domain.CategoryExecution, domain.CodeAttestationRequired,
				fmt.Sprintf("attestation %s carries no hardware-rooted evidence (type %s)", exec.ID, exec.Type), exec.ID))
		}
	}

	if !v.policy.AttestationTypeAllowed(exec.Type) {
		failures = append(failures, domain.NewFailure(domain.CategoryExecution, domain.CodeAttestationTypeNotAllowed,
			fmt.Sprintf("attestation %s has type %s, which the policy does not allow", exec.ID, exec.Type), exec.ID))
	}

	if exec.SecurityVersion < v.policy.MinSecurityVersion {
		failures = append(failures, domain.NewFailure(domain.CategoryExecution, domain.CodeSVNBelowFloor,
			fmt.Sprintf("attestation %s reports security version %d, policy floor is %d",
				exec.ID, exec.SecurityVersion, v.policy.MinSecurityVersion), exec.ID).
			WithDetails(map[string]any{"security_version": exec.SecurityVersion, "floor": v.policy.MinSecurityVersion}))
	}

	if exec.Expired(v.clock()) {
		failures = append(failures, domain.NewFailure(domain.CategoryExecution, domain.CodeAttestationExpired,
			fmt.Sprintf("attestation %s expired at %s", exec.ID, exec.ExpiresAt.UTC().Format(time.RFC3339)), exec.ID))
	}

	if v.policy.RequireMemorySafety {
		if exec.MemorySafety == nil || !exec.MemorySafety.Safe() {
			failures = append(failures, domain.NewFailure(domain.CategoryExecution, domain.CodeMemoryUnsafe,
				fmt.Sprintf("attestation %s lacks a passing memory safety result", exec.ID), exec.ID))
		}
	}

	// Collateral verification is advisory infrastructure: an unreachable
	// verifier flags the attestation without inventing a hardware fault.
	if v.collateral != nil && len(exec.Collateral) > 0 {
		if err := v.collateral.VerifyCollateral(ctx, exec); err != nil {
			v.log.WithError(err).WithField("attestation", exec.ID).Warn("collateral verification failed")
			failures = append(failures, domain.NewFailure(domain.CategoryExecution, domain.CodeCollateralUnverified,
				fmt.Sprintf("attestation %s collateral could not be verified: %v", exec.ID, err), exec.ID))
		}
	}

	return failures
}
