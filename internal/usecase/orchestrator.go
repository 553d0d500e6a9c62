package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"sc3/internal/domain"
)

// Orchestrator drives the five verifiers over a bundle and folds their
// results into one pass/fail decision.
type Orchestrator struct {
	policy       domain.Policy
	builds       *BuildVerifier
	dependencies *DependencyScanner
	attestations *AttestationVerifier
	artifacts    *ProvenanceVerifier
	logs         *LogVerifier
	clock        func() time.Time
	log          logrus.FieldLogger
}

func NewOrchestrator(policy domain.Policy, keyring *Keyring, source CVESource, cache CVECache, gate LicenseGate, collateral CollateralVerifier, clock func() time.Time, log logrus.FieldLogger) *Orchestrator {
	if clock == nil {
		clock = time.Now
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Orchestrator{
		policy:       policy,
		builds:       NewBuildVerifier(policy, log),
		dependencies: NewDependencyScanner(policy, keyring, source, cache, gate, clock, log),
		attestations: NewAttestationVerifier(policy, collateral, clock, log),
		artifacts:    NewProvenanceVerifier(policy, keyring, log),
		logs:         NewLogVerifier(keyring, log),
		clock:        clock,
		log:          log,
	}
}

// Verify runs the full pipeline. thresholdOverride, when non-nil,
// replaces the policy's severity threshold for this call only. Passed
// is true iff the flat failure list ends up empty.
func (o *Orchestrator) Verify(ctx context.Context, bundle domain.Bundle, timeBound time.Time, thresholdOverride *domain.Severity) (domain.VerificationResult, error) {
	start := o.clock()
	if timeBound.IsZero() {
		timeBound = start
	}
	threshold := o.policy.SeverityThreshold
	if thresholdOverride != nil {
		threshold = *thresholdOverride
	}

	result := domain.VerificationResult{
		ID:                uuid.NewString(),
		VerifiedAt:        start.UTC(),
		TimeBound:         timeBound.UTC(),
		SeverityThreshold: threshold,
	}

	result.Builds = o.builds.VerifyBuilds(bundle.Builds, timeBound)

	deps, err := o.dependencies.ScanDependencies(ctx, bundle.Dependencies, threshold)
	if err != nil {
		return domain.VerificationResult{}, fmt.Errorf("scan dependencies: %w", err)
	}
	result.Dependencies = deps

	result.Executions = o.attestations.VerifyAttestations(ctx, bundle.Executions)
	result.Artifacts = o.artifacts.VerifyArtifacts(bundle.Artifacts)
	result.Log = o.selectLog(bundle, timeBound)

	result.Failures = collectFailures(result)
	result.Passed = len(result.Failures) == 0

	o.log.WithFields(logrus.Fields{
		"verification": result.ID,
		"passed":       result.Passed,
		"failures":     len(result.Failures),
		"duration":     o.clock().Sub(start).String(),
	}).Info("verification completed")
	return result, nil
}

// selectLog picks the first candidate log, in input order, that fully
// satisfies the requirements. With no artifacts in the bundle the log
// requirement is vacuous; with artifacts but no logs at all it is a
// hard failure.
func (o *Orchestrator) selectLog(bundle domain.Bundle, timeBound time.Time) domain.LogVerification {
	if len(bundle.Artifacts) == 0 {
		return domain.LogVerification{
			Passed:          true,
			ChainIntact:     true,
			ContainmentMet:  true,
			WithinTimeBound: true,
			SignaturesValid: true,
			Failures:        []domain.Failure{},
		}
	}
	if len(bundle.Logs) == 0 {
		return domain.LogVerification{
			Failures: []domain.Failure{domain.NewFailure(domain.CategoryLog, domain.CodeNoLogsProvided,
				"bundle carries artifacts but no immutable logs", "")},
		}
	}

	hashes := make([]string, 0, len(bundle.Artifacts))
	for _, artifact := range bundle.Artifacts {
		hashes = append(hashes, artifact.SHA256)
	}
	reqs := LogRequirements{ArtifactHashes: hashes, TimeBound: timeBound}

	var firstFailed *domain.LogVerification
	for _, log := range bundle.Logs {
		verification := o.logs.VerifyLog(log, reqs)
		if verification.Passed {
			return verification
		}
		if firstFailed == nil {
			firstFailed = &verification
		}
	}

	// No candidate satisfied the requirements: report the aggregate
	// failure plus the first candidate's defects for diagnosis.
	failures := []domain.Failure{domain.NewFailure(domain.CategoryLog, domain.CodeNoSatisfyingLog,
		fmt.Sprintf("none of the %d candidate logs satisfies the verification requirements", len(bundle.Logs)), "")}
	failed := *firstFailed
	failed.Failures = append(failures, failed.Failures...)
	failed.Passed = false
	return failed
}

// QuickVerify is the cheap pre-check: level floor on builds, embedded
// critical CVEs only, attestation expiry. It never consults external
// services and is not a substitute for Verify.
func (o *Orchestrator) QuickVerify(bundle domain.Bundle) (bool, []domain.Failure) {
	failures := []domain.Failure{}
	now := o.clock()

	for _, build := range bundle.Builds {
		if build.Level < o.policy.MinLevel {
			failures = append(failures, domain.NewFailure(domain.CategoryBuild, domain.CodeLevelInsufficient,
				fmt.Sprintf("build %s is at SLSA level %d, policy requires %d", build.ID, build.Level, o.policy.MinLevel), build.ID))
		}
	}
	for _, dep := range bundle.Dependencies {
		for _, cve := range dep.CVEs {
			if cve.EffectiveSeverity() >= domain.SeverityCritical && isVersionAffected(dep.Version, cve) {
				failures = append(failures, domain.NewFailure(domain.CategoryDependency, domain.CodeCVEThresholdExceeded,
					fmt.Sprintf("dependency %s is affected by critical %s", dep.Coordinate(), cve.ID), dep.Coordinate()))
			}
		}
	}
	for _, exec := range bundle.Executions {
		if exec.Expired(now) {
			failures = append(failures, domain.NewFailure(domain.CategoryExecution, domain.CodeAttestationExpired,
				fmt.Sprintf("attestation %s is expired", exec.ID), exec.ID))
		}
	}

	sortFailures(failures)
	return len(failures) == 0, failures
}

// collectFailures flattens the sub-results into one deterministically
// ordered list: (category, entity, code).
func collectFailures(result domain.VerificationResult) []domain.Failure {
	failures := []domain.Failure{}
	failures = append(failures, result.Builds.Failures...)
	failures = append(failures, result.Dependencies.Failures...)
	failures = append(failures, result.Executions.Failures...)
	failures = append(failures, result.Artifacts.Failures...)
	failures = append(failures, result.Log.Failures...)
	sortFailures(failures)
	return failures
}

func sortFailures(failures []domain.Failure) {
	sort.SliceStable(failures, func(i, j int) bool {
		if failures[i].Category != failures[j].Category {
			return failures[i].Category < failures[j].Category
		}
		if failures[i].EntityID != failures[j].EntityID {
			return failures[i].EntityID < failures[j].EntityID
		}
		return failures[i].Code < failures[j].Code
	})
}
