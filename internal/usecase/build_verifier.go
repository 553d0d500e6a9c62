package usecase

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"sc3/internal/domain"
	"sc3/internal/infra/crypto"
)

// BuildVerifier checks recorded builds against the active policy:
// canonical hash integrity, SLSA level floor, builder trust, hermeticity
// and timestamp bounds.
type BuildVerifier struct {
	policy domain.Policy
	log    logrus.FieldLogger
}

func NewBuildVerifier(policy domain.Policy, log logrus.FieldLogger) *BuildVerifier {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &BuildVerifier{policy: policy, log: log}
}

// VerifyBuilds runs every build through the full check list and
// aggregates. Passed requires an empty failure list and both counters at
// the batch size: a build that dodges both counters still sinks the
// batch.
func (v *BuildVerifier) VerifyBuilds(builds []domain.Build, timeBound time.Time) domain.BuildBatchResult {
	result := domain.BuildBatchResult{Failures: []domain.Failure{}}
	for _, build := range builds {
		failures, hashValid, levelOK := v.verifyBuild(build, timeBound)
		if hashValid {
			result.CanonicalHashValid++
		}
		if levelOK {
			result.LevelCompliant++
		}
		result.Failures = append(result.Failures, failures...)
	}
	result.Passed = len(result.Failures) == 0 &&
		result.CanonicalHashValid == len(builds) &&
		result.LevelCompliant == len(builds)
	v.log.WithFields(logrus.Fields{
		"builds":   len(builds),
		"failures": len(result.Failures),
		"passed":   result.Passed,
	}).Debug("build batch verified")
	return result
}

func (v *BuildVerifier) verifyBuild(build domain.Build, timeBound time.Time) ([]domain.Failure, bool, bool) {
	var failures []domain.Failure
	hashValid := true
	levelOK := true

	if build.CanonicalHash != "" {
		computed, err := crypto.BuildCanonicalHash(build)
		if err != nil {
			hashValid = false
			failures = append(failures, domain.NewFailure(domain.CategoryBuild, domain.CodeHashMismatch,
				fmt.Sprintf("canonical hash of build %s could not be computed: %v", build.ID, err), build.ID))
		} else if computed != build.CanonicalHash {
			hashValid = false
			failures = append(failures, domain.NewFailure(domain.CategoryBuild, domain.CodeHashMismatch,
				fmt.Sprintf("build %s canonical hash does not match its recorded environment", build.ID), build.ID).
				WithDetails(map[string]any{"recorded": build.CanonicalHash, "computed": computed}))
		}
	}

	if build.Level < v.policy.MinLevel {
		levelOK = false
		failures = append(failures, domain.NewFailure(domain.CategoryBuild, domain.CodeLevelInsufficient,
			fmt.Sprintf("build %s is at SLSA level %d, policy requires %d", build.ID, build.Level, v.policy.MinLevel), build.ID).
			WithDetails(map[string]any{"level": build.Level, "required": v.policy.MinLevel}))
	}

	if len(v.policy.TrustedBuilders) > 0 && !v.policy.BuilderTrusted(build.BuilderID) {
		failures = append(failures, domain.NewFailure(domain.CategoryBuild, domain.CodeUntrustedBuilder,
			fmt.Sprintf("build %s was produced by untrusted builder %q", build.ID, build.BuilderID), build.ID))
	}

	if v.policy.RequireHermetic && !build.Environment.Hermetic {
		failures = append(failures, domain.NewFailure(domain.CategoryBuild, domain.CodeBuildNotHermetic,
			fmt.Sprintf("build %s did not run in a hermetic environment", build.ID), build.ID))
	}

	if build.Timestamp.After(timeBound) {
		failures = append(failures, domain.NewFailure(domain.CategoryBuild, domain.CodeTimestampOutOfBound,
			fmt.Sprintf("build %s is timestamped after the verification time bound", build.ID), build.ID).
			WithDetails(map[string]any{"timestamp": build.Timestamp, "time_bound": timeBound}))
	}

	if build.Provenance != nil && !build.Provenance.Complete() {
		failures = append(failures, domain.NewFailure(domain.CategoryBuild, domain.CodeProvenanceIncomplete,
			fmt.Sprintf("build %s carries an incomplete provenance statement", build.ID), build.ID))
	}

	if build.Status != domain.BuildStatusVerified {
		failures = append(failures, domain.NewFailure(domain.CategoryBuild, domain.CodeBuildNotVerified,
			fmt.Sprintf("build %s has status %s, expected VERIFIED", build.ID, build.Status), build.ID))
	}

	return failures, hashValid, levelOK
}

// VerifySLSALevel3 re-derives level-3 compliance from the evidence a
// build actually carries, independent of its declared numeric level: a
// hermetic, container-pinned environment plus signed provenance from a
// non-empty builder identity. It is a cross-check, not part of the
// batch verdict.
func (v *BuildVerifier) VerifySLSALevel3(build domain.Build) bool {
	hermeticAndPinned := build.Environment.Hermetic && build.Environment.ContainerDigest != ""
	signedProvenance := build.Provenance != nil &&
		build.Provenance.Signature != nil &&
		build.BuilderID != ""
	return hermeticAndPinned && signedProvenance
}
