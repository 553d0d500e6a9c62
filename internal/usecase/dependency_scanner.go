package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"sc3/internal/domain"
	"sc3/internal/infra/crypto"
)

const (
	// cveFreshness is how long an embedded or cached scan result stays
	// authoritative before the scanner consults the external source.
	cveFreshness = 24 * time.Hour

	// cveLookupTimeout bounds each individual external CVE lookup.
	cveLookupTimeout = 10 * time.Second

	// scanConcurrency caps parallel per-dependency scans.
	scanConcurrency = 8
)

// DependencyScanner checks publisher signatures, known CVEs against the
// severity threshold and license allow-lists for every dependency in a
// bundle.
type DependencyScanner struct {
	policy  domain.Policy
	keyring *Keyring
	source  CVESource
	cache   CVECache
	gate    LicenseGate
	clock   func() time.Time
	log     logrus.FieldLogger
}

func NewDependencyScanner(policy domain.Policy, keyring *Keyring, source CVESource, cache CVECache, gate LicenseGate, clock func() time.Time, log logrus.FieldLogger) *DependencyScanner {
	if clock == nil {
		clock = time.Now
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &DependencyScanner{
		policy:  policy,
		keyring: keyring,
		source:  source,
		cache:   cache,
		gate:    gate,
		clock:   clock,
		log:     log,
	}
}

type depScan struct {
	index    int
	signed   bool
	unsigned bool
	cveFails []domain.Failure
	failures []domain.Failure
}

// ScanDependencies fans the batch out across a bounded worker group and
// aggregates in input order. Failures are data; the only error path is
// context cancellation.
func (s *DependencyScanner) ScanDependencies(ctx context.Context, deps []domain.Dependency, threshold domain.Severity) (domain.DependencyScanResult, error) {
	result := domain.DependencyScanResult{
		CVEViolations:        []domain.Failure{},
		UnsignedDependencies: []string{},
		Failures:             []domain.Failure{},
	}

	scans := make([]depScan, len(deps))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(scanConcurrency)

	var mu sync.Mutex
	for i, dep := range deps {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			scan := s.scanDependency(groupCtx, dep, threshold)
			scan.index = i
			mu.Lock()
			scans[i] = scan
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return domain.DependencyScanResult{}, err
	}

	for i, scan := range scans {
		if scan.signed {
			result.SignedCount++
		}
		if scan.unsigned {
			result.UnsignedDependencies = append(result.UnsignedDependencies, deps[i].Coordinate())
		}
		result.CVEViolations = append(result.CVEViolations, scan.cveFails...)
		result.Failures = append(result.Failures, scan.failures...)
	}
	sort.Strings(result.UnsignedDependencies)
	result.Passed = len(result.Failures) == 0
	s.log.WithFields(logrus.Fields{
		"dependencies": len(deps),
		"signed":       result.SignedCount,
		"violations":   len(result.CVEViolations),
		"passed":       result.Passed,
	}).Debug("dependency batch scanned")
	return result, nil
}

func (s *DependencyScanner) scanDependency(ctx context.Context, dep domain.Dependency, threshold domain.Severity) depScan {
	scan := depScan{}
	coordinate := dep.Coordinate()

	scan.signed, scan.failures = s.checkSignature(dep)
	scan.unsigned = !scan.signed

	cves := s.knownCVEs(ctx, dep, &scan)
	for _, cve := range cves {
		if !isVersionAffected(dep.Version, cve) {
			continue
		}
		if cve.EffectiveSeverity() >= threshold {
			scan.cveFails = append(scan.cveFails, domain.NewFailure(domain.CategoryDependency, domain.CodeCVEThresholdExceeded,
				fmt.Sprintf("dependency %s is affected by %s at severity %s (threshold %s)",
					coordinate, cve.ID, cve.EffectiveSeverity(), threshold), coordinate).
				WithDetails(map[string]any{
					"cve":           cve.ID,
					"cvss":          cve.CVSS,
					"severity":      cve.EffectiveSeverity().String(),
					"fix_available": hasFixAvailable(dep.Version, cve),
					"fixed_version": cve.FixedVersion,
				}))
		}
	}
	scan.failures = append(scan.failures, scan.cveFails...)

	if dep.License != "" {
		if fail := s.checkLicense(ctx, dep); fail != nil {
			scan.failures = append(scan.failures, *fail)
		}
	}
	return scan
}

// checkSignature returns whether the dependency counts as signed plus
// any failures it contributes. A registry-verified signature is accepted
// as-is; otherwise the signature is checked over the canonical identity
// record.
func (s *DependencyScanner) checkSignature(dep domain.Dependency) (bool, []domain.Failure) {
	coordinate := dep.Coordinate()
	if dep.Signature == nil {
		if s.policy.RequireSignedDeps {
			return false, []domain.Failure{domain.NewFailure(domain.CategoryDependency, domain.CodeUnsignedDependency,
				fmt.Sprintf("dependency %s carries no publisher signature", coordinate), coordinate)}
		}
		return false, nil
	}
	if dep.Signature.Verified {
		return true, nil
	}

	record, err := crypto.DependencyRecordDigest(dep)
	if err != nil {
		return false, []domain.Failure{domain.NewFailure(domain.CategoryDependency, domain.CodeSignatureInvalid,
			fmt.Sprintf("dependency %s identity record could not be canonicalized: %v", coordinate, err), coordinate)}
	}
	err = s.keyring.Verify(record, domain.Signature{
		Alg:   dep.Signature.Algorithm,
		KeyID: dep.Signature.KeyID,
		Value: dep.Signature.Signature,
	})
	if err == nil {
		return true, nil
	}

	code := domain.CodeSignatureInvalid
	switch {
	case errors.Is(err, ErrUnknownKey):
		code = domain.CodeUnknownKey
	case errors.Is(err, ErrKeyExpired):
		code = domain.CodeKeyExpired
	}
	return false, []domain.Failure{domain.NewFailure(domain.CategoryDependency, code,
		fmt.Sprintf("dependency %s signature rejected: %v", coordinate, err), coordinate)}
}

// knownCVEs resolves the CVE set for a dependency: shared cache first,
// then the embedded scan if fresh, then the external source. A source
// failure degrades softly to the embedded data with a SCAN_DEGRADED
// failure rather than blocking the scan.
func (s *DependencyScanner) knownCVEs(ctx context.Context, dep domain.Dependency, scan *depScan) []domain.CVE {
	coordinate := dep.Coordinate()
	if s.cache != nil {
		if cached, ok, err := s.cache.Get(ctx, coordinate); err == nil && ok {
			return cached
		}
	}

	fresh := !dep.LastScanned.IsZero() && s.clock().Sub(dep.LastScanned) < cveFreshness
	if fresh || s.source == nil {
		return dep.CVEs
	}

	lookupCtx, cancel := context.WithTimeout(ctx, cveLookupTimeout)
	defer cancel()
	cves, err := s.source.KnownCVEs(lookupCtx, dep.Name, dep.Version, dep.Registry)
	if err != nil {
		s.log.WithError(err).WithField("dependency", coordinate).Warn("cve source lookup failed, using embedded data")
		scan.failures = append(scan.failures, domain.NewFailure(domain.CategoryDependency, domain.CodeScanDegraded,
			fmt.Sprintf("cve lookup for %s failed, verdict based on embedded scan data: %v", coordinate, err), coordinate))
		return dep.CVEs
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, coordinate, cves, cveFreshness); err != nil {
			s.log.WithError(err).WithField("dependency", coordinate).Warn("cve cache write failed")
		}
	}
	return cves
}

func (s *DependencyScanner) checkLicense(ctx context.Context, dep domain.Dependency) *domain.Failure {
	coordinate := dep.Coordinate()
	allowed := false
	if s.gate != nil {
		ok, err := s.gate.Allow(ctx, dep.License, s.policy.AllowedLicenses)
		if err != nil {
			s.log.WithError(err).WithField("dependency", coordinate).Warn("license gate unavailable, using static allow-list")
			ok = s.policy.LicenseAllowed(dep.License)
		}
		allowed = ok
	} else {
		allowed = s.policy.LicenseAllowed(dep.License)
	}
	if allowed {
		return nil
	}
	fail := domain.NewFailure(domain.CategoryDependency, domain.CodeLicenseNotAllowed,
		fmt.Sprintf("dependency %s uses disallowed license %q", coordinate, dep.License), coordinate)
	return &fail
}
