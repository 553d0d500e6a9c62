package usecase

import (
	"strings"

	"golang.org/x/mod/semver"

	"sc3/internal/domain"
)

// isVersionAffected decides whether version falls in the CVE's affected
// range. Ranges are space- or comma-separated comparators
// (">=1.0.0 <2.0.0", "<1.4.2", "=1.0.0", bare "1.0.0"). When the range
// is not comparator-shaped it degrades to a substring match, and when
// the installed version does not parse at all the check fails open
// toward "affected".
func isVersionAffected(version string, cve domain.CVE) bool {
	rangeExpr := strings.TrimSpace(cve.AffectedVersions)
	if rangeExpr == "" {
		// A CVE recorded against the dependency with no range claims the
		// whole version line.
		return true
	}

	tokens := strings.Fields(strings.ReplaceAll(rangeExpr, ",", " "))
	comparators := make([]comparator, 0, len(tokens))
	for _, token := range tokens {
		cmp, ok := parseComparator(token)
		if !ok {
			return strings.Contains(rangeExpr, version)
		}
		comparators = append(comparators, cmp)
	}

	current := canonicalVersion(version)
	if !semver.IsValid(current) {
		return true
	}
	for _, cmp := range comparators {
		if !cmp.matches(current) {
			return false
		}
	}
	return true
}

// hasFixAvailable reports whether the CVE's fixed version actually
// remediates the installed one. Without two parseable versions it falls
// back to "a fixed version string exists".
func hasFixAvailable(version string, cve domain.CVE) bool {
	if cve.FixedVersion == "" {
		return false
	}
	current := canonicalVersion(version)
	fixed := canonicalVersion(cve.FixedVersion)
	if semver.IsValid(current) && semver.IsValid(fixed) {
		return semver.Compare(fixed, current) > 0
	}
	return true
}

type comparator struct {
	op      string
	version string
}

func parseComparator(token string) (comparator, bool) {
	for _, op := range []string{">=", "<=", ">", "<", "=="} {
		if rest, ok := strings.CutPrefix(token, op); ok {
			if op == "==" {
				op = "="
			}
			return validComparator(op, rest)
		}
	}
	if rest, ok := strings.CutPrefix(token, "="); ok {
		return validComparator("=", rest)
	}
	return validComparator("=", token)
}

func validComparator(op, version string) (comparator, bool) {
	canonical := canonicalVersion(version)
	if !semver.IsValid(canonical) {
		return comparator{}, false
	}
	return comparator{op: op, version: canonical}, true
}

func (c comparator) matches(current string) bool {
	cmp := semver.Compare(current, c.version)
	switch c.op {
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	default:
		return cmp == 0
	}
}

func canonicalVersion(version string) string {
	version = strings.TrimSpace(version)
	if version == "" {
		return version
	}
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	return version
}
