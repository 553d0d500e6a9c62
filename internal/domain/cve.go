package domain

import (
	"fmt"
	"strings"
)

// Severity is the graduated vulnerability severity derived from a CVSS
// score. The numeric order is meaningful: thresholds compare with >=.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = map[Severity]string{
	SeverityNone:     "NONE",
	SeverityLow:      "LOW",
	SeverityMedium:   "MEDIUM",
	SeverityHigh:     "HIGH",
	SeverityCritical: "CRITICAL",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SEVERITY(%d)", int(s))
}

func ParseSeverity(value string) (Severity, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for severity, name := range severityNames {
		if name == normalized {
			return severity, nil
		}
	}
	return SeverityNone, fmt.Errorf("unknown severity: %q", value)
}

// SeverityFromCVSS maps a 0-10 CVSS score onto the severity scale.
// Breakpoints follow CVSS v3 rating bands: 4.0, 7.0 and 9.0.
func SeverityFromCVSS(score float64) Severity {
	switch {
	case score >= 9.0:
		return SeverityCritical
	case score >= 7.0:
		return SeverityHigh
	case score >= 4.0:
		return SeverityMedium
	case score > 0:
		return SeverityLow
	default:
		return SeverityNone
	}
}

// CVE is a known vulnerability attached to a dependency or returned by
// the external CVE source.
type CVE struct {
	ID               string   `json:"id"`
	CVSS             float64  `json:"cvss"`
	Severity         Severity `json:"severity,omitempty"`
	AffectedVersions string   `json:"affected_versions,omitempty"`
	FixedVersion     string   `json:"fixed_version,omitempty"`
	ExploitAvailable bool     `json:"exploit_available,omitempty"`
	PatchAvailable   bool     `json:"patch_available,omitempty"`
}

// EffectiveSeverity prefers the recorded severity and falls back to the
// CVSS-derived band when the record carries only a score.
func (c CVE) EffectiveSeverity() Severity {
	if c.Severity != SeverityNone {
		return c.Severity
	}
	return SeverityFromCVSS(c.CVSS)
}
