package domain

import "time"

// DependencySignature is the publisher's signature over the dependency's
// canonical identity record {hash, name, registry, version}.
type DependencySignature struct {
	Algorithm string    `json:"algorithm"`
	Signature string    `json:"signature"`
	KeyID     string    `json:"key_id"`
	SignedAt  time.Time `json:"signed_at"`
	// Verified is set by registries that already validated the signature
	// upstream; the scanner accepts it without re-verifying.
	Verified bool `json:"verified,omitempty"`
}

type Dependency struct {
	Name        string               `json:"name"`
	Version     string               `json:"version"`
	Registry    string               `json:"registry"`
	Hash        string               `json:"hash"`
	Signature   *DependencySignature `json:"signature,omitempty"`
	CVEs        []CVE                `json:"cves,omitempty"`
	License     string               `json:"license,omitempty"`
	LastScanned time.Time            `json:"last_scanned,omitempty"`
}

// Coordinate is the cache key for CVE lookups.
func (d Dependency) Coordinate() string {
	return d.Name + "@" + d.Version
}
