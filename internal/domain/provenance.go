package domain

import "time"

// Signature is an asymmetric signature value. Value is base64 for
// ed25519/HMAC algorithms and ASCII-armored for pgp.
type Signature struct {
	Alg   string `json:"alg"`
	KeyID string `json:"key_id"`
	Value string `json:"value"`
}

type ProvenanceMaterial struct {
	URI    string            `json:"uri"`
	Digest map[string]string `json:"digest"`
}

type ProvenanceSubject struct {
	Name   string            `json:"name"`
	Digest map[string]string `json:"digest"`
}

type ProvenanceMetadata struct {
	InvocationID string         `json:"invocation_id"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
	Reproducible bool           `json:"reproducible"`
	Parameters   map[string]any `json:"parameters,omitempty"`
}

// ProvenanceAttestation is a signed in-toto-style statement binding
// output subjects to input materials and a builder identity.
type ProvenanceAttestation struct {
	Version   string               `json:"version"`
	BuildType string               `json:"build_type"`
	BuilderID string               `json:"builder_id"`
	Metadata  ProvenanceMetadata   `json:"metadata"`
	Materials []ProvenanceMaterial `json:"materials"`
	Subjects  []ProvenanceSubject  `json:"subjects"`
	Signature *Signature           `json:"signature,omitempty"`
}

// Complete reports structural completeness: version, builder identity, at
// least one material and one subject, and a signature present.
func (p ProvenanceAttestation) Complete() bool {
	return p.Version != "" &&
		p.BuilderID != "" &&
		len(p.Materials) > 0 &&
		len(p.Subjects) > 0 &&
		p.Signature != nil
}
