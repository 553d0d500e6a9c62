package domain

import "time"

// ArtifactSignature is a signature over the artifact's content hash,
// distinct from the provenance statement signature.
type ArtifactSignature struct {
	Algorithm string    `json:"algorithm"`
	KeyID     string    `json:"key_id"`
	Signature string    `json:"signature"`
	SignedAt  time.Time `json:"signed_at,omitempty"`
}

type Artifact struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Type       string                 `json:"type"`
	SHA256     string                 `json:"sha256"`
	SHA512     string                 `json:"sha512,omitempty"`
	Size       int64                  `json:"size"`
	CreatedAt  time.Time              `json:"created_at"`
	Provenance *ProvenanceAttestation `json:"provenance,omitempty"`
	Signatures []ArtifactSignature    `json:"signatures,omitempty"`
	BuildID    string                 `json:"build_id"`
}
