// Package bundle holds client-side helpers for assembling and signing
// the evidence a verification runs over, so producers and the engine
// agree byte-for-byte on what each signature covers.
package bundle

import (
	"crypto/ed25519"
	"errors"

	"sc3/internal/domain"
	cryptoinfra "sc3/internal/infra/crypto"
	"sc3/internal/usecase"
)

// SignProvenance signs a provenance statement in place. The signature
// covers the canonical statement projection, not the raw JSON.
func SignProvenance(prov *domain.ProvenanceAttestation, keyID string, privateKey ed25519.PrivateKey) error {
	if prov == nil {
		return errors.New("provenance is required")
	}
	if keyID == "" {
		return errors.New("key id is required")
	}
	statement, err := usecase.CanonicalStatement(*prov)
	if err != nil {
		return err
	}
	sig, err := cryptoinfra.SignEd25519(statement, keyID, privateKey)
	if err != nil {
		return err
	}
	prov.Signature = &sig
	return nil
}

// SignArtifact produces an artifact-level signature over the artifact's
// sha256 content hash.
func SignArtifact(artifact domain.Artifact, keyID string, privateKey ed25519.PrivateKey) (domain.ArtifactSignature, error) {
	if artifact.SHA256 == "" {
		return domain.ArtifactSignature{}, errors.New("artifact sha256 is required")
	}
	sig, err := cryptoinfra.SignEd25519([]byte(artifact.SHA256), keyID, privateKey)
	if err != nil {
		return domain.ArtifactSignature{}, err
	}
	return domain.ArtifactSignature{
		Algorithm: sig.Alg,
		KeyID:     sig.KeyID,
		Signature: sig.Value,
	}, nil
}

// SignDependency signs the dependency's canonical identity record.
func SignDependency(dep domain.Dependency, keyID string, privateKey ed25519.PrivateKey) (domain.DependencySignature, error) {
	record, err := cryptoinfra.DependencyRecordDigest(dep)
	if err != nil {
		return domain.DependencySignature{}, err
	}
	sig, err := cryptoinfra.SignEd25519(record, keyID, privateKey)
	if err != nil {
		return domain.DependencySignature{}, err
	}
	return domain.DependencySignature{
		Algorithm: sig.Alg,
		KeyID:     sig.KeyID,
		Signature: sig.Value,
	}, nil
}

// StampCanonicalHash records the build's canonical hash so the engine
// can later detect environment tampering.
func StampCanonicalHash(build *domain.Build) error {
	if build == nil {
		return errors.New("build is required")
	}
	hash, err := cryptoinfra.BuildCanonicalHash(*build)
	if err != nil {
		return err
	}
	build.CanonicalHash = hash
	return nil
}
