package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"sc3/internal/domain"
	"sc3/internal/infra/crypto"
)

// ProvenanceVerifier checks artifact provenance statements: structural
// completeness, statement signatures, subject digest binding, material
// validity, reproducibility and artifact-level signatures.
type ProvenanceVerifier struct {
	policy  domain.Policy
	keyring *Keyring
	log     logrus.FieldLogger
}

func NewProvenanceVerifier(policy domain.Policy, keyring *Keyring, log logrus.FieldLogger) *ProvenanceVerifier {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ProvenanceVerifier{policy: policy, keyring: keyring, log: log}
}

func (v *ProvenanceVerifier) VerifyArtifacts(artifacts []domain.Artifact) domain.ArtifactBatchResult {
	result := domain.ArtifactBatchResult{Failures: []domain.Failure{}}
	for _, artifact := range artifacts {
		result.Failures = append(result.Failures, v.verifyArtifact(artifact)...)
	}
	result.Passed = len(result.Failures) == 0
	v.log.WithFields(logrus.Fields{
		"artifacts": len(artifacts),
		"failures":  len(result.Failures),
		"passed":    result.Passed,
	}).Debug("artifact batch verified")
	return result
}

func (v *ProvenanceVerifier) verifyArtifact(artifact domain.Artifact) []domain.Failure {
	var failures []domain.Failure

	prov := artifact.Provenance
	if prov == nil {
		failures = append(failures, domain.NewFailure(domain.CategoryArtifact, domain.CodeProvenanceMissing,
			fmt.Sprintf("artifact %s has no provenance attestation", artifact.ID), artifact.ID))
	} else {
		if !prov.Complete() {
			failures = append(failures, domain.NewFailure(domain.CategoryArtifact, domain.CodeProvenanceIncomplete,
				fmt.Sprintf("artifact %s provenance is structurally incomplete", artifact.ID), artifact.ID))
		}
		if len(v.policy.TrustedBuilders) > 0 && !v.policy.BuilderTrusted(prov.BuilderID) {
			failures = append(failures, domain.NewFailure(domain.CategoryArtifact, domain.CodeUntrustedBuilder,
				fmt.Sprintf("artifact %s provenance names untrusted builder %q", artifact.ID, prov.BuilderID), artifact.ID))
		}
		failures = append(failures, v.checkStatementSignature(artifact, *prov)...)
		failures = append(failures, v.checkSubjectBinding(artifact, *prov)...)
		failures = append(failures, v.checkMaterials(artifact, *prov)...)
		if v.policy.RequireReproducible && !prov.Metadata.Reproducible {
			failures = append(failures, domain.NewFailure(domain.CategoryArtifact, domain.CodeNotReproducible,
				fmt.Sprintf("artifact %s build is not marked reproducible", artifact.ID), artifact.ID))
		}
	}

	failures = append(failures, v.checkArtifactSignatures(artifact)...)
	return failures
}

func (v *ProvenanceVerifier) checkStatementSignature(artifact domain.Artifact, prov domain.ProvenanceAttestation) []domain.Failure {
	if prov.Signature == nil {
		if v.policy.RequireProvenanceSignature {
			return []domain.Failure{domain.NewFailure(domain.CategoryArtifact, domain.CodeProvenanceSignatureInvalid,
				fmt.Sprintf("artifact %s provenance statement is unsigned", artifact.ID), artifact.ID)}
		}
		return nil
	}
	statement, err := CanonicalStatement(prov)
	if err != nil {
		return []domain.Failure{domain.NewFailure(domain.CategoryArtifact, domain.CodeProvenanceSignatureInvalid,
			fmt.Sprintf("artifact %s provenance statement could not be canonicalized: %v", artifact.ID, err), artifact.ID)}
	}
	if err := v.keyring.Verify(statement, *prov.Signature); err != nil {
		return []domain.Failure{domain.NewFailure(domain.CategoryArtifact, domain.CodeProvenanceSignatureInvalid,
			fmt.Sprintf("artifact %s provenance signature rejected: %v", artifact.ID, err), artifact.ID)}
	}
	return nil
}

// checkSubjectBinding requires the statement to name this artifact: a
// subject whose name matches and whose sha256/sha512 digest equals the
// artifact's content hash.
func (v *ProvenanceVerifier) checkSubjectBinding(artifact domain.Artifact, prov domain.ProvenanceAttestation) []domain.Failure {
	for _, subject := range prov.Subjects {
		if subject.Name != artifact.Name {
			continue
		}
		if digest, ok := subject.Digest["sha256"]; ok && strings.EqualFold(digest, artifact.SHA256) {
			return nil
		}
		if digest, ok := subject.Digest["sha512"]; ok && artifact.SHA512 != "" && strings.EqualFold(digest, artifact.SHA512) {
			return nil
		}
	}
	return []domain.Failure{domain.NewFailure(domain.CategoryArtifact, domain.CodeSubjectDigestMismatch,
		fmt.Sprintf("artifact %s is not bound by any provenance subject digest", artifact.ID), artifact.ID).
		WithDetails(map[string]any{"sha256": artifact.SHA256})}
}

func (v *ProvenanceVerifier) checkMaterials(artifact domain.Artifact, prov domain.ProvenanceAttestation) []domain.Failure {
	var failures []domain.Failure
	for i, material := range prov.Materials {
		if material.URI == "" || len(material.Digest) == 0 {
			failures = append(failures, domain.NewFailure(domain.CategoryArtifact, domain.CodeMaterialsInvalid,
				fmt.Sprintf("artifact %s provenance material %d lacks a URI or digest", artifact.ID, i), artifact.ID).
				WithDetails(map[string]any{"material": i, "uri": material.URI}))
			continue
		}
		for alg, digest := range material.Digest {
			if digest == "" {
				failures = append(failures, domain.NewFailure(domain.CategoryArtifact, domain.CodeMaterialsInvalid,
					fmt.Sprintf("artifact %s provenance material %d has an empty %s digest", artifact.ID, i, alg), artifact.ID))
			}
		}
	}
	return failures
}

func (v *ProvenanceVerifier) checkArtifactSignatures(artifact domain.Artifact) []domain.Failure {
	var failures []domain.Failure
	for _, sig := range artifact.Signatures {
		err := v.keyring.Verify([]byte(artifact.SHA256), domain.Signature{
			Alg:   sig.Algorithm,
			KeyID: sig.KeyID,
			Value: sig.Signature,
		})
		if err != nil {
			failures = append(failures, domain.NewFailure(domain.CategoryArtifact, domain.CodeArtifactSignatureInvalid,
				fmt.Sprintf("artifact %s signature by key %s rejected: %v", artifact.ID, sig.KeyID, err), artifact.ID))
		}
	}
	return failures
}

// CanonicalStatement is the byte string a provenance signature covers: a
// canonicalized projection of the statement with subjects and materials
// in a stable order. Producers sign exactly this.
func CanonicalStatement(prov domain.ProvenanceAttestation) ([]byte, error) {
	subjects := make([]map[string]any, 0, len(prov.Subjects))
	for _, s := range prov.Subjects {
		subjects = append(subjects, map[string]any{"digest": digestMap(s.Digest), "name": s.Name})
	}
	sort.Slice(subjects, func(i, j int) bool {
		return subjects[i]["name"].(string) < subjects[j]["name"].(string)
	})

	materials := make([]map[string]any, 0, len(prov.Materials))
	for _, m := range prov.Materials {
		materials = append(materials, map[string]any{"digest": digestMap(m.Digest), "uri": m.URI})
	}
	sort.Slice(materials, func(i, j int) bool {
		return materials[i]["uri"].(string) < materials[j]["uri"].(string)
	})

	return crypto.Canonicalize(map[string]any{
		"build_type":    prov.BuildType,
		"builder_id":    prov.BuilderID,
		"invocation_id": prov.Metadata.InvocationID,
		"materials":     materials,
		"reproducible":  prov.Metadata.Reproducible,
		"subjects":      subjects,
		"version":       prov.Version,
	})
}

func digestMap(digest map[string]string) map[string]any {
	out := make(map[string]any, len(digest))
	for alg, value := range digest {
		out[alg] = value
	}
	return out
}
