package bundle

import (
	"errors"
	"fmt"

	"sc3/internal/domain"
)

// Validate performs the structural pre-flight a producer should run
// before submitting a bundle: referential integrity and required
// fields, not policy compliance.
func Validate(b domain.Bundle) error {
	buildIDs := make(map[string]bool, len(b.Builds))
	for i, build := range b.Builds {
		if build.ID == "" {
			return fmt.Errorf("build %d has no id", i)
		}
		if buildIDs[build.ID] {
			return fmt.Errorf("duplicate build id %s", build.ID)
		}
		buildIDs[build.ID] = true
	}

	for i, dep := range b.Dependencies {
		if dep.Name == "" || dep.Version == "" {
			return fmt.Errorf("dependency %d lacks a name or version", i)
		}
	}

	for i, exec := range b.Executions {
		if exec.ID == "" {
			return fmt.Errorf("execution attestation %d has no id", i)
		}
		if exec.Measurement == "" {
			return fmt.Errorf("execution attestation %s has no measurement", exec.ID)
		}
	}

	for i, artifact := range b.Artifacts {
		if artifact.ID == "" {
			return fmt.Errorf("artifact %d has no id", i)
		}
		if artifact.SHA256 == "" {
			return fmt.Errorf("artifact %s has no sha256", artifact.ID)
		}
		if artifact.BuildID != "" && !buildIDs[artifact.BuildID] {
			return fmt.Errorf("artifact %s references unknown build %s", artifact.ID, artifact.BuildID)
		}
	}

	for _, log := range b.Logs {
		if log.ID == "" {
			return errors.New("every log needs an id")
		}
	}
	return nil
}
