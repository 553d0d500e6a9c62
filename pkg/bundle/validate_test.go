package bundle

import (
	"strings"
	"testing"

	"sc3/internal/domain"
)

func TestValidateAcceptsWellFormedBundle(t *testing.T) {
	b := domain.Bundle{
		Builds: []domain.Build{{ID: "build-1"}},
		Dependencies: []domain.Dependency{
			{Name: "libfoo", Version: "1.2.3"},
		},
		Executions: []domain.ExecutionAttestation{
			{ID: "exec-1", Measurement: "mrenclave"},
		},
		Artifacts: []domain.Artifact{
			{ID: "artifact-1", SHA256: strings.Repeat("a", 64), BuildID: "build-1"},
		},
		Logs: []domain.ImmutableLog{{ID: "log-1"}},
	}
	if err := Validate(b); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateEmptyBundle(t *testing.T) {
	if err := Validate(domain.Bundle{}); err != nil {
		t.Fatalf("empty bundle rejected: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name    string
		bundle  domain.Bundle
		wantErr string
	}{
		{
			"build without id",
			domain.Bundle{Builds: []domain.Build{{}}},
			"has no id",
		},
		{
			"duplicate build id",
			domain.Bundle{Builds: []domain.Build{{ID: "build-1"}, {ID: "build-1"}}},
			"duplicate build id",
		},
		{
			"dependency without version",
			domain.Bundle{Dependencies: []domain.Dependency{{Name: "libfoo"}}},
			"lacks a name or version",
		},
		{
			"execution without measurement",
			domain.Bundle{Executions: []domain.ExecutionAttestation{{ID: "exec-1"}}},
			"has no measurement",
		},
		{
			"artifact without sha256",
			domain.Bundle{Artifacts: []domain.Artifact{{ID: "artifact-1"}}},
			"has no sha256",
		},
		{
			"artifact references unknown build",
			domain.Bundle{Artifacts: []domain.Artifact{
				{ID: "artifact-1", SHA256: strings.Repeat("a", 64), BuildID: "ghost"},
			}},
			"unknown build",
		},
		{
			"log without id",
			domain.Bundle{Logs: []domain.ImmutableLog{{}}},
			"needs an id",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.bundle)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error = %q, want substring %q", err, tc.wantErr)
			}
		})
	}
}
