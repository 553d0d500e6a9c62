package crypto

import (
	"testing"
	"time"

	"sc3/internal/domain"
)

func sampleBuild() domain.Build {
	return domain.Build{
		ID:           "build-1",
		Timestamp:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Level:        3,
		SourceRepo:   "https://git.example.com/app",
		SourceCommit: "abc123",
		ConfigHash:   "cfg-hash",
		BuilderID:    "builder-a",
		Environment: domain.BuildEnvironment{
			OS:              "linux",
			Arch:            "amd64",
			CompilerVersion: "1.24",
			EnvHash:         "env-hash",
			ContainerDigest: "sha256:deadbeef",
			Hermetic:        true,
		},
		Status: domain.BuildStatusVerified,
	}
}

func TestBuildCanonicalHashIgnoresTimestampAndStatus(t *testing.T) {
	a := sampleBuild()
	b := sampleBuild()
	b.Timestamp = b.Timestamp.Add(48 * time.Hour)
	b.Status = domain.BuildStatusFailed

	hashA, err := BuildCanonicalHash(a)
	if err != nil {
		t.Fatalf("hash a: %v", err)
	}
	hashB, err := BuildCanonicalHash(b)
	if err != nil {
		t.Fatalf("hash b: %v", err)
	}
	if hashA != hashB {
		t.Fatal("timestamp or status leaked into the canonical hash")
	}
}

func TestBuildCanonicalHashCoversEnvironment(t *testing.T) {
	a := sampleBuild()
	b := sampleBuild()
	b.Environment.CompilerVersion = "1.25"

	hashA, _ := BuildCanonicalHash(a)
	hashB, _ := BuildCanonicalHash(b)
	if hashA == hashB {
		t.Fatal("compiler version change did not change the canonical hash")
	}
}

func TestCanonicalHashAlgorithms(t *testing.T) {
	record := map[string]any{"a": 1}
	h256, err := CanonicalHash(record, AlgSHA256)
	if err != nil || len(h256) != 64 {
		t.Fatalf("sha256 hash: %q, %v", h256, err)
	}
	h512, err := CanonicalHash(record, AlgSHA512)
	if err != nil || len(h512) != 128 {
		t.Fatalf("sha512 hash: %q, %v", h512, err)
	}
	if _, err := CanonicalHash(record, "md5"); err == nil {
		t.Fatal("expected error for unsupported algorithm")
	}
}

func TestEntryDataHashDependsOnPayload(t *testing.T) {
	a, err := EntryDataHash(domain.LogEntryArtifact, "hash-1", "build-1", map[string]any{"k": "v"})
	if err != nil {
		t.Fatalf("data hash: %v", err)
	}
	b, err := EntryDataHash(domain.LogEntryArtifact, "hash-1", "build-1", map[string]any{"k": "w"})
	if err != nil {
		t.Fatalf("data hash: %v", err)
	}
	if a == b {
		t.Fatal("payload change did not change the data hash")
	}
}

func TestEntrySigningPayloadShape(t *testing.T) {
	got := string(EntrySigningPayload("log-1", "dh", "ph"))
	if got != "log-1:dh:ph" {
		t.Fatalf("signing payload = %q", got)
	}
}
