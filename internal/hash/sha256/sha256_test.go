// Package sha256 includes tests for the SHA-256 hasher.
package sha256

import (
	"os"
	"path/filepath"
	"testing"
)

const helloWorld = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"

func writeArchive(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bunpro_dict.zip")
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

// TestHasherHashFileKnownDigest checks the streamed digest against a known value.
func TestHasherHashFileKnownDigest(t *testing.T) {
	t.Parallel()

	got, err := New().HashFile(writeArchive(t, "hello world"))
	if err != nil {
		t.Fatalf("HashFile() error = %v", err)
	}
	if got != helloWorld {
		t.Fatalf("expected %s, got %s", helloWorld, got)
	}
}

// TestHasherHashFileDeterministic ensures repeated hashing yields the same digest.
func TestHasherHashFileDeterministic(t *testing.T) {
	t.Parallel()

	path := writeArchive(t, "term_bank_1.json")
	h := New()
	first, err := h.HashFile(path)
	if err != nil {
		t.Fatalf("HashFile() error = %v", err)
	}
	second, err := h.HashFile(path)
	if err != nil {
		t.Fatalf("HashFile() error = %v", err)
	}
	if first != second || len(first) != 64 {
		t.Fatalf("expected stable 64-char digest, got %s and %s", first, second)
	}
}

// TestHasherHashFileMissing reports an error for absent files.
func TestHasherHashFileMissing(t *testing.T) {
	t.Parallel()

	if _, err := New().HashFile(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
