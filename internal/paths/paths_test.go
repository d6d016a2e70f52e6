package paths

import (
	"path/filepath"
	"testing"
)

func TestNormalize(t *testing.T) {
	if got := Normalize(`src\utils\formatDate.ts`); got != "src/utils/formatDate.ts" {
		t.Errorf("Normalize = %q", got)
	}
}

func TestStem(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"src/utils/formatDate.ts", "formatDate"},
		{"src/components/Button.tsx", "Button"},
		{"index.ts", "index"},
		{"src/services/api.service.ts", "api.service"},
		{"noext", "noext"},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			if got := Stem(tc.path); got != tc.want {
				t.Errorf("Stem(%q) = %q, want %q", tc.path, got, tc.want)
			}
		})
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"src/utils/formatDate.ts", "src-utils-formatdate-ts"},
		{"src/components/__tests__/Button.test.tsx", "src-components-tests-button-test-tsx"},
		{"a//b", "a-b"},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			if got := Slug(tc.path); got != tc.want {
				t.Errorf("Slug(%q) = %q, want %q", tc.path, got, tc.want)
			}
		})
	}
}

func TestSlugStable(t *testing.T) {
	// Slugs are identity keys in the ledger, so they must be deterministic.
	a := Slug("src/utils/formatDate.ts")
	b := Slug("src/utils/formatDate.ts")
	if a != b {
		t.Errorf("Slug not stable: %q vs %q", a, b)
	}
}

func TestCanonicalize(t *testing.T) {
	root := t.TempDir()
	abs := filepath.Join(root, "src", "app.ts")

	got, err := Canonicalize(abs, root)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	if got != "src/app.ts" {
		t.Errorf("Canonicalize = %q, want src/app.ts", got)
	}
}

func TestIsWithin(t *testing.T) {
	root := t.TempDir()

	if !IsWithin(filepath.Join(root, "src", "a.ts"), root) {
		t.Error("path under root should be within")
	}
	if IsWithin(filepath.Join(root, "..", "outside.ts"), root) {
		t.Error("path outside root should not be within")
	}
}
