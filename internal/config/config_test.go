package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	root := t.TempDir()

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RootPath != root {
		t.Errorf("RootPath = %q, want %q", cfg.RootPath, root)
	}
	if cfg.Scan.MaxFileSizeBytes != 1000000 {
		t.Errorf("expected default maxFileSizeBytes, got %d", cfg.Scan.MaxFileSizeBytes)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	root := t.TempDir()

	cfg := DefaultConfig()
	cfg.Risk.MediumLineThreshold = 200
	cfg.Risk.LargeLineThreshold = 500
	cfg.Activation.BarrelRoots = []string{"src", "packages"}
	if err := cfg.Save(root); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Risk.MediumLineThreshold != 200 || loaded.Risk.LargeLineThreshold != 500 {
		t.Errorf("risk thresholds not round-tripped: %+v", loaded.Risk)
	}
	if len(loaded.Activation.BarrelRoots) != 2 {
		t.Errorf("barrelRoots not round-tripped: %v", loaded.Activation.BarrelRoots)
	}
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Risk.LargeLineThreshold = cfg.Risk.MediumLineThreshold
	if err := cfg.Validate(); err == nil {
		t.Error("large <= medium should fail validation")
	}
}

func TestLoadRiskMetadata(t *testing.T) {
	root := t.TempDir()

	// Missing file yields an empty map.
	meta, err := LoadRiskMetadata(root)
	if err != nil {
		t.Fatalf("LoadRiskMetadata (missing): %v", err)
	}
	if len(meta) != 0 {
		t.Errorf("expected empty metadata, got %v", meta)
	}

	dir := filepath.Join(root, ".rewire")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	content := `{"src/legacy/payment.ts": "CRITICAL", "src/utils/formatDate.ts": "LOW"}`
	if err := os.WriteFile(filepath.Join(dir, "risk.json"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	meta, err = LoadRiskMetadata(root)
	if err != nil {
		t.Fatalf("LoadRiskMetadata: %v", err)
	}
	if meta["src/legacy/payment.ts"] != "CRITICAL" {
		t.Errorf("metadata not loaded: %v", meta)
	}
}
