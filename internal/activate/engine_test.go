package activate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rewire/internal/config"
	"rewire/internal/ledger"
	"rewire/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{
		Format: logging.JSONFormat,
		Level:  logging.ErrorLevel,
	})
}

type fixture struct {
	root    string
	backups string
	led     *ledger.Ledger
	engine  *Engine
}

func newFixture(t *testing.T, cfg config.ActivationConfig) *fixture {
	t.Helper()
	root := t.TempDir()
	backups := filepath.Join(root, ".rewire", "backups")

	led, err := ledger.Load(filepath.Join(root, ".rewire", "ledger.json"))
	if err != nil {
		t.Fatal(err)
	}

	return &fixture{
		root:    root,
		backups: backups,
		led:     led,
		engine:  NewEngine(root, cfg, backups, led, nil, testLogger()),
	}
}

func defaultActivation() config.ActivationConfig {
	return config.DefaultConfig().Activation
}

func (f *fixture) write(t *testing.T, rel, content string) {
	t.Helper()
	full := filepath.Join(f.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func formatDateCandidate(f *fixture) *ledger.Candidate {
	return f.led.Upsert(ledger.Candidate{
		ID:            "src-utils-formatdate-ts",
		Path:          "src/utils/formatDate.ts",
		WhyUnused:     "never_imported",
		EstimatedRisk: "LOW",
		Exports:       []string{"formatDate"},
	})
}

func TestApplyCreatesBarrelUnderAllowedRoot(t *testing.T) {
	f := newFixture(t, defaultActivation())
	f.write(t, "src/utils/formatDate.ts", "export function formatDate() {}\n")
	c := formatDateCandidate(f)

	actions := f.engine.Apply([]*ledger.Candidate{c}, Policy{})
	if len(actions) != 1 || actions[0].Kind != ActionCreated {
		t.Fatalf("actions = %+v, want one created", actions)
	}

	got := f.read(t, "src/utils/index.ts")
	want := "export { formatDate } from './formatDate';\n"
	if got != want {
		t.Errorf("barrel = %q, want %q", got, want)
	}
	if c.Status != ledger.StatusApplied {
		t.Errorf("status = %v, want applied", c.Status)
	}
}

func TestApplyAppendsToExistingBarrelWithBackup(t *testing.T) {
	f := newFixture(t, defaultActivation())
	f.write(t, "src/utils/formatDate.ts", "export function formatDate() {}\n")
	f.write(t, "src/utils/index.ts", "export { parseDate } from './parseDate';\n")
	c := formatDateCandidate(f)

	actions := f.engine.Apply([]*ledger.Candidate{c}, Policy{})
	if actions[0].Kind != ActionAppended {
		t.Fatalf("kind = %v, want appended", actions[0].Kind)
	}

	got := f.read(t, "src/utils/index.ts")
	if !strings.Contains(got, "'./parseDate'") || !strings.Contains(got, "'./formatDate'") {
		t.Errorf("barrel = %q", got)
	}

	entries, err := os.ReadDir(f.backups)
	if err != nil {
		t.Fatalf("backup dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("backups = %d, want 1", len(entries))
	}
	backup, err := os.ReadFile(filepath.Join(f.backups, entries[0].Name()))
	if err != nil {
		t.Fatal(err)
	}
	if string(backup) != "export { parseDate } from './parseDate';\n" {
		t.Errorf("backup content = %q", backup)
	}
}

func TestApplyIdempotent(t *testing.T) {
	f := newFixture(t, defaultActivation())
	f.write(t, "src/utils/formatDate.ts", "export function formatDate() {}\n")
	c := formatDateCandidate(f)

	f.engine.Apply([]*ledger.Candidate{c}, Policy{})
	first := f.read(t, "src/utils/index.ts")

	// Second run: the candidate is already applied, so the plan skips it
	// and the target is untouched.
	actions := f.engine.Apply([]*ledger.Candidate{c}, Policy{})
	if actions[0].Kind != ActionSkipped {
		t.Errorf("second apply kind = %v, want skipped", actions[0].Kind)
	}
	if second := f.read(t, "src/utils/index.ts"); second != first {
		t.Error("second apply changed the target file")
	}

	// Even a fresh pending candidate for the same module is satisfied
	// without writing.
	fresh := f.led.Upsert(ledger.Candidate{
		ID:            "fresh",
		Path:          "src/utils/formatDate.ts",
		EstimatedRisk: "LOW",
		Exports:       []string{"formatDate"},
	})
	actions = f.engine.Apply([]*ledger.Candidate{fresh}, Policy{})
	if actions[0].Kind != ActionSatisfied {
		t.Errorf("kind = %v, want already_satisfied", actions[0].Kind)
	}
	if third := f.read(t, "src/utils/index.ts"); third != first {
		t.Error("satisfied apply changed the target file")
	}

	// No backups were written by any of the no-op paths.
	if entries, err := os.ReadDir(f.backups); err == nil && len(entries) != 0 {
		t.Errorf("no-op applies created %d backups", len(entries))
	}
}

func TestRiskGateHighNeverWrites(t *testing.T) {
	f := newFixture(t, defaultActivation())
	f.write(t, "src/legacy/engine.ts", "export class Engine {}\n")
	c := f.led.Upsert(ledger.Candidate{
		ID:            "src-legacy-engine-ts",
		Path:          "src/legacy/engine.ts",
		EstimatedRisk: "HIGH",
		Exports:       []string{"Engine"},
	})

	for _, policy := range []Policy{{}, {IncludeMediumRisk: true}} {
		actions := f.engine.Apply([]*ledger.Candidate{c}, policy)
		if actions[0].Kind != ActionSkipped || actions[0].Reason != ReasonHighRisk {
			t.Errorf("policy %+v: action = %+v", policy, actions[0])
		}
		if _, err := os.Stat(filepath.Join(f.root, "src/legacy/index.ts")); !os.IsNotExist(err) {
			t.Error("high-risk apply touched the filesystem")
		}
	}

	// High-risk candidates remain pending for manual review.
	if c.Status != ledger.StatusPending {
		t.Errorf("status = %v, want pending", c.Status)
	}
}

func TestRiskGateMediumOptIn(t *testing.T) {
	f := newFixture(t, defaultActivation())
	f.write(t, "src/widgets/Chart.tsx", "export function Chart() {}\n")
	c := f.led.Upsert(ledger.Candidate{
		ID:            "src-widgets-chart-tsx",
		Path:          "src/widgets/Chart.tsx",
		EstimatedRisk: "MEDIUM",
		Exports:       []string{"Chart"},
	})

	actions := f.engine.Apply([]*ledger.Candidate{c}, Policy{})
	if actions[0].Kind != ActionSkipped || actions[0].Reason != ReasonMediumGated {
		t.Fatalf("action = %+v", actions[0])
	}
	if c.Status != ledger.StatusPending {
		t.Fatalf("gated candidate should stay pending, got %v", c.Status)
	}

	actions = f.engine.Apply([]*ledger.Candidate{c}, Policy{IncludeMediumRisk: true})
	if actions[0].Kind != ActionCreated {
		t.Errorf("opt-in action = %+v", actions[0])
	}
}

func TestDryRunEquivalence(t *testing.T) {
	f := newFixture(t, defaultActivation())
	f.write(t, "src/utils/formatDate.ts", "export function formatDate() {}\n")
	f.write(t, "src/utils/parse.ts", "export function parse() {}\n")
	f.write(t, "src/utils/index.ts", "export { other } from './other';\n")

	c1 := formatDateCandidate(f)
	c2 := f.led.Upsert(ledger.Candidate{
		ID:            "src-utils-parse-ts",
		Path:          "src/utils/parse.ts",
		EstimatedRisk: "LOW",
		Exports:       []string{"parse"},
	})
	candidates := []*ledger.Candidate{c1, c2}

	dry := f.engine.Apply(candidates, Policy{DryRun: true})

	// Dry run mutates nothing.
	if got := f.read(t, "src/utils/index.ts"); got != "export { other } from './other';\n" {
		t.Fatalf("dry run wrote to target: %q", got)
	}
	if c1.Status != ledger.StatusPending || c2.Status != ledger.StatusPending {
		t.Fatal("dry run touched the ledger")
	}

	wet := f.engine.Apply(candidates, Policy{})
	if len(dry) != len(wet) {
		t.Fatalf("action counts differ: %d vs %d", len(dry), len(wet))
	}
	for i := range dry {
		if dry[i].CandidateID != wet[i].CandidateID || dry[i].Kind != wet[i].Kind || dry[i].Target != wet[i].Target {
			t.Errorf("action %d differs: dry=%+v wet=%+v", i, dry[i], wet[i])
		}
	}
}

func TestNoSuitableTargetOutsideBarrelRoots(t *testing.T) {
	f := newFixture(t, defaultActivation())
	f.write(t, "scripts/cleanup.ts", "export function cleanup() {}\n")
	c := f.led.Upsert(ledger.Candidate{
		ID:            "scripts-cleanup-ts",
		Path:          "scripts/cleanup.ts",
		EstimatedRisk: "LOW",
		Exports:       []string{"cleanup"},
	})

	actions := f.engine.Apply([]*ledger.Candidate{c}, Policy{})
	if actions[0].Kind != ActionSkipped || actions[0].Reason != ReasonNoTarget {
		t.Fatalf("action = %+v", actions[0])
	}
	if c.Status != ledger.StatusSkipped {
		t.Errorf("status = %v, want skipped", c.Status)
	}
	if _, err := os.Stat(filepath.Join(f.root, "scripts/index.ts")); !os.IsNotExist(err) {
		t.Error("barrel synthesized outside allow-listed roots")
	}
}

func TestPythonCandidateSkipped(t *testing.T) {
	f := newFixture(t, defaultActivation())
	f.write(t, "src/tasks/runner.py", "def run():\n    pass\n")
	c := f.led.Upsert(ledger.Candidate{
		ID:            "src-tasks-runner-py",
		Path:          "src/tasks/runner.py",
		EstimatedRisk: "LOW",
		Exports:       []string{"run"},
	})

	actions := f.engine.Apply([]*ledger.Candidate{c}, Policy{})
	if actions[0].Kind != ActionSkipped || actions[0].Reason != ReasonNoTarget {
		t.Errorf("action = %+v", actions[0])
	}
}

func TestBackupFailureIsolatesCandidate(t *testing.T) {
	f := newFixture(t, defaultActivation())
	f.write(t, "src/a/first.ts", "export const first = 1;\n")
	f.write(t, "src/a/index.ts", "export { old } from './old';\n")
	f.write(t, "src/b/second.ts", "export const second = 2;\n")

	// Occupy the backup directory path with a file so MkdirAll fails.
	if err := os.MkdirAll(filepath.Dir(f.backups), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(f.backups, []byte("in the way"), 0o644); err != nil {
		t.Fatal(err)
	}

	c1 := f.led.Upsert(ledger.Candidate{
		ID: "src-a-first-ts", Path: "src/a/first.ts", EstimatedRisk: "LOW", Exports: []string{"first"},
	})
	c2 := f.led.Upsert(ledger.Candidate{
		ID: "src-b-second-ts", Path: "src/b/second.ts", EstimatedRisk: "LOW", Exports: []string{"second"},
	})

	actions := f.engine.Apply([]*ledger.Candidate{c1, c2}, Policy{})

	// c1 needs a backup (append to existing barrel) and must fail without
	// writing; c2 creates a fresh barrel and needs no backup.
	if actions[0].Kind != ActionFailed {
		t.Errorf("c1 action = %+v, want failed", actions[0])
	}
	if got := f.read(t, "src/a/index.ts"); got != "export { old } from './old';\n" {
		t.Errorf("target written without backup: %q", got)
	}
	if actions[1].Kind != ActionCreated {
		t.Errorf("c2 action = %+v, want created", actions[1])
	}
	if c2.Status != ledger.StatusApplied {
		t.Errorf("c2 status = %v", c2.Status)
	}
}

func TestCreateNeverOverwritesTargetThatAppeared(t *testing.T) {
	f := newFixture(t, defaultActivation())
	f.write(t, "src/utils/formatDate.ts", "export function formatDate() {}\n")
	f.write(t, "src/utils/parse.ts", "export function parse() {}\n")

	// Both candidates plan a create of the same missing barrel. The first
	// write makes the target exist, so the second must fail instead of
	// silently replacing it without a backup.
	c1 := formatDateCandidate(f)
	c2 := f.led.Upsert(ledger.Candidate{
		ID:            "src-utils-parse-ts",
		Path:          "src/utils/parse.ts",
		EstimatedRisk: "LOW",
		Exports:       []string{"parse"},
	})

	actions := f.engine.Apply([]*ledger.Candidate{c1, c2}, Policy{})

	if actions[0].Kind != ActionCreated {
		t.Fatalf("c1 action = %+v, want created", actions[0])
	}
	if actions[1].Kind != ActionFailed {
		t.Fatalf("c2 action = %+v, want failed", actions[1])
	}
	if got := f.read(t, "src/utils/index.ts"); got != "export { formatDate } from './formatDate';\n" {
		t.Errorf("barrel overwritten: %q", got)
	}
	if c1.Status != ledger.StatusApplied || c2.Status != ledger.StatusSkipped {
		t.Errorf("statuses = %v/%v, want applied/skipped", c1.Status, c2.Status)
	}
}

func TestGzipBackupArchiving(t *testing.T) {
	cfg := defaultActivation()
	cfg.ArchiveBackups = true
	f := newFixture(t, cfg)
	f.write(t, "src/utils/formatDate.ts", "export function formatDate() {}\n")
	f.write(t, "src/utils/index.ts", "export { parseDate } from './parseDate';\n")
	c := formatDateCandidate(f)

	f.engine.Apply([]*ledger.Candidate{c}, Policy{})

	entries, err := os.ReadDir(f.backups)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !strings.HasSuffix(entries[0].Name(), ".gz") {
		t.Errorf("backup entries = %+v, want one .gz file", entries)
	}
}
