package ledger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	rerrors "rewire/internal/errors"
)

func newCandidate(id, path string) Candidate {
	return Candidate{
		ID:            id,
		Path:          path,
		WhyUnused:     "never_imported",
		EstimatedRisk: "LOW",
		PatchSummary:  "append export to src/utils/index.ts",
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	l, err := Load(filepath.Join(t.TempDir(), "ledger.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(l.All()) != 0 {
		t.Errorf("expected empty ledger, got %d candidates", len(l.All()))
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")

	l, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	l.Upsert(newCandidate("src-utils-formatdate-ts", "src/utils/formatDate.ts"))
	l.Upsert(newCandidate("src-lib-math-ts", "src/lib/math.ts"))
	if err := l.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	all := reloaded.All()
	if len(all) != 2 {
		t.Fatalf("got %d candidates, want 2", len(all))
	}
	// All() is sorted by id.
	if all[0].ID != "src-lib-math-ts" || all[1].ID != "src-utils-formatdate-ts" {
		t.Errorf("order = %s, %s", all[0].ID, all[1].ID)
	}
	if all[0].Status != StatusPending {
		t.Errorf("status = %v, want pending", all[0].Status)
	}
}

func TestUpsertNeverResurfacesHandled(t *testing.T) {
	l, err := Load(filepath.Join(t.TempDir(), "ledger.json"))
	if err != nil {
		t.Fatal(err)
	}

	l.Upsert(newCandidate("c1", "src/a.ts"))
	if err := l.Transition("c1", StatusPending, StatusApplied, ""); err != nil {
		t.Fatal(err)
	}

	// Re-running the pipeline upserts the same candidate again; the
	// applied status must survive.
	got := l.Upsert(newCandidate("c1", "src/a.ts"))
	if got.Status != StatusApplied {
		t.Errorf("status = %v, want applied", got.Status)
	}
}

func TestUpsertRefreshesPending(t *testing.T) {
	l, err := Load(filepath.Join(t.TempDir(), "ledger.json"))
	if err != nil {
		t.Fatal(err)
	}

	l.Upsert(newCandidate("c1", "src/a.ts"))

	updated := newCandidate("c1", "src/a.ts")
	updated.EstimatedRisk = "MEDIUM"
	got := l.Upsert(updated)

	if got.EstimatedRisk != "MEDIUM" {
		t.Errorf("risk = %v, want refreshed MEDIUM", got.EstimatedRisk)
	}
	if got.Status != StatusPending {
		t.Errorf("status = %v", got.Status)
	}
}

func TestTransitionCompareAndSwap(t *testing.T) {
	l, err := Load(filepath.Join(t.TempDir(), "ledger.json"))
	if err != nil {
		t.Fatal(err)
	}
	l.Upsert(newCandidate("c1", "src/a.ts"))

	if err := l.Transition("c1", StatusPending, StatusSkipped, "no suitable target"); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if got := l.Get("c1"); got.StatusReason != "no suitable target" {
		t.Errorf("reason = %q", got.StatusReason)
	}

	// Stale expectation: someone else already moved it.
	err = l.Transition("c1", StatusPending, StatusApplied, "")
	var rwErr *rerrors.RewireError
	if !errors.As(err, &rwErr) || rwErr.Code != rerrors.LedgerConflict {
		t.Errorf("expected LEDGER_CONFLICT, got %v", err)
	}

	// Reversal is never legal.
	err = l.Transition("c1", StatusSkipped, StatusPending, "")
	if !errors.As(err, &rwErr) || rwErr.Code != rerrors.LedgerConflict {
		t.Errorf("expected LEDGER_CONFLICT on reversal, got %v", err)
	}
}

func TestTransitionUnknownCandidate(t *testing.T) {
	l, err := Load(filepath.Join(t.TempDir(), "ledger.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Transition("ghost", StatusPending, StatusApplied, ""); err == nil {
		t.Error("expected error for unknown candidate")
	}
}

func TestSaveIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.json")

	l, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	l.Upsert(newCandidate("c1", "src/a.ts"))
	if err := l.Save(); err != nil {
		t.Fatal(err)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "ledger.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory contents = %v, want only ledger.json", names)
	}
}

func TestPendingFilter(t *testing.T) {
	l, err := Load(filepath.Join(t.TempDir(), "ledger.json"))
	if err != nil {
		t.Fatal(err)
	}
	l.Upsert(newCandidate("a", "src/a.ts"))
	l.Upsert(newCandidate("b", "src/b.ts"))
	if err := l.Transition("a", StatusPending, StatusApplied, ""); err != nil {
		t.Fatal(err)
	}

	pending := l.Pending()
	if len(pending) != 1 || pending[0].ID != "b" {
		t.Errorf("pending = %+v", pending)
	}
}
