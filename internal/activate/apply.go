package activate

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"

	"rewire/internal/ledger"
	"rewire/internal/paths"
)

// Apply executes the plan for the given candidates. With DryRun set it
// returns the plan untouched; otherwise it performs the filesystem writes
// and records the outcome of each candidate in the ledger. One failing
// candidate never aborts the batch; the caller saves the ledger afterwards.
func (e *Engine) Apply(candidates []*ledger.Candidate, policy Policy) []Action {
	actions := e.Plan(candidates, policy)
	if policy.DryRun {
		return actions
	}

	stamp := time.Now().UTC().Format("20060102-150405")

	for i := range actions {
		e.execute(&actions[i], stamp)
	}
	return actions
}

func (e *Engine) execute(a *Action, stamp string) {
	switch a.Kind {
	case ActionSatisfied:
		// The barrel already references the module. Content-wise this is
		// exactly the applied state, so record it as such.
		e.transition(a.CandidateID, ledger.StatusApplied, "already satisfied")

	case ActionSkipped:
		// Risk-gated candidates stay pending so a later opt-in run can
		// pick them up; only target-less skips are final.
		if a.Reason == ReasonNoTarget {
			e.transition(a.CandidateID, ledger.StatusSkipped, a.Reason)
		}

	case ActionFailed:
		e.transition(a.CandidateID, ledger.StatusSkipped, a.Reason)

	case ActionAppended:
		full := paths.JoinRoot(e.root, a.Target)
		existing, err := os.ReadFile(full)
		if err != nil {
			e.fail(a, fmt.Sprintf("target vanished before apply: %v", err))
			return
		}
		// Never write without a successful backup.
		if err := e.backup(a.Target, existing, stamp); err != nil {
			e.fail(a, fmt.Sprintf("backup failed: %v", err))
			return
		}
		c := e.ledger.Get(a.CandidateID)
		updated := appendLine(string(existing), exportLine(c))
		if err := os.WriteFile(full, []byte(updated), 0o644); err != nil {
			e.fail(a, fmt.Sprintf("write failed: %v", err))
			return
		}
		e.finish(a)

	case ActionCreated:
		full := paths.JoinRoot(e.root, a.Target)
		c := e.ledger.Get(a.CandidateID)
		content := exportLine(c) + "\n"
		// Exclusive create: a target that appeared since planning must not
		// be overwritten without the backup the append path takes.
		f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			e.fail(a, fmt.Sprintf("create failed: %v", err))
			return
		}
		if _, err := f.Write([]byte(content)); err != nil {
			_ = f.Close()
			e.fail(a, fmt.Sprintf("write failed: %v", err))
			return
		}
		if err := f.Close(); err != nil {
			e.fail(a, fmt.Sprintf("write failed: %v", err))
			return
		}
		e.finish(a)
	}
}

func (e *Engine) finish(a *Action) {
	e.transition(a.CandidateID, ledger.StatusApplied, "")
	if e.cache != nil {
		if err := e.cache.Invalidate(a.Target); err != nil {
			e.logger.Warn("Cache invalidation failed", map[string]interface{}{
				"file":  a.Target,
				"error": err.Error(),
			})
		}
	}
	e.logger.Info("Activation applied", map[string]interface{}{
		"candidate": a.CandidateID,
		"target":    a.Target,
		"kind":      string(a.Kind),
	})
}

func (e *Engine) fail(a *Action, reason string) {
	a.Kind = ActionFailed
	a.Reason = reason
	e.transition(a.CandidateID, ledger.StatusSkipped, reason)
	e.logger.Warn("Activation failed", map[string]interface{}{
		"candidate": a.CandidateID,
		"reason":    reason,
	})
}

func (e *Engine) transition(id string, to ledger.Status, reason string) {
	if err := e.ledger.Transition(id, ledger.StatusPending, to, reason); err != nil {
		e.logger.Warn("Ledger transition refused", map[string]interface{}{
			"candidate": id,
			"error":     err.Error(),
		})
	}
}

// backup copies the target's current content to a timestamped sidecar in
// the backup directory, gzipped when archiving is enabled. Backups are
// never auto-deleted.
func (e *Engine) backup(target string, content []byte, stamp string) error {
	if err := os.MkdirAll(e.backupDir, 0o755); err != nil {
		return err
	}

	name := stamp + "-" + paths.Slug(target)
	if e.cfg.ArchiveBackups {
		return writeGzip(filepath.Join(e.backupDir, name+".gz"), content)
	}
	return os.WriteFile(filepath.Join(e.backupDir, name), content, 0o644)
}

func writeGzip(path string, content []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write(content); err != nil {
		_ = zw.Close()
		_ = f.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
