// Package activate turns unwired candidates into minimal barrel-export
// patches and applies them under a risk gate, with a timestamped backup
// before every destructive write.
package activate

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"rewire/internal/config"
	"rewire/internal/ledger"
	"rewire/internal/logging"
	"rewire/internal/paths"
)

// ActionKind says what the engine would do (or did) for one candidate.
type ActionKind string

const (
	ActionCreated   ActionKind = "created"
	ActionAppended  ActionKind = "appended"
	ActionSatisfied ActionKind = "already_satisfied"
	ActionSkipped   ActionKind = "skipped"
	ActionFailed    ActionKind = "failed"
)

// Skip reasons that decide what happens in the ledger: risk-gated
// candidates stay pending for a later opt-in run; target-less candidates
// are recorded as skipped for good.
const (
	ReasonHighRisk    = "high risk is never auto-applied"
	ReasonMediumGated = "medium risk requires --include-medium-risk"
	ReasonNoTarget    = "no suitable target barrel"
)

// Action is one planned or executed activation step.
type Action struct {
	CandidateID string     `json:"candidateId"`
	Path        string     `json:"path"`
	Target      string     `json:"target,omitempty"`
	Kind        ActionKind `json:"kind"`
	Reason      string     `json:"reason,omitempty"`
	Diff        string     `json:"diff,omitempty"`
}

// Policy controls which risk tiers the engine may touch.
type Policy struct {
	IncludeMediumRisk bool
	DryRun            bool
}

// CacheInvalidator drops the scan-cache row for a file the engine just
// mutated, so the next run never trusts a stale classification for it.
type CacheInvalidator interface {
	Invalidate(path string) error
}

// Engine plans and applies activation patches. Writes are serialized:
// candidates are processed sequentially so two patches can never race on
// the same barrel file.
type Engine struct {
	root      string
	cfg       config.ActivationConfig
	backupDir string
	ledger    *ledger.Ledger
	cache     CacheInvalidator
	logger    *logging.Logger
}

// NewEngine creates an activation engine. cache may be nil when the scan
// cache is disabled.
func NewEngine(root string, cfg config.ActivationConfig, backupDir string, led *ledger.Ledger, cache CacheInvalidator, logger *logging.Logger) *Engine {
	return &Engine{
		root:      root,
		cfg:       cfg,
		backupDir: backupDir,
		ledger:    led,
		cache:     cache,
		logger:    logger,
	}
}

// Plan computes the action for every candidate without mutating anything.
// Apply executes exactly this plan, so dry-run output and real output
// always agree.
func (e *Engine) Plan(candidates []*ledger.Candidate, policy Policy) []Action {
	actions := make([]Action, 0, len(candidates))
	for _, c := range candidates {
		actions = append(actions, e.plan(c, policy))
	}
	return actions
}

func (e *Engine) plan(c *ledger.Candidate, policy Policy) Action {
	action := Action{CandidateID: c.ID, Path: c.Path}

	if c.Status != ledger.StatusPending {
		action.Kind = ActionSkipped
		action.Reason = fmt.Sprintf("already %s", c.Status)
		return action
	}

	// Risk gate. HIGH is never auto-applied, under any flag combination.
	switch strings.ToUpper(c.EstimatedRisk) {
	case "HIGH":
		action.Kind = ActionSkipped
		action.Reason = ReasonHighRisk
		return action
	case "MEDIUM":
		if !policy.IncludeMediumRisk {
			action.Kind = ActionSkipped
			action.Reason = ReasonMediumGated
			return action
		}
	}

	target, ok := e.resolveTarget(c.Path)
	if !ok {
		action.Kind = ActionSkipped
		action.Reason = ReasonNoTarget
		return action
	}
	action.Target = target

	line := exportLine(c)
	fullTarget := paths.JoinRoot(e.root, target)

	existing, err := os.ReadFile(fullTarget)
	switch {
	case os.IsNotExist(err):
		action.Kind = ActionCreated
		action.Diff = unifiedDiff(target, "", line+"\n")
	case err != nil:
		action.Kind = ActionFailed
		action.Reason = fmt.Sprintf("cannot read target: %v", err)
	case barrelReferences(string(existing), paths.Stem(c.Path)):
		action.Kind = ActionSatisfied
	default:
		updated := appendLine(string(existing), line)
		action.Kind = ActionAppended
		action.Diff = unifiedDiff(target, string(existing), updated)
	}
	return action
}

// resolveTarget finds or proposes the barrel file for a candidate. An
// existing sibling index file always wins; otherwise a new one may be
// synthesized only under the allow-listed namespace roots.
func (e *Engine) resolveTarget(candidatePath string) (string, bool) {
	if strings.HasSuffix(candidatePath, ".py") {
		return "", false
	}

	dir := path.Dir(candidatePath)
	for _, name := range []string{"index.ts", "index.tsx", "index.js", "index.jsx"} {
		target := path.Join(dir, name)
		if _, err := os.Stat(paths.JoinRoot(e.root, target)); err == nil {
			return target, true
		}
	}

	if !e.underBarrelRoot(dir) {
		return "", false
	}

	ext := ".ts"
	if strings.HasSuffix(candidatePath, ".js") || strings.HasSuffix(candidatePath, ".jsx") ||
		strings.HasSuffix(candidatePath, ".mjs") || strings.HasSuffix(candidatePath, ".cjs") {
		ext = ".js"
	}
	return path.Join(dir, "index"+ext), true
}

func (e *Engine) underBarrelRoot(dir string) bool {
	for _, root := range e.cfg.BarrelRoots {
		if dir == root || strings.HasPrefix(dir, root+"/") {
			return true
		}
	}
	return false
}

// exportLine builds the single re-export line for a candidate.
func exportLine(c *ledger.Candidate) string {
	stem := paths.Stem(c.Path)
	if len(c.Exports) == 0 {
		return fmt.Sprintf("export * from './%s';", stem)
	}
	return fmt.Sprintf("export { %s } from './%s';", strings.Join(c.Exports, ", "), stem)
}

// barrelReferences reports whether the barrel already re-exports the
// module stem. This is the idempotence check: a second apply is a no-op.
func barrelReferences(content, stem string) bool {
	return strings.Contains(content, "'./"+stem+"'") ||
		strings.Contains(content, "\"./"+stem+"\"")
}

func appendLine(content, line string) string {
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + line + "\n"
}

func unifiedDiff(target, before, after string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "a/" + target,
		ToFile:   "b/" + target,
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return diff
}
