// Package ledger is the durable memory of activation candidates across
// runs. It is a copy-on-write JSON store keyed by candidate id; status
// transitions use compare-and-swap so concurrent tooling cannot lose
// updates silently.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	rerrors "rewire/internal/errors"
)

// Status is the candidate state machine. Transitions only move
// pending_approval -> applied | skipped; nothing reverses automatically.
type Status string

const (
	StatusPending Status = "pending_approval"
	StatusApplied Status = "applied"
	StatusSkipped Status = "skipped"
)

// Candidate is one unwired file offered for activation.
type Candidate struct {
	ID            string `json:"id"`
	Path          string `json:"path"`
	WhyUnused     string `json:"whyUnused"`
	EstimatedRisk string `json:"estimatedRisk"`
	PatchSummary  string `json:"patchSummary"`
	Status        Status `json:"status"`

	// Exports carries the symbol names the activation patch re-exports.
	Exports []string `json:"exports,omitempty"`

	// TargetBarrel is the index file the patch would touch, when known.
	TargetBarrel string `json:"targetBarrel,omitempty"`
	// StatusReason explains skipped/failed outcomes.
	StatusReason string `json:"statusReason,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Ledger holds candidates keyed by id. Mutations go through Upsert and
// Transition; Save writes the whole store copy-on-write.
type Ledger struct {
	path       string
	candidates map[string]*Candidate
}

// Load reads the ledger file, or returns an empty ledger when the file
// does not exist yet.
func Load(path string) (*Ledger, error) {
	l := &Ledger{
		path:       path,
		candidates: map[string]*Candidate{},
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading ledger: %w", err)
	}

	var list []*Candidate
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parsing ledger: %w", err)
	}
	for _, c := range list {
		l.candidates[c.ID] = c
	}
	return l, nil
}

// Get returns the candidate with the given id, or nil.
func (l *Ledger) Get(id string) *Candidate {
	return l.candidates[id]
}

// All returns every candidate sorted by id.
func (l *Ledger) All() []*Candidate {
	out := make([]*Candidate, 0, len(l.candidates))
	for _, c := range l.candidates {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Pending returns candidates still awaiting a decision, sorted by id.
func (l *Ledger) Pending() []*Candidate {
	var out []*Candidate
	for _, c := range l.All() {
		if c.Status == StatusPending {
			out = append(out, c)
		}
	}
	return out
}

// Upsert records a freshly classified candidate. An existing candidate
// that was already applied or skipped is left untouched, so re-running
// the pipeline never re-surfaces handled candidates. A still-pending
// candidate gets its analysis fields refreshed.
func (l *Ledger) Upsert(c Candidate) *Candidate {
	now := time.Now().UTC()

	if existing, ok := l.candidates[c.ID]; ok {
		if existing.Status != StatusPending {
			return existing
		}
		existing.WhyUnused = c.WhyUnused
		existing.EstimatedRisk = c.EstimatedRisk
		existing.PatchSummary = c.PatchSummary
		existing.TargetBarrel = c.TargetBarrel
		existing.Exports = c.Exports
		existing.UpdatedAt = now
		return existing
	}

	c.Status = StatusPending
	c.CreatedAt = now
	c.UpdatedAt = now
	stored := c
	l.candidates[c.ID] = &stored
	return &stored
}

// Transition moves a candidate from an expected status to a new one.
// A mismatch between expected and actual status fails with LEDGER_CONFLICT
// rather than overwriting someone else's transition.
func (l *Ledger) Transition(id string, from, to Status, reason string) error {
	c, ok := l.candidates[id]
	if !ok {
		return rerrors.New(rerrors.RunNotFound, fmt.Sprintf("candidate %s not in ledger", id), nil)
	}
	if c.Status != from {
		return rerrors.New(rerrors.LedgerConflict,
			fmt.Sprintf("candidate %s is %s, expected %s", id, c.Status, from), nil)
	}
	if from == to {
		return nil
	}
	if from != StatusPending {
		return rerrors.New(rerrors.LedgerConflict,
			fmt.Sprintf("candidate %s: %s -> %s is not a legal transition", id, from, to), nil)
	}

	c.Status = to
	c.StatusReason = reason
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// Save writes the ledger atomically: full content to a temp file in the
// same directory, then rename over the old one.
func (l *Ledger) Save() error {
	data, err := json.MarshalIndent(l.All(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding ledger: %w", err)
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating ledger dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("creating temp ledger: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing temp ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp ledger: %w", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing ledger: %w", err)
	}
	return nil
}

// Path returns the on-disk location of the ledger.
func (l *Ledger) Path() string {
	return l.path
}
