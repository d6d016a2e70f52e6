// Package classify turns scan records plus graph dependents into usage
// classifications. Classification is a pure function of current graph
// state; no temporal state machine is involved.
package classify

import (
	"strings"
	"unicode"

	"rewire/internal/config"
	"rewire/internal/paths"
	"rewire/internal/scan"
)

// Classification is the usage verdict for one file.
type Classification string

const (
	ClassUsed       Classification = "used"
	ClassUnused     Classification = "unused"
	ClassUnwired    Classification = "unwired"
	ClassEntryPoint Classification = "entry_point"
)

// Reason sub-classifies why an unwired file is disconnected, by a fixed
// keyword priority so each file gets exactly one reason.
type Reason string

const (
	ReasonNeverImported  Reason = "never_imported"
	ReasonUINotWired     Reason = "ui_not_registered"
	ReasonServiceNotInit Reason = "service_not_initialized"
	ReasonHookNotUsed    Reason = "hook_not_used"
	ReasonStoreNotWired  Reason = "store_not_connected"
)

// Risk is the tier gating whether a candidate may be auto-patched.
type Risk string

const (
	RiskLow    Risk = "LOW"
	RiskMedium Risk = "MEDIUM"
	RiskHigh   Risk = "HIGH"
)

// entryPointStems are file stems always excluded from unused consideration.
var entryPointStems = map[string]bool{
	"index": true,
	"main":  true,
	"app":   true,
	"setup": true,
}

// FileResult is the classification output for one file.
type FileResult struct {
	Path            string         `json:"path"`
	Classification  Classification `json:"classification"`
	Reason          Reason         `json:"reason,omitempty"`
	Risk            Risk           `json:"riskLevel"`
	Confidence      float64        `json:"confidence"`
	DependentsCount int            `json:"dependentsCount"`
	Category        scan.Category  `json:"category"`
	ExportedSymbols []string       `json:"exportedSymbols"`
	LineCount       int            `json:"lineCount"`
}

// Classifier applies risk thresholds and external risk metadata to files.
type Classifier struct {
	riskCfg config.RiskConfig
	riskMd  config.RiskMetadata
}

func New(riskCfg config.RiskConfig, riskMd config.RiskMetadata) *Classifier {
	return &Classifier{riskCfg: riskCfg, riskMd: riskMd}
}

// Classify produces the verdict for one file given its dependents count.
func (c *Classifier) Classify(f scan.FileRecord, dependents int) FileResult {
	result := FileResult{
		Path:            f.Path,
		Risk:            c.risk(f),
		DependentsCount: dependents,
		Category:        f.Category,
		ExportedSymbols: f.ExportedSymbols,
		LineCount:       f.LineCount,
	}

	switch {
	case isEntryPoint(f):
		result.Classification = ClassEntryPoint
	case dependents > 0:
		result.Classification = ClassUsed
	case len(f.ExportedSymbols) > 0 && !f.Runnable:
		result.Classification = ClassUnwired
		result.Reason = inferReason(f)
	case f.Runnable:
		// Self-contained runnable (test file, script): not dead code.
		result.Classification = ClassUsed
	default:
		result.Classification = ClassUnused
	}

	result.Confidence = c.confidence(f, result)
	return result
}

// ClassifyAll classifies every file, keyed by path.
func (c *Classifier) ClassifyAll(files []scan.FileRecord, dependents func(path string) int) map[string]FileResult {
	out := make(map[string]FileResult, len(files))
	for _, f := range files {
		out[f.Path] = c.Classify(f, dependents(f.Path))
	}
	return out
}

// isEntryPoint reports whether a file matches the entry-point naming
// convention or is a configuration/manifest file. Entry points are never
// unused regardless of dependents count.
func isEntryPoint(f scan.FileRecord) bool {
	if f.Category == scan.CategoryConfiguration {
		return true
	}
	return entryPointStems[strings.ToLower(paths.Stem(f.Path))]
}

// inferReason matches path keywords in a fixed priority order:
// service, hook, store, UI component, then the generic fallback.
func inferReason(f scan.FileRecord) Reason {
	lower := strings.ToLower(f.Path)
	stem := paths.Stem(f.Path)

	switch {
	case strings.Contains(lower, "service"):
		return ReasonServiceNotInit
	case isHookName(stem) || strings.Contains(lower, "/hooks/"):
		return ReasonHookNotUsed
	case strings.Contains(lower, "store"):
		return ReasonStoreNotWired
	case f.Category == scan.CategoryUIComponent:
		return ReasonUINotWired
	default:
		return ReasonNeverImported
	}
}

// isHookName matches the React hook convention: "use" followed by an
// uppercase letter, as in useAuth.
func isHookName(stem string) bool {
	if !strings.HasPrefix(stem, "use") || len(stem) < 4 {
		return false
	}
	return unicode.IsUpper(rune(stem[3]))
}

// risk computes the tier from external metadata and line thresholds.
// More lines never reduce risk.
func (c *Classifier) risk(f scan.FileRecord) Risk {
	meta := strings.ToUpper(c.riskMd[f.Path])
	switch {
	case meta == "HIGH" || meta == "CRITICAL" || f.LineCount > c.riskCfg.LargeLineThreshold:
		return RiskHigh
	case meta == "MEDIUM" || f.LineCount > c.riskCfg.MediumLineThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// confidence is a bounded additive ranking score in [0,1]. It orders
// candidates for review and never bypasses the risk gate.
func (c *Classifier) confidence(f scan.FileRecord, r FileResult) float64 {
	score := 0.0

	switch f.Category {
	case scan.CategoryUIComponent, scan.CategoryService, scan.CategoryUtility:
		score += 0.3
	}
	if f.LineCount >= 5 && f.LineCount <= c.riskCfg.MediumLineThreshold {
		score += 0.2
	}
	if len(f.ExportedSymbols) > 0 {
		score += 0.3
	}
	if r.Risk == RiskLow {
		score += 0.2
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}
