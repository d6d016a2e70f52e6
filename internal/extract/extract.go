// Package extract pulls exported symbols and import specifiers out of
// source files. Two strategies implement one contract: a tree-sitter
// extractor (preferred, needs cgo) and a regex fallback (always available).
// The strategy is picked once at startup; downstream stages never branch
// on which one is active.
package extract

import (
	"rewire/internal/logging"
)

// Result is the extraction output for one file. Exports preserve
// declaration order (deduplicated); Imports preserve first-seen order.
type Result struct {
	// Exports are externally visible symbol names. Aliased or destructured
	// exports resolve to the external name, not the internal binding.
	Exports []string

	// Imports are raw import specifiers as written in source.
	Imports []string

	// Runnable reports a self-contained runnable marker (a __main__-style
	// guard or a test-runner invocation) in the file content.
	Runnable bool
}

// Extractor extracts exports and imports from file content.
// Implementations never fail on malformed input; heuristic coverage, not
// soundness, is the contract, so a file that defeats the parser yields
// empty sets.
type Extractor interface {
	Name() string
	Extract(path string, content []byte, lang Language) Result
}

// Select returns the best available extractor: tree-sitter when the build
// carries it, otherwise the regex fallback.
func Select(logger *logging.Logger) Extractor {
	if TreeSitterAvailable() {
		logger.Debug("Using tree-sitter extractor", nil)
		return NewTreeSitterExtractor()
	}
	logger.Debug("Tree-sitter unavailable, using regex extractor", nil)
	return NewRegexExtractor()
}

// dedupe returns names in first-seen order with duplicates removed.
func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
