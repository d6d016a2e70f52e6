//go:build !cgo

package extract

// TreeSitterExtractor is a stub used when CGO is not available.
// Select never returns it; the regex fallback takes over.
type TreeSitterExtractor struct{}

// NewTreeSitterExtractor returns nil when CGO is not available.
func NewTreeSitterExtractor() *TreeSitterExtractor {
	return nil
}

// Name identifies the strategy in logs and provenance.
func (e *TreeSitterExtractor) Name() string {
	return "treesitter"
}

// Extract returns empty results when CGO is not available.
func (e *TreeSitterExtractor) Extract(path string, content []byte, lang Language) Result {
	return Result{}
}

// TreeSitterAvailable reports whether the build carries tree-sitter grammars.
func TreeSitterAvailable() bool {
	return false
}
