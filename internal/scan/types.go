// Package scan walks a project tree and produces one FileRecord per
// qualifying source file. Scanning and extraction run in a bounded worker
// pool; records are immutable once the pool drains.
package scan

import (
	"rewire/internal/extract"
)

// Category classifies a file by path heuristics.
type Category string

const (
	CategoryUIComponent    Category = "ui_component"
	CategoryService        Category = "service"
	CategoryUtility        Category = "utility"
	CategoryTypeDefinition Category = "type_definition"
	CategoryTest           Category = "test"
	CategoryConfiguration  Category = "configuration"
	CategoryAsset          Category = "asset"
	CategoryUnknown        Category = "unknown"
)

// FileRecord is the scan output for one file. The path is the immutable
// identity key; records are never mutated after the graph build begins.
type FileRecord struct {
	Path            string           `json:"path"`
	ContentHash     string           `json:"contentHash"`
	Language        extract.Language `json:"language"`
	SizeBytes       int64            `json:"sizeBytes"`
	LineCount       int              `json:"lineCount"`
	ExportedSymbols []string         `json:"exportedSymbols"`
	ImportedModules []string         `json:"importedModules"`
	Category        Category         `json:"category"`
	Runnable        bool             `json:"runnable"`
}

// SkippedFile records a file excluded from the scan with an explicit reason,
// so oversized or unreadable files are never silently dropped.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Skip reasons.
const (
	SkipTooLarge   = "too_large"
	SkipReadFailed = "read_failed"
	SkipStatFailed = "stat_failed"
)

// Result is the output of one scan pass.
type Result struct {
	Files   []FileRecord  `json:"files"`
	Skipped []SkippedFile `json:"skipped"`

	// ExtractorName records which extraction strategy produced the records.
	ExtractorName string `json:"extractorName"`
}

// CachedFile is one row of the incremental scan cache, keyed by path and
// validated against size and mtime.
type CachedFile struct {
	Path      string
	Hash      string
	Mtime     int64
	Size      int64
	Language  extract.Language
	Category  Category
	LineCount int
	Runnable  bool
	Exports   []string
	Imports   []string
}

// Cache is the incremental scan cache consulted per file. A nil Cache
// disables caching entirely.
type Cache interface {
	Get(path string) (*CachedFile, error)
	Put(entry *CachedFile) error
}
