package scan

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"rewire/internal/config"
	rerrors "rewire/internal/errors"
	"rewire/internal/extract"
	"rewire/internal/logging"
	"rewire/internal/paths"
)

// hashChunkSize bounds per-read memory while hashing.
const hashChunkSize = 64 * 1024

// Scanner walks a project tree and produces FileRecords.
type Scanner struct {
	root      string
	cfg       config.ScanConfig
	extractor extract.Extractor
	cache     Cache
	logger    *logging.Logger

	includeExts map[string]bool
}

// NewScanner creates a scanner rooted at the given project directory.
// cache may be nil to disable the incremental cache.
func NewScanner(root string, cfg config.ScanConfig, extractor extract.Extractor, cache Cache, logger *logging.Logger) *Scanner {
	includeExts := make(map[string]bool, len(cfg.IncludeExtensions))
	for _, ext := range cfg.IncludeExtensions {
		includeExts[strings.ToLower(ext)] = true
	}
	if cfg.PythonEnabled {
		includeExts[".py"] = true
	}

	return &Scanner{
		root:        root,
		cfg:         cfg,
		extractor:   extractor,
		cache:       cache,
		logger:      logger,
		includeExts: includeExts,
	}
}

// Run walks the tree, then hashes and extracts every qualifying file in a
// bounded worker pool. Workers return immutable records; the merge happens
// after the pool drains, so there are no concurrent writers to shared state.
func (s *Scanner) Run(ctx context.Context) (*Result, error) {
	if _, err := os.ReadDir(s.root); err != nil {
		return nil, rerrors.New(rerrors.RootUnreadable, "cannot read project root", err)
	}

	candidates, skipped, err := s.collect()
	if err != nil {
		return nil, err
	}

	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	// Index-addressed result slots: each worker writes only its own slot.
	records := make([]*FileRecord, len(candidates))
	skips := make([]*SkippedFile, len(candidates))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range candidates {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			records[i], skips[i] = s.processFile(path)
			return nil
		})
	}

	// Synchronization barrier: graph build must not start before this.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{
		Skipped:       skipped,
		ExtractorName: s.extractor.Name(),
	}
	for i := range candidates {
		if records[i] != nil {
			result.Files = append(result.Files, *records[i])
		}
		if skips[i] != nil {
			result.Skipped = append(result.Skipped, *skips[i])
		}
	}

	sort.Slice(result.Files, func(i, j int) bool {
		return result.Files[i].Path < result.Files[j].Path
	})
	sort.Slice(result.Skipped, func(i, j int) bool {
		return result.Skipped[i].Path < result.Skipped[j].Path
	})

	s.logger.Info("Scan completed", map[string]interface{}{
		"files":   len(result.Files),
		"skipped": len(result.Skipped),
	})

	return result, nil
}

// collect walks the tree sequentially, pruning excluded directories before
// descent and filtering files by extension and size.
func (s *Scanner) collect() ([]string, []SkippedFile, error) {
	var candidates []string
	var skipped []SkippedFile

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.root {
				return rerrors.New(rerrors.RootUnreadable, "cannot read project root", err)
			}
			s.logger.Warn("Walk error, skipping entry", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
			return nil
		}

		rel, relErr := paths.Canonicalize(path, s.root)
		if relErr != nil || rel == "." {
			return nil
		}

		if d.IsDir() {
			// Pruning here, not filtering later: descending into a
			// dependency cache is asymptotically expensive.
			if s.excluded(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.excluded(rel) {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(rel))
		if !s.includeExts[ext] {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			skipped = append(skipped, SkippedFile{Path: rel, Reason: SkipStatFailed})
			return nil
		}
		if info.Size() > s.cfg.MaxFileSizeBytes {
			s.logger.Debug("Skipping file: too large", map[string]interface{}{
				"file": rel,
				"size": info.Size(),
			})
			skipped = append(skipped, SkippedFile{Path: rel, Reason: SkipTooLarge})
			return nil
		}

		candidates = append(candidates, rel)
		return nil
	})

	if err != nil {
		return nil, nil, err
	}
	return candidates, skipped, nil
}

// excluded matches a canonical relative path against the exclude globs.
func (s *Scanner) excluded(rel string) bool {
	for _, pattern := range s.cfg.ExcludeGlobs {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		// "node_modules/**" should also prune the directory itself.
		if trimmed := strings.TrimSuffix(pattern, "/**"); trimmed != pattern {
			if ok, _ := doublestar.Match(trimmed, rel); ok {
				return true
			}
		}
	}
	return false
}

// processFile produces a record (or a skip) for one file. Read failures
// degrade to a warning; one unreadable file never fails the batch.
func (s *Scanner) processFile(rel string) (*FileRecord, *SkippedFile) {
	full := paths.JoinRoot(s.root, rel)

	info, err := os.Stat(full)
	if err != nil {
		s.logger.Warn("Cannot stat file", map[string]interface{}{
			"file":  rel,
			"error": err.Error(),
		})
		return nil, &SkippedFile{Path: rel, Reason: SkipStatFailed}
	}

	if s.cache != nil {
		if entry, err := s.cache.Get(rel); err == nil && entry != nil {
			if entry.Mtime == info.ModTime().Unix() && entry.Size == info.Size() {
				return recordFromCache(entry), nil
			}
		}
	}

	content, hash, err := readAndHash(full)
	if err != nil {
		s.logger.Warn("Cannot read file", map[string]interface{}{
			"file":  rel,
			"error": err.Error(),
		})
		return nil, &SkippedFile{Path: rel, Reason: SkipReadFailed}
	}

	lang := extract.DetectLanguage(rel)
	res := s.extractor.Extract(rel, content, lang)

	record := &FileRecord{
		Path:            rel,
		ContentHash:     hash,
		Language:        lang,
		SizeBytes:       info.Size(),
		LineCount:       countLines(content),
		ExportedSymbols: res.Exports,
		ImportedModules: res.Imports,
		Category:        InferCategory(rel),
		Runnable:        res.Runnable,
	}

	if s.cache != nil {
		entry := &CachedFile{
			Path:      rel,
			Hash:      hash,
			Mtime:     info.ModTime().Unix(),
			Size:      info.Size(),
			Language:  lang,
			Category:  record.Category,
			LineCount: record.LineCount,
			Runnable:  record.Runnable,
			Exports:   res.Exports,
			Imports:   res.Imports,
		}
		if err := s.cache.Put(entry); err != nil {
			s.logger.Warn("Cannot update scan cache", map[string]interface{}{
				"file":  rel,
				"error": err.Error(),
			})
		}
	}

	return record, nil
}

func recordFromCache(entry *CachedFile) *FileRecord {
	return &FileRecord{
		Path:            entry.Path,
		ContentHash:     entry.Hash,
		Language:        entry.Language,
		SizeBytes:       entry.Size,
		LineCount:       entry.LineCount,
		ExportedSymbols: entry.Exports,
		ImportedModules: entry.Imports,
		Category:        entry.Category,
		Runnable:        entry.Runnable,
	}
}

// readAndHash reads a file in fixed-size chunks, feeding the hash as it
// goes, and returns the full content with its SHA-256 hex digest.
func readAndHash(path string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	var buf bytes.Buffer
	chunk := make([]byte, hashChunkSize)

	for {
		n, err := f.Read(chunk)
		if n > 0 {
			h.Write(chunk[:n])
			buf.Write(chunk[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, "", err
		}
	}

	return buf.Bytes(), hex.EncodeToString(h.Sum(nil)), nil
}

func countLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := bytes.Count(content, []byte{'\n'})
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}
