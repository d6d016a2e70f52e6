// Package graph builds the file-level dependency graph from scan records.
// The graph is a pure function of the record set: same records in, same
// edges out, independent of scan order.
package graph

import (
	"path"
	"sort"
	"strings"

	"rewire/internal/config"
	"rewire/internal/extract"
	"rewire/internal/logging"
	"rewire/internal/paths"
	"rewire/internal/scan"
)

// Graph holds forward and reverse file-level dependency edges. Adjacency
// lists are sorted and deduplicated; Forward and Reverse are mirror images.
type Graph struct {
	// Forward maps a file to the files it imports.
	Forward map[string][]string `json:"forward"`
	// Reverse maps a file to the files that import it.
	Reverse map[string][]string `json:"reverse"`
}

// DependentsCount returns how many files import the given path.
func (g *Graph) DependentsCount(path string) int {
	return len(g.Reverse[path])
}

// Dependents returns the sorted list of files importing the given path.
func (g *Graph) Dependents(path string) []string {
	return g.Reverse[path]
}

// builder resolves import specifiers against the scanned file set.
type builder struct {
	cfg    config.ResolveConfig
	logger *logging.Logger

	// fileSet is the membership map; only scanned files can be edge targets.
	fileSet map[string]bool

	// byStem maps a bare stem ("formatDate") to every file with that stem,
	// sorted, for the last-resort fallback.
	byStem map[string][]string
}

// Build constructs the dependency graph for a set of scan records.
// Specifiers that resolve outside the scanned set (npm packages, stdlib
// modules) are dropped rather than recorded as dangling nodes.
func Build(files []scan.FileRecord, cfg config.ResolveConfig, logger *logging.Logger) *Graph {
	b := &builder{
		cfg:     cfg,
		logger:  logger,
		fileSet: make(map[string]bool, len(files)),
		byStem:  make(map[string][]string),
	}
	for _, f := range files {
		b.fileSet[f.Path] = true
		stem := paths.Stem(f.Path)
		b.byStem[stem] = append(b.byStem[stem], f.Path)
	}
	for stem := range b.byStem {
		sort.Strings(b.byStem[stem])
	}

	g := &Graph{
		Forward: make(map[string][]string, len(files)),
		Reverse: make(map[string][]string, len(files)),
	}
	for _, f := range files {
		g.Forward[f.Path] = nil
		g.Reverse[f.Path] = nil
	}

	for _, f := range files {
		seen := map[string]bool{}
		for _, spec := range f.ImportedModules {
			target := b.resolve(f.Path, spec, f.Language)
			if target == "" || target == f.Path || seen[target] {
				continue
			}
			seen[target] = true
			g.Forward[f.Path] = append(g.Forward[f.Path], target)
			g.Reverse[target] = append(g.Reverse[target], f.Path)
		}
	}

	for k := range g.Forward {
		sort.Strings(g.Forward[k])
	}
	for k := range g.Reverse {
		sort.Strings(g.Reverse[k])
	}

	return g
}

// resolve maps one import specifier to a scanned file path, or "" when the
// specifier points outside the scanned set.
func (b *builder) resolve(importer, spec string, lang extract.Language) string {
	if lang == extract.LangPython {
		return b.resolvePython(importer, spec)
	}

	if !strings.HasPrefix(spec, "./") && !strings.HasPrefix(spec, "../") {
		// Alias-shaped bare specifiers ("@/utils/formatDate",
		// "~/components/Button") point into the project under an alias map
		// we do not model; resolve them by stem so the importee still
		// counts its dependents. Other bare specifiers are npm packages
		// and make no edge.
		rest, ok := aliasRemainder(spec)
		if !ok {
			return ""
		}
		if target := b.lookup(rest); target != "" {
			return target
		}
		return b.stemMatch(rest)
	}

	base := path.Join(path.Dir(importer), spec)

	if target := b.lookup(base); target != "" {
		return target
	}
	if target := b.stemMatch(base); target != "" {
		return target
	}

	b.logger.Debug("Unresolved import specifier", map[string]interface{}{
		"importer": importer,
		"spec":     spec,
	})
	return ""
}

// lookup tries a project-relative base as an exact path ("./styles.css"),
// with extension candidates, then as a directory with an index file.
func (b *builder) lookup(base string) string {
	if b.fileSet[base] {
		return base
	}
	for _, ext := range b.cfg.ExtensionCandidates {
		if candidate := base + ext; b.fileSet[candidate] {
			return candidate
		}
	}
	for _, ext := range b.cfg.ExtensionCandidates {
		if candidate := base + "/index" + ext; b.fileSet[candidate] {
			return candidate
		}
	}
	return ""
}

// stemMatch is the last resort: a unique-ish stem match, sorted so the
// pick is stable.
func (b *builder) stemMatch(base string) string {
	if candidates := b.byStem[path.Base(base)]; len(candidates) > 0 {
		return candidates[0]
	}
	return ""
}

// aliasRemainder strips a path-alias prefix from a bare specifier. Scoped
// npm packages ("@scope/pkg") keep their prefix and do not match.
func aliasRemainder(spec string) (string, bool) {
	for _, prefix := range []string{"@/", "~/"} {
		if strings.HasPrefix(spec, prefix) {
			return strings.TrimPrefix(spec, prefix), true
		}
	}
	return "", false
}

// resolvePython handles "from .sibling import x" style relative modules.
// Absolute module imports (os, requests) are external and dropped.
func (b *builder) resolvePython(importer, spec string) string {
	if !strings.HasPrefix(spec, ".") {
		return ""
	}

	// Each leading dot beyond the first climbs one package level.
	dir := path.Dir(importer)
	rest := strings.TrimLeft(spec, ".")
	for i := 1; i < len(spec)-len(rest); i++ {
		dir = path.Dir(dir)
	}

	module := strings.ReplaceAll(rest, ".", "/")
	base := path.Join(dir, module)

	if candidate := base + ".py"; b.fileSet[candidate] {
		return candidate
	}
	if candidate := base + "/__init__.py"; b.fileSet[candidate] {
		return candidate
	}
	return ""
}
