// Package paths provides canonical path handling for the rewire pipeline.
// All paths stored in records, graphs, and ledgers are project-relative
// with forward slashes, so reports are reproducible across platforms.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// Canonicalize converts an absolute path to a project-relative canonical path
// with forward slashes. Symlinks are resolved when the target exists.
func Canonicalize(absolutePath string, root string) (string, error) {
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		if os.IsNotExist(err) {
			resolved = absolutePath
		} else {
			return "", err
		}
	}

	rootResolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		if os.IsNotExist(err) {
			rootResolved = root
		} else {
			return "", err
		}
	}

	relativePath, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}

	return filepath.ToSlash(relativePath), nil
}

// Normalize converts backslashes to forward slashes in an already-relative path.
func Normalize(path string) string {
	return filepath.ToSlash(path)
}

// JoinRoot joins a project root with a canonical path using OS separators.
func JoinRoot(root string, canonicalPath string) string {
	parts := strings.Split(Normalize(canonicalPath), "/")
	return filepath.Join(append([]string{root}, parts...)...)
}

// IsWithin checks if a path is inside the project root.
func IsWithin(path string, root string) bool {
	canonical, err := Canonicalize(path, root)
	if err != nil {
		return false
	}
	return canonical != ".." && !strings.HasPrefix(canonical, "../")
}

// Stem returns the file name without directory or extension.
// "src/utils/formatDate.ts" -> "formatDate".
func Stem(path string) string {
	base := filepath.Base(Normalize(path))
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext)
}

// Slug derives a stable identifier from a canonical path.
// "src/utils/formatDate.ts" -> "src-utils-formatdate-ts".
func Slug(path string) string {
	var b strings.Builder
	lastDash := true // Trim leading separators
	for _, r := range strings.ToLower(Normalize(path)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteRune('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
