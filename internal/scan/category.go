package scan

import (
	"path/filepath"
	"strings"
	"unicode"

	"rewire/internal/paths"
)

// configBasenames are manifest/config files recognized regardless of location.
var configBasenames = map[string]bool{
	"package.json":       true,
	"tsconfig.json":      true,
	"jsconfig.json":      true,
	"babel.config.js":    true,
	"webpack.config.js":  true,
	"vite.config.ts":     true,
	"vite.config.js":     true,
	"next.config.js":     true,
	"jest.config.js":     true,
	"jest.config.ts":     true,
	"setup.py":           true,
	"pyproject.toml":     true,
	".eslintrc.js":       true,
	".eslintrc.json":     true,
	".prettierrc":        true,
}

var assetExtensions = map[string]bool{
	".css": true, ".scss": true, ".less": true,
	".svg": true, ".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".woff": true, ".woff2": true, ".ttf": true, ".ico": true,
}

// InferCategory classifies a file by path heuristics, checked in a fixed
// priority order so every file gets exactly one category.
func InferCategory(path string) Category {
	p := paths.Normalize(path)
	base := filepath.Base(p)
	lower := strings.ToLower(p)
	ext := strings.ToLower(filepath.Ext(base))

	switch {
	case isTestPath(lower, base):
		return CategoryTest
	case configBasenames[base] || strings.Contains(base, ".config."):
		return CategoryConfiguration
	case strings.HasSuffix(lower, ".d.ts") || strings.Contains(lower, "/types/") || base == "types.ts":
		return CategoryTypeDefinition
	case assetExtensions[ext]:
		return CategoryAsset
	case strings.Contains(lower, "/components/") || strings.Contains(lower, "/pages/") || strings.Contains(lower, "/views/"):
		return CategoryUIComponent
	case (ext == ".tsx" || ext == ".jsx") && startsUpper(paths.Stem(base)):
		return CategoryUIComponent
	case strings.Contains(lower, "/services/") || strings.Contains(lower, ".service."):
		return CategoryService
	case strings.Contains(lower, "/utils/") || strings.Contains(lower, "/util/") ||
		strings.Contains(lower, "/helpers/") || strings.Contains(lower, "/lib/"):
		return CategoryUtility
	default:
		return CategoryUnknown
	}
}

func isTestPath(lower, base string) bool {
	if strings.Contains(lower, ".test.") || strings.Contains(lower, ".spec.") {
		return true
	}
	if strings.Contains(lower, "/__tests__/") || strings.Contains(lower, "/tests/") {
		return true
	}
	baseLower := strings.ToLower(base)
	stem := strings.TrimSuffix(baseLower, filepath.Ext(baseLower))
	return strings.HasPrefix(stem, "test_") || strings.HasSuffix(stem, "_test")
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}
