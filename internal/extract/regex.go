package extract

import (
	"regexp"
	"strings"
)

// TS/JS export forms
var (
	reExportFunc  = regexp.MustCompile(`(?m)^\s*export\s+(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)`)
	reExportClass = regexp.MustCompile(`(?m)^\s*export\s+(?:default\s+)?(?:abstract\s+)?class\s+([A-Za-z_$][\w$]*)`)
	reExportVar   = regexp.MustCompile(`(?m)^\s*export\s+(?:declare\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)`)
	reExportType  = regexp.MustCompile(`(?m)^\s*export\s+(?:declare\s+)?(?:type|interface|enum)\s+([A-Za-z_$][\w$]*)`)

	// export { a, b as c } possibly with a re-export source
	reExportList = regexp.MustCompile(`(?m)^\s*export\s*\{([^}]*)\}`)

	// export default <identifier-or-expression>; declarations are handled above
	reExportDefault = regexp.MustCompile(`(?m)^\s*export\s+default\s+([A-Za-z_$][\w$]*)?`)

	// CommonJS
	reModuleExportsObj  = regexp.MustCompile(`module\.exports\s*=\s*\{([^}]*)\}`)
	reModuleExportsProp = regexp.MustCompile(`(?:module\.)?\bexports\.([A-Za-z_$][\w$]*)\s*=`)
	reModuleExportsBare = regexp.MustCompile(`(?m)module\.exports\s*=\s*([A-Za-z_$][\w$]*)\s*;?\s*$`)
)

// TS/JS import forms
var (
	reImportFrom = regexp.MustCompile(`\bimport\s+[^'";]*?from\s*['"]([^'"]+)['"]`)
	reImportBare = regexp.MustCompile(`(?m)^\s*import\s*['"]([^'"]+)['"]`)
	reExportFrom = regexp.MustCompile(`\bexport\s+[^'";]*?from\s*['"]([^'"]+)['"]`)
	reRequire    = regexp.MustCompile(`\brequire\s*\(\s*['"]([^'"]+)['"]\s*\)`)
	reDynImport  = regexp.MustCompile(`\bimport\s*\(\s*['"]([^'"]+)['"]\s*\)`)
)

// Python forms
var (
	rePyFromImport = regexp.MustCompile(`(?m)^\s*from\s+([.\w]+)\s+import`)
	rePyImport     = regexp.MustCompile(`(?m)^\s*import\s+([\w.]+)`)
	rePyDef        = regexp.MustCompile(`(?m)^(?:async\s+)?def\s+([A-Za-z_]\w*)`)
	rePyClass      = regexp.MustCompile(`(?m)^class\s+([A-Za-z_]\w*)`)
)

// Runnable markers
var (
	rePyMainGuard  = regexp.MustCompile(`__name__\s*==\s*['"]__main__['"]`)
	reJSTestRunner = regexp.MustCompile(`(?m)^\s*(?:describe|it|test)\s*\(`)
)

// RegexExtractor is the always-available fallback extraction strategy.
type RegexExtractor struct{}

// NewRegexExtractor creates the regex fallback extractor.
func NewRegexExtractor() *RegexExtractor {
	return &RegexExtractor{}
}

// Name identifies the strategy in logs and provenance.
func (e *RegexExtractor) Name() string {
	return "regex"
}

// Extract scans content with the pattern set for the detected language.
func (e *RegexExtractor) Extract(path string, content []byte, lang Language) Result {
	switch lang {
	case LangTypeScript, LangJavaScript:
		return e.extractScript(content)
	case LangPython:
		return e.extractPython(content)
	default:
		return Result{}
	}
}

func (e *RegexExtractor) extractScript(content []byte) Result {
	src := string(content)

	var exports []string
	for _, re := range []*regexp.Regexp{reExportFunc, reExportClass, reExportVar, reExportType} {
		for _, m := range re.FindAllStringSubmatch(src, -1) {
			exports = append(exports, m[1])
		}
	}

	for _, m := range reExportList.FindAllStringSubmatch(src, -1) {
		exports = append(exports, parseExportList(m[1])...)
	}

	for _, m := range reExportDefault.FindAllStringSubmatch(src, -1) {
		name := m[1]
		switch name {
		case "function", "class", "async", "abstract":
			// Declaration forms already captured with their real name
		case "":
			exports = append(exports, "default")
		default:
			exports = append(exports, "default")
		}
	}

	for _, m := range reModuleExportsObj.FindAllStringSubmatch(src, -1) {
		exports = append(exports, parseObjectKeys(m[1])...)
	}
	for _, m := range reModuleExportsProp.FindAllStringSubmatch(src, -1) {
		exports = append(exports, m[1])
	}
	if reModuleExportsBare.MatchString(src) && !reModuleExportsObj.MatchString(src) {
		exports = append(exports, "default")
	}

	var imports []string
	for _, re := range []*regexp.Regexp{reImportFrom, reImportBare, reExportFrom, reRequire, reDynImport} {
		for _, m := range re.FindAllStringSubmatch(src, -1) {
			spec := strings.TrimSpace(m[1])
			if spec != "" {
				imports = append(imports, spec)
			}
		}
	}

	return Result{
		Exports:  dedupe(exports),
		Imports:  dedupe(imports),
		Runnable: reJSTestRunner.MatchString(src),
	}
}

func (e *RegexExtractor) extractPython(content []byte) Result {
	src := string(content)

	var exports []string
	for _, re := range []*regexp.Regexp{rePyDef, rePyClass} {
		for _, m := range re.FindAllStringSubmatch(src, -1) {
			// Leading underscore is module-private by convention
			if !strings.HasPrefix(m[1], "_") {
				exports = append(exports, m[1])
			}
		}
	}

	var imports []string
	for _, re := range []*regexp.Regexp{rePyFromImport, rePyImport} {
		for _, m := range re.FindAllStringSubmatch(src, -1) {
			imports = append(imports, m[1])
		}
	}

	return Result{
		Exports:  dedupe(exports),
		Imports:  dedupe(imports),
		Runnable: rePyMainGuard.MatchString(src),
	}
}

// parseExportList resolves "a, b as c, type D" to externally visible names.
// An aliased export resolves to the alias, which is the name importers see.
func parseExportList(list string) []string {
	var names []string
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		item = strings.TrimPrefix(item, "type ")
		if idx := strings.Index(item, " as "); idx >= 0 {
			item = strings.TrimSpace(item[idx+4:])
		}
		if isIdentifier(item) || item == "default" {
			names = append(names, item)
		}
	}
	return names
}

// parseObjectKeys extracts keys from a CommonJS export object literal.
// "{ foo, bar: internalBar }" exports foo and bar.
func parseObjectKeys(body string) []string {
	var names []string
	for _, item := range strings.Split(body, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if idx := strings.Index(item, ":"); idx >= 0 {
			item = strings.TrimSpace(item[:idx])
		}
		// Spread entries and computed keys cannot be named statically
		if isIdentifier(item) {
			names = append(names, item)
		}
	}
	return names
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
