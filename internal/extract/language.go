package extract

import (
	"path/filepath"
	"strings"
)

// Language identifies the source language of a scanned file.
type Language string

const (
	// LangTypeScript covers .ts and .tsx sources
	LangTypeScript Language = "typescript"
	// LangJavaScript covers .js, .jsx, .mjs, .cjs sources
	LangJavaScript Language = "javascript"
	// LangPython covers .py sources
	LangPython Language = "python"
	// LangOther is anything we scan but cannot extract from
	LangOther Language = "other"
)

// DetectLanguage infers the language from a file extension.
func DetectLanguage(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".tsx":
		return LangTypeScript
	case ".js", ".jsx", ".mjs", ".cjs":
		return LangJavaScript
	case ".py":
		return LangPython
	default:
		return LangOther
	}
}
