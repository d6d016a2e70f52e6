//go:build cgo

package extract

import (
	"context"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// TreeSitterExtractor parses sources with tree-sitter grammars. It handles
// forms the regex fallback cannot, like multi-line export clauses inside
// template-heavy files, but degrades identically: parse failure means
// empty sets, never an error. The extractor holds no parser state: the
// underlying C parser is not safe for concurrent use, and scan workers
// call Extract from multiple goroutines.
type TreeSitterExtractor struct{}

// NewTreeSitterExtractor creates the AST-based extractor.
func NewTreeSitterExtractor() *TreeSitterExtractor {
	return &TreeSitterExtractor{}
}

// Name identifies the strategy in logs and provenance.
func (e *TreeSitterExtractor) Name() string {
	return "treesitter"
}

// TreeSitterAvailable reports whether the build carries tree-sitter grammars.
func TreeSitterAvailable() bool {
	return true
}

// Extract parses content and walks the tree for import/export statements.
func (e *TreeSitterExtractor) Extract(path string, content []byte, lang Language) Result {
	grammar := grammarFor(path, lang)
	if grammar == nil {
		return Result{}
	}

	// One parser per call: sitter.Parser carries mutable C-side state and
	// must not be shared across goroutines.
	parser := sitter.NewParser()
	defer parser.Close()

	parser.SetLanguage(grammar)
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil || tree == nil {
		return Result{}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return Result{}
	}

	var res Result
	switch lang {
	case LangTypeScript, LangJavaScript:
		res = extractScriptTree(root, content)
		res.Runnable = reJSTestRunner.Match(content)
	case LangPython:
		res = extractPythonTree(root, content)
		res.Runnable = rePyMainGuard.Match(content)
	}

	res.Exports = dedupe(res.Exports)
	res.Imports = dedupe(res.Imports)
	return res
}

func grammarFor(path string, lang Language) *sitter.Language {
	switch lang {
	case LangTypeScript:
		if strings.EqualFold(filepath.Ext(path), ".tsx") {
			return tsx.GetLanguage()
		}
		return typescript.GetLanguage()
	case LangJavaScript:
		return javascript.GetLanguage()
	case LangPython:
		return python.GetLanguage()
	default:
		return nil
	}
}

func extractScriptTree(root *sitter.Node, source []byte) Result {
	var res Result

	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}

		switch node.Type() {
		case "import_statement":
			if spec := stringValue(node.ChildByFieldName("source"), source); spec != "" {
				res.Imports = append(res.Imports, spec)
			}

		case "export_statement":
			// A source field makes this a re-export: it contributes to the
			// import set as well as the export set.
			if spec := stringValue(node.ChildByFieldName("source"), source); spec != "" {
				res.Imports = append(res.Imports, spec)
			}
			res.Exports = append(res.Exports, exportedNames(node, source)...)

		case "call_expression":
			if spec := callImportSpec(node, source); spec != "" {
				res.Imports = append(res.Imports, spec)
			}
		}

		for i := 0; i < int(node.ChildCount()); i++ {
			walk(node.Child(i))
		}
	}

	walk(root)
	return res
}

// exportedNames resolves the externally visible names of one export statement.
func exportedNames(node *sitter.Node, source []byte) []string {
	var names []string

	if decl := node.ChildByFieldName("declaration"); decl != nil {
		names = append(names, declarationNames(decl, source)...)
	}

	if node.ChildByFieldName("value") != nil {
		// export default <expression>
		names = append(names, "default")
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "export_clause":
			for j := 0; j < int(child.ChildCount()); j++ {
				spec := child.Child(j)
				if spec == nil || spec.Type() != "export_specifier" {
					continue
				}
				// The alias is what importers see; fall back to the name.
				target := spec.ChildByFieldName("alias")
				if target == nil {
					target = spec.ChildByFieldName("name")
				}
				if target != nil {
					names = append(names, target.Content(source))
				}
			}
		case "namespace_export":
			// export * as ns from '...'
			for j := 0; j < int(child.ChildCount()); j++ {
				if id := child.Child(j); id != nil && strings.Contains(id.Type(), "identifier") {
					names = append(names, id.Content(source))
				}
			}
		case "default":
			if node.ChildByFieldName("declaration") == nil && node.ChildByFieldName("value") == nil {
				names = append(names, "default")
			}
		}
	}

	return names
}

// declarationNames extracts names from an exported declaration node.
func declarationNames(decl *sitter.Node, source []byte) []string {
	switch decl.Type() {
	case "function_declaration", "generator_function_declaration", "class_declaration",
		"abstract_class_declaration", "type_alias_declaration", "interface_declaration",
		"enum_declaration":
		if name := decl.ChildByFieldName("name"); name != nil {
			return []string{name.Content(source)}
		}
	case "lexical_declaration", "variable_declaration":
		var names []string
		for i := 0; i < int(decl.ChildCount()); i++ {
			child := decl.Child(i)
			if child == nil || child.Type() != "variable_declarator" {
				continue
			}
			if name := child.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
				names = append(names, name.Content(source))
			}
		}
		return names
	}
	return nil
}

// callImportSpec returns the specifier of require(...) or import(...) calls.
func callImportSpec(node *sitter.Node, source []byte) string {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	fnText := fn.Content(source)
	if fnText != "require" && fn.Type() != "import" {
		return ""
	}

	args := node.ChildByFieldName("arguments")
	if args == nil {
		return ""
	}
	for i := 0; i < int(args.ChildCount()); i++ {
		if arg := args.Child(i); arg != nil && arg.Type() == "string" {
			return stringValue(arg, source)
		}
	}
	return ""
}

func extractPythonTree(root *sitter.Node, source []byte) Result {
	var res Result

	for i := 0; i < int(root.ChildCount()); i++ {
		node := root.Child(i)
		if node == nil {
			continue
		}

		switch node.Type() {
		case "import_statement":
			for j := 0; j < int(node.ChildCount()); j++ {
				child := node.Child(j)
				if child == nil {
					continue
				}
				switch child.Type() {
				case "dotted_name":
					res.Imports = append(res.Imports, child.Content(source))
				case "aliased_import":
					if name := child.ChildByFieldName("name"); name != nil {
						res.Imports = append(res.Imports, name.Content(source))
					}
				}
			}

		case "import_from_statement":
			if mod := node.ChildByFieldName("module_name"); mod != nil {
				res.Imports = append(res.Imports, mod.Content(source))
			}

		case "function_definition", "class_definition":
			if name := node.ChildByFieldName("name"); name != nil {
				text := name.Content(source)
				if !strings.HasPrefix(text, "_") {
					res.Exports = append(res.Exports, text)
				}
			}

		case "decorated_definition":
			if def := node.ChildByFieldName("definition"); def != nil {
				if name := def.ChildByFieldName("name"); name != nil {
					text := name.Content(source)
					if !strings.HasPrefix(text, "_") {
						res.Exports = append(res.Exports, text)
					}
				}
			}
		}
	}

	return res
}

// stringValue returns the unquoted content of a string literal node.
func stringValue(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	text := node.Content(source)
	text = strings.Trim(text, `'"`)
	return strings.TrimSpace(text)
}
