package wiki

import (
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// outlineQuery pairs a display tag with a tree-sitter query capturing
// declaration names.
type outlineQuery struct {
	tag   string
	query string
}

var outlineQueries = map[string][]outlineQuery{
	"go": {
		{"function", "(function_declaration name: (identifier) @name)"},
		{"method", "(method_declaration name: (field_identifier) @name)"},
		{"type", "(type_spec name: (type_identifier) @name)"},
	},
	"python": {
		{"class", "(class_definition name: (identifier) @name)"},
		{"function", "(function_definition name: (identifier) @name)"},
	},
	"javascript": {
		{"class", "(class_declaration name: (identifier) @name)"},
		{"function", "(function_declaration name: (identifier) @name)"},
		{"method", "(method_definition name: (property_identifier) @name)"},
	},
	"typescript": {
		{"class", "(class_declaration name: (type_identifier) @name)"},
		{"interface", "(interface_declaration name: (type_identifier) @name)"},
		{"function", "(function_declaration name: (identifier) @name)"},
	},
}

// DetectLanguage maps a file path to the outline language key, or ""
// when the file has no supported grammar.
func DetectLanguage(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return "go"
	case ".py":
		return "python"
	case ".js", ".jsx", ".mjs":
		return "javascript"
	case ".ts", ".tsx":
		return "typescript"
	default:
		return ""
	}
}

func languageFor(name string) *sitter.Language {
	switch name {
	case "go":
		return golang.GetLanguage()
	case "python":
		return python.GetLanguage()
	case "javascript":
		return javascript.GetLanguage()
	case "typescript":
		return typescript.GetLanguage()
	default:
		return nil
	}
}

// ExtractOutline parses the source with the grammar for its language
// and returns tagged declaration names ("function: Crawl"). Files
// without a supported grammar yield a nil outline and the page simply
// omits the structure section.
func ExtractOutline(relPath string, source []byte) []string {
	langName := DetectLanguage(relPath)
	lang := languageFor(langName)
	if lang == nil {
		return nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree := parser.Parse(nil, source)
	if tree == nil {
		return nil
	}

	var elements []string
	for _, oq := range outlineQueries[langName] {
		query, err := sitter.NewQuery([]byte(oq.query), lang)
		if err != nil {
			continue
		}

		cursor := sitter.NewQueryCursor()
		cursor.Exec(query, tree.RootNode())

		for {
			match, ok := cursor.NextMatch()
			if !ok {
				break
			}

			for _, capture := range match.Captures {
				elements = append(elements, fmt.Sprintf("%s: %s", oq.tag, capture.Node.Content(source)))
			}
		}
	}

	return elements
}
