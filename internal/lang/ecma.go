package lang

import (
	"strings"
	"unsafe"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// ecma covers the shared ECMAScript node shapes: the JavaScript and
// TypeScript grammars emit identical kinds for calls, strings and template
// literals, so both adapters share this implementation and differ only in
// name, extensions and grammar pointer.
type ecma struct {
	name       string
	extensions []string
	language   func() unsafe.Pointer
}

// JavaScript returns the JavaScript host-language adapter.
func JavaScript() Grammar {
	return ecma{
		name:       "javascript",
		extensions: []string{".js", ".jsx", ".mjs", ".cjs"},
		language:   tree_sitter_javascript.Language,
	}
}

// TypeScript returns the TypeScript host-language adapter.
func TypeScript() Grammar {
	return ecma{
		name:       "typescript",
		extensions: []string{".ts", ".mts", ".cts"},
		language:   tree_sitter_typescript.LanguageTypescript,
	}
}

func (e ecma) Name() string         { return e.name }
func (e ecma) Extensions() []string { return e.extensions }

func (e ecma) NewParser() (*tree_sitter.Parser, error) {
	parser := tree_sitter.NewParser()
	language := tree_sitter.NewLanguage(e.language())
	if err := parser.SetLanguage(language); err != nil {
		return nil, err
	}
	return parser, nil
}

func (ecma) IsCall(n *tree_sitter.Node) bool {
	return n.Kind() == "call_expression"
}

func (ecma) CalleeName(n *tree_sitter.Node, src []byte) (string, bool) {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return "", false
	}
	switch fn.Kind() {
	case "identifier":
		return nodeText(fn, src), true
	case "member_expression":
		if prop := fn.ChildByFieldName("property"); prop != nil {
			return nodeText(prop, src), true
		}
	}
	return "", false
}

func (ecma) PositionalArgs(n *tree_sitter.Node) []*tree_sitter.Node {
	list := n.ChildByFieldName("arguments")
	if list == nil {
		return nil
	}
	var args []*tree_sitter.Node
	count := list.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := list.NamedChild(i)
		if child.Kind() == "comment" {
			continue
		}
		args = append(args, child)
	}
	return args
}

func (e ecma) Classify(n *tree_sitter.Node, src []byte) ArgKind {
	switch n.Kind() {
	case "string":
		return KindString
	case "template_string":
		return KindTemplate
	case "binary_expression":
		if _, _, ok := e.ConcatOperands(n, src); ok {
			return KindConcat
		}
	}
	return KindOther
}

func (ecma) StringLiteral(n *tree_sitter.Node, src []byte) (StringLit, bool) {
	if n.Kind() != "string" {
		return StringLit{}, false
	}
	// Single and double quoted strings are one character each side and
	// cannot span lines.
	return StringLit{
		Start:      point(n.StartPosition()),
		End:        point(n.EndPosition()),
		OpenWidth:  1,
		CloseWidth: 1,
	}, true
}

func (ecma) Template(n *tree_sitter.Node, src []byte) (TemplateLit, bool) {
	if n.Kind() != "template_string" {
		return TemplateLit{}, false
	}

	var content strings.Builder
	count := n.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := n.NamedChild(i)
		switch child.Kind() {
		case "string_fragment", "escape_sequence":
			content.WriteString(nodeText(child, src))
		case "template_substitution":
			content.WriteString("{}")
		}
	}

	// Backtick delimiters, one character each side.
	return TemplateLit{
		Start:      point(n.StartPosition()),
		End:        point(n.EndPosition()),
		OpenWidth:  1,
		CloseWidth: 1,
		Content:    content.String(),
	}, true
}

func (e ecma) ConcatOperands(n *tree_sitter.Node, src []byte) (*tree_sitter.Node, *tree_sitter.Node, bool) {
	if n.Kind() != "binary_expression" {
		return nil, nil, false
	}
	op := n.ChildByFieldName("operator")
	if op == nil || op.Kind() != "+" {
		return nil, nil, false
	}
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if left == nil || right == nil {
		return nil, nil, false
	}
	if left.Kind() != "string" || right.Kind() != "string" {
		return nil, nil, false
	}
	return left, right, true
}
