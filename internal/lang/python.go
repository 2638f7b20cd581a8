package lang

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// python adapts the tree-sitter-python grammar. Python string nodes carry
// explicit string_start/string_end children holding the prefix and
// delimiters, so delimiter widths are read from the tree instead of being
// re-derived from the source text. Formatted strings (f-prefix) are the
// template form; bytes literals are not strings and are never extracted.
type python struct{}

// Python returns the Python host-language adapter.
func Python() Grammar { return python{} }

func (python) Name() string         { return "python" }
func (python) Extensions() []string { return []string{".py", ".pyi"} }

func (python) NewParser() (*tree_sitter.Parser, error) {
	parser := tree_sitter.NewParser()
	language := tree_sitter.NewLanguage(tree_sitter_python.Language())
	if err := parser.SetLanguage(language); err != nil {
		return nil, err
	}
	return parser, nil
}

func (python) IsCall(n *tree_sitter.Node) bool {
	return n.Kind() == "call"
}

func (python) CalleeName(n *tree_sitter.Node, src []byte) (string, bool) {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return "", false
	}
	switch fn.Kind() {
	case "identifier":
		return nodeText(fn, src), true
	case "attribute":
		if attr := fn.ChildByFieldName("attribute"); attr != nil {
			return nodeText(attr, src), true
		}
	}
	return "", false
}

func (python) PositionalArgs(n *tree_sitter.Node) []*tree_sitter.Node {
	list := n.ChildByFieldName("arguments")
	if list == nil {
		return nil
	}
	var args []*tree_sitter.Node
	count := list.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := list.NamedChild(i)
		switch child.Kind() {
		case "keyword_argument", "dictionary_splat", "comment":
			continue
		}
		args = append(args, child)
	}
	return args
}

func (p python) Classify(n *tree_sitter.Node, src []byte) ArgKind {
	switch n.Kind() {
	case "string":
		prefix := p.stringPrefix(n, src)
		if strings.ContainsAny(prefix, "bB") {
			return KindOther // bytes literal
		}
		if strings.ContainsAny(prefix, "fF") {
			return KindTemplate
		}
		return KindString
	case "binary_operator":
		if _, _, ok := p.ConcatOperands(n, src); ok {
			return KindConcat
		}
	}
	return KindOther
}

func (p python) StringLiteral(n *tree_sitter.Node, src []byte) (StringLit, bool) {
	open, close := p.delimiters(n)
	if open == nil || close == nil {
		return StringLit{}, false
	}
	closeText := nodeText(close, src)
	return StringLit{
		Start:      point(n.StartPosition()),
		End:        point(n.EndPosition()),
		OpenWidth:  int(open.EndByte() - open.StartByte()),
		CloseWidth: len(closeText),
		Multiline:  len(closeText) == 3,
	}, true
}

func (p python) Template(n *tree_sitter.Node, src []byte) (TemplateLit, bool) {
	open, close := p.delimiters(n)
	if open == nil || close == nil {
		return TemplateLit{}, false
	}

	var content strings.Builder
	count := n.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := n.NamedChild(i)
		switch child.Kind() {
		case "string_content", "escape_sequence":
			content.WriteString(nodeText(child, src))
		case "interpolation":
			content.WriteString("{}")
		}
	}

	return TemplateLit{
		Start:      point(n.StartPosition()),
		End:        point(n.EndPosition()),
		OpenWidth:  int(open.EndByte() - open.StartByte()),
		CloseWidth: int(close.EndByte() - close.StartByte()),
		Content:    content.String(),
	}, true
}

func (p python) ConcatOperands(n *tree_sitter.Node, src []byte) (*tree_sitter.Node, *tree_sitter.Node, bool) {
	if n.Kind() != "binary_operator" {
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
	if p.Classify(left, src) != KindString || p.Classify(right, src) != KindString {
		return nil, nil, false
	}
	return left, right, true
}

// delimiters returns the string_start and string_end children of a string
// node, or nils when the node is malformed.
func (python) delimiters(n *tree_sitter.Node) (open, close *tree_sitter.Node) {
	count := n.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := n.NamedChild(i)
		switch child.Kind() {
		case "string_start":
			open = child
		case "string_end":
			close = child
		}
	}
	return open, close
}

// stringPrefix returns the literal prefix characters (r, b, f, ...)
// preceding the opening quote.
func (p python) stringPrefix(n *tree_sitter.Node, src []byte) string {
	open, _ := p.delimiters(n)
	if open == nil {
		return ""
	}
	text := nodeText(open, src)
	if i := strings.IndexAny(text, `"'`); i >= 0 {
		return text[:i]
	}
	return text
}
