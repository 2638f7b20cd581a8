package lang

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
)

// golang adapts the tree-sitter-go grammar. Go has no template strings;
// raw (backtick) literals are the multi-line form and take the dedent
// adjustment, interpreted literals are single-line.
type golang struct{}

// Go returns the Go host-language adapter.
func Go() Grammar { return golang{} }

func (golang) Name() string         { return "go" }
func (golang) Extensions() []string { return []string{".go"} }

func (golang) NewParser() (*tree_sitter.Parser, error) {
	parser := tree_sitter.NewParser()
	language := tree_sitter.NewLanguage(tree_sitter_go.Language())
	if err := parser.SetLanguage(language); err != nil {
		return nil, err
	}
	return parser, nil
}

func (golang) IsCall(n *tree_sitter.Node) bool {
	return n.Kind() == "call_expression"
}

func (golang) CalleeName(n *tree_sitter.Node, src []byte) (string, bool) {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return "", false
	}
	switch fn.Kind() {
	case "identifier":
		return nodeText(fn, src), true
	case "selector_expression":
		if field := fn.ChildByFieldName("field"); field != nil {
			return nodeText(field, src), true
		}
	}
	return "", false
}

func (golang) PositionalArgs(n *tree_sitter.Node) []*tree_sitter.Node {
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

func (g golang) Classify(n *tree_sitter.Node, src []byte) ArgKind {
	switch n.Kind() {
	case "interpreted_string_literal", "raw_string_literal":
		return KindString
	case "binary_expression":
		if _, _, ok := g.ConcatOperands(n, src); ok {
			return KindConcat
		}
	}
	return KindOther
}

func (golang) StringLiteral(n *tree_sitter.Node, src []byte) (StringLit, bool) {
	switch n.Kind() {
	case "interpreted_string_literal":
		return StringLit{
			Start:      point(n.StartPosition()),
			End:        point(n.EndPosition()),
			OpenWidth:  1,
			CloseWidth: 1,
		}, true
	case "raw_string_literal":
		return StringLit{
			Start:      point(n.StartPosition()),
			End:        point(n.EndPosition()),
			OpenWidth:  1,
			CloseWidth: 1,
			Multiline:  true,
		}, true
	}
	return StringLit{}, false
}

func (golang) Template(n *tree_sitter.Node, src []byte) (TemplateLit, bool) {
	// Go has no template string form.
	return TemplateLit{}, false
}

func (g golang) ConcatOperands(n *tree_sitter.Node, src []byte) (*tree_sitter.Node, *tree_sitter.Node, bool) {
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
	if g.Classify(left, src) != KindString || g.Classify(right, src) != KindString {
		return nil, nil, false
	}
	return left, right, true
}
