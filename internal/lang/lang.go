// Package lang isolates host-language grammars behind a small adapter
// interface. The extraction algorithms never touch grammar node kinds or
// delimiter conventions directly; porting to a new host language means
// writing one adapter file here.
//
// Position semantics: adapters report tree-sitter spans, whose end
// positions INCLUDE the closing delimiter. Adapters therefore state the
// opening and closing delimiter widths explicitly and the normalizer
// strips both. This differs from parsers (such as Python's ast) whose
// multi-line end offsets already exclude the closing delimiter; the
// difference lives entirely in this package.
package lang

import (
	"sort"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/sqlembed/internal/types"
)

// ArgKind classifies the literal form of a SQL-bearing argument node.
// Each kind maps to exactly one extractor.
type ArgKind int

const (
	// KindOther marks argument forms that are never extracted (variables,
	// nested calls, non-string literals).
	KindOther ArgKind = iota
	// KindString is a plain (possibly multi-line) string literal.
	KindString
	// KindTemplate is a template/formatted string with interpolated
	// sub-expressions.
	KindTemplate
	// KindConcat is a two-operand addition of plain string literals.
	KindConcat
)

// StringLit describes a plain string literal in parser-independent terms.
// Start/End are the node's reported span; OpenWidth counts the prefix plus
// opening delimiter characters on the start line, CloseWidth the closing
// delimiter characters on the end line.
type StringLit struct {
	Start      types.Position
	End        types.Position
	OpenWidth  int
	CloseWidth int
	// Multiline is true for delimiter forms that permit embedded newlines
	// (triple quotes, backtick raw strings); only these take the dedent
	// adjustment.
	Multiline bool
}

// TemplateLit describes a template/formatted string. Content is already
// reconstructed: literal segments verbatim, one "{}" placeholder per
// interpolated sub-expression.
type TemplateLit struct {
	Start      types.Position
	End        types.Position
	OpenWidth  int
	CloseWidth int
	Content    string
}

// Grammar adapts one tree-sitter grammar to the extraction engine.
type Grammar interface {
	// Name is the canonical language name ("python", "javascript", ...).
	Name() string
	// Extensions lists the file extensions served by this grammar,
	// including the leading dot.
	Extensions() []string
	// NewParser returns a fresh parser configured for this grammar.
	// tree-sitter parsers are not safe for concurrent use, so every
	// extraction gets its own.
	NewParser() (*tree_sitter.Parser, error)

	// IsCall reports whether the node is a call expression.
	IsCall(n *tree_sitter.Node) bool
	// CalleeName resolves the leaf function identifier of a call: the
	// callee's own name for a direct call, or the final attribute of a
	// method access chain. The receiver is ignored.
	CalleeName(n *tree_sitter.Node, src []byte) (string, bool)
	// PositionalArgs returns the call's positional arguments in order,
	// with keyword arguments excluded.
	PositionalArgs(n *tree_sitter.Node) []*tree_sitter.Node
	// Classify determines the literal form of an argument node.
	Classify(n *tree_sitter.Node, src []byte) ArgKind
	// StringLiteral describes a KindString node.
	StringLiteral(n *tree_sitter.Node, src []byte) (StringLit, bool)
	// Template describes a KindTemplate node.
	Template(n *tree_sitter.Node, src []byte) (TemplateLit, bool)
	// ConcatOperands returns the two plain string operands of a
	// KindConcat node.
	ConcatOperands(n *tree_sitter.Node, src []byte) (left, right *tree_sitter.Node, ok bool)
}

var registry = map[string]Grammar{}
var byExtension = map[string]Grammar{}

func register(g Grammar) {
	registry[g.Name()] = g
	for _, ext := range g.Extensions() {
		byExtension[ext] = g
	}
}

func init() {
	register(Python())
	register(JavaScript())
	register(TypeScript())
	register(Go())
}

// ByName returns the grammar registered under the given language name.
func ByName(name string) (Grammar, bool) {
	g, ok := registry[name]
	return g, ok
}

// ByExtension returns the grammar serving the given file extension
// (including the leading dot).
func ByExtension(ext string) (Grammar, bool) {
	g, ok := byExtension[ext]
	return g, ok
}

// Names lists the registered language names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// nodeText slices the source text covered by a node.
func nodeText(n *tree_sitter.Node, src []byte) string {
	return string(src[n.StartByte():n.EndByte()])
}

// point converts a tree-sitter Point to a Position.
func point(p tree_sitter.Point) types.Position {
	return types.Position{Line: int(p.Row), Character: int(p.Column)}
}
