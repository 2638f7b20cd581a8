// Package extract locates embedded SQL text in host-language source and
// reports the exact character range of each SQL payload plus the line of
// the enclosing call.
//
// The engine is a single synchronous tree walk. It holds no state across
// invocations; concurrent calls on independent sources are safe because
// every call builds its own parser and traversal state.
package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/sqlembed/internal/config"
	"github.com/standardbeagle/sqlembed/internal/debug"
	"github.com/standardbeagle/sqlembed/internal/lang"
	"github.com/standardbeagle/sqlembed/internal/types"
)

// Extract parses source under the given grammar and returns every SQL
// fragment matched by the site list, in document order. An empty or nil
// site list selects the defaults.
//
// Extract never fails: malformed source (a parse tree whose root contains
// syntax errors) yields an empty result, and a failure while extracting one
// literal skips that literal only. Callers cannot distinguish "no SQL
// found" from "input unusable" without the debug diagnostics; that is the
// intended boundary contract.
func Extract(source string, grammar lang.Grammar, sites []config.QuerySite) []types.SqlNode {
	if len(sites) == 0 {
		sites = config.DefaultSites()
	}

	parser, err := grammar.NewParser()
	if err != nil {
		debug.LogExtract("parser init failed for %s: %v\n", grammar.Name(), err)
		return []types.SqlNode{}
	}
	defer parser.Close()

	src := []byte(source)
	tree := parser.Parse(src, nil)
	if tree == nil {
		debug.LogExtract("parse returned no tree for %s source\n", grammar.Name())
		return []types.SqlNode{}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.HasError() {
		// tree-sitter reports malformed input through error nodes rather
		// than a failed parse; treat any error in the tree as the
		// source-parse failure of the boundary contract.
		debug.LogExtract("syntax errors in %s source, returning empty result\n", grammar.Name())
		return []types.SqlNode{}
	}

	w := &walker{
		grammar: grammar,
		sites:   sites,
		src:     src,
		lines:   strings.Split(source, "\n"),
		nodes:   []types.SqlNode{},
	}
	w.visit(root)
	return w.nodes
}

// ExtractPayload decodes a JSON site payload and extracts with it. A
// payload that fails to decode or validate is reported and replaced by the
// default site list; extraction proceeds either way.
func ExtractPayload(source string, grammar lang.Grammar, payload []byte) []types.SqlNode {
	sites := config.DefaultSites()
	if len(payload) > 0 {
		decoded, err := config.DecodeSites(payload)
		switch {
		case err != nil:
			debug.LogExtract("site payload rejected, using defaults: %v\n", err)
		case len(decoded) > 0:
			sites = decoded
		}
	}
	return Extract(source, grammar, sites)
}

// walker carries the per-call traversal state: the matched-node accumulator
// and the pre-split source lines used for range slicing.
type walker struct {
	grammar lang.Grammar
	sites   []config.QuerySite
	src     []byte
	lines   []string
	nodes   []types.SqlNode
}

// visit walks every node in document order. Matched calls do not stop the
// descent: a call's arguments may themselves contain further calls.
func (w *walker) visit(n *tree_sitter.Node) {
	if n == nil {
		return
	}
	if w.grammar.IsCall(n) {
		w.processCall(n)
	}
	count := n.ChildCount()
	for i := uint(0); i < count; i++ {
		w.visit(n.Child(i))
	}
}

// processCall matches a call expression against every configured site.
// Each matching site is evaluated independently, so a call can emit more
// than one record. Sites whose argument index exceeds the positional
// argument count are skipped silently.
func (w *walker) processCall(call *tree_sitter.Node) {
	name, ok := w.grammar.CalleeName(call, w.src)
	if !ok {
		return
	}

	var args []*tree_sitter.Node
	argsResolved := false
	methodLine := int(call.StartPosition().Row)

	for _, site := range w.sites {
		if site.FunctionName != name {
			continue
		}
		if !argsResolved {
			args = w.grammar.PositionalArgs(call)
			argsResolved = true
		}
		if len(args) < site.SQLArgNo {
			continue
		}
		w.extractArg(args[site.SQLArgNo-1], site, methodLine)
	}
}

// extractArg dispatches one SQL-bearing argument to the extractor for its
// literal kind. Any panic while handling the node (out-of-range positions
// from a parser inconsistency, unexpected tree shapes) is scoped to this
// argument: the node is dropped and traversal continues.
func (w *walker) extractArg(arg *tree_sitter.Node, site config.QuerySite, methodLine int) {
	defer func() {
		if r := recover(); r != nil {
			debug.LogExtract("skipping literal at %d:%d: %v\n",
				arg.StartPosition().Row, arg.StartPosition().Column, r)
		}
	}()

	var (
		node types.SqlNode
		ok   bool
	)
	switch w.grammar.Classify(arg, w.src) {
	case lang.KindString:
		node, ok = w.fromStringLiteral(arg, methodLine)
	case lang.KindTemplate:
		if !site.IsStringTemplate {
			return
		}
		node, ok = w.fromTemplate(arg, methodLine)
	case lang.KindConcat:
		node, ok = w.fromConcat(arg, methodLine)
	default:
		return
	}
	if !ok {
		return
	}
	if !node.CodeRange.Valid() {
		debug.LogExtract("dropping inverted range %s\n", node.CodeRange)
		return
	}
	w.nodes = append(w.nodes, node)
}
