package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/sqlembed/internal/types"
)

// fromStringLiteral normalizes a plain string literal: strip the delimiters
// reported by the grammar, slice the raw content, then tighten the reported
// start past common indentation for multi-line literals.
//
// Dedenting adjusts only the reported start position. The content string
// stays raw (non-dedented) and the end position is never revisited, even
// when trailing blank lines sit before the closing delimiter.
func (w *walker) fromStringLiteral(arg *tree_sitter.Node, methodLine int) (types.SqlNode, bool) {
	lit, ok := w.grammar.StringLiteral(arg, w.src)
	if !ok {
		return types.SqlNode{}, false
	}

	start := lit.Start
	end := lit.End
	start.Character += lit.OpenWidth
	end.Character -= lit.CloseWidth

	content, ok := w.sliceRange(start, end)
	if !ok {
		return types.SqlNode{}, false
	}

	if lit.Multiline && strings.Contains(content, "\n") {
		start = dedentStart(start, content)
	}

	return types.SqlNode{
		CodeRange:  types.Range{Start: start, End: end},
		Content:    content,
		MethodLine: methodLine,
	}, true
}

// dedentStart advances the start position to the first non-blank content
// character of a multi-line literal: down to the first non-blank line when
// the opening delimiter is immediately followed by a newline, and right by
// the minimum indent shared by all non-blank lines.
func dedentStart(start types.Position, content string) types.Position {
	lines := strings.Split(content, "\n")
	firstIdx := -1
	minIndent := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if firstIdx < 0 {
			firstIdx = i
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if minIndent < 0 || indent < minIndent {
			minIndent = indent
		}
	}
	if firstIdx < 0 {
		// Only blank lines; nothing to tighten.
		return start
	}
	if firstIdx > 0 {
		// SQL starts on a new line after the opening delimiter.
		start.Line += firstIdx
		start.Character = minIndent
	} else {
		// SQL starts on the same line as the opening delimiter.
		start.Character += minIndent
	}
	return start
}

// fromTemplate reconstructs a template/formatted string: literal segments
// verbatim, one {} placeholder per interpolation. The range spans the
// template content between the introducer and the closing delimiter; no
// dedent adjustment is applied to templates.
func (w *walker) fromTemplate(arg *tree_sitter.Node, methodLine int) (types.SqlNode, bool) {
	tpl, ok := w.grammar.Template(arg, w.src)
	if !ok {
		return types.SqlNode{}, false
	}

	start := tpl.Start
	end := tpl.End
	start.Character += tpl.OpenWidth
	end.Character -= tpl.CloseWidth

	return types.SqlNode{
		CodeRange:  types.Range{Start: start, End: end},
		Content:    tpl.Content,
		MethodLine: methodLine,
	}, true
}

// fromConcat handles a two-operand addition of plain string literals.
// Content is the joined inner text of both operands with no separator; the
// range is the whole expression's reported span, with no quote stripping.
// Longer chains and mixed operands never classify as KindConcat.
func (w *walker) fromConcat(arg *tree_sitter.Node, methodLine int) (types.SqlNode, bool) {
	left, right, ok := w.grammar.ConcatOperands(arg, w.src)
	if !ok {
		return types.SqlNode{}, false
	}

	leftText, ok := w.literalInner(left)
	if !ok {
		return types.SqlNode{}, false
	}
	rightText, ok := w.literalInner(right)
	if !ok {
		return types.SqlNode{}, false
	}

	return types.SqlNode{
		CodeRange: types.Range{
			Start: types.Position{Line: int(arg.StartPosition().Row), Character: int(arg.StartPosition().Column)},
			End:   types.Position{Line: int(arg.EndPosition().Row), Character: int(arg.EndPosition().Column)},
		},
		Content:    leftText + rightText,
		MethodLine: methodLine,
	}, true
}

// literalInner returns the raw text between a string literal's delimiters.
func (w *walker) literalInner(n *tree_sitter.Node) (string, bool) {
	lit, ok := w.grammar.StringLiteral(n, w.src)
	if !ok {
		return "", false
	}
	start := lit.Start
	end := lit.End
	start.Character += lit.OpenWidth
	end.Character -= lit.CloseWidth
	return w.sliceRange(start, end)
}

// sliceRange returns the source text covered by a half-open range, joined
// with newlines for multi-line spans. Positions outside the source indicate
// a parser/position inconsistency; the extraction attempt is abandoned.
func (w *walker) sliceRange(start, end types.Position) (string, bool) {
	if start.Line < 0 || end.Line < start.Line || end.Line >= len(w.lines) {
		return "", false
	}
	if start.Line == end.Line {
		line := w.lines[start.Line]
		if start.Character < 0 || end.Character < start.Character || end.Character > len(line) {
			return "", false
		}
		return line[start.Character:end.Character], true
	}

	first := w.lines[start.Line]
	last := w.lines[end.Line]
	if start.Character < 0 || start.Character > len(first) || end.Character < 0 || end.Character > len(last) {
		return "", false
	}

	var b strings.Builder
	b.WriteString(first[start.Character:])
	for i := start.Line + 1; i < end.Line; i++ {
		b.WriteByte('\n')
		b.WriteString(w.lines[i])
	}
	b.WriteByte('\n')
	b.WriteString(last[:end.Character])
	return b.String(), true
}
