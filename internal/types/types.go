// Package types holds the value types shared by the extraction engine and
// its serving surfaces. All positions are zero-based in both line and
// character, matching tree-sitter's Point convention and the LSP wire
// format consumed downstream.
package types

import "fmt"

// Position is a zero-based (line, character) location in source text.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Before reports whether p is lexicographically before q (line, then
// character).
func (p Position) Before(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Character < q.Character
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Character)
}

// Range is a half-open span of source text: End is the first position past
// the covered content. Start <= End must hold for every emitted range; a
// violated range indicates an extraction bug and is dropped before emission.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Valid reports whether the range is well-formed (Start <= End).
func (r Range) Valid() bool {
	return !r.End.Before(r.Start)
}

func (r Range) String() string {
	return fmt.Sprintf("[%s-%s]", r.Start, r.End)
}

// SqlNode is one extracted SQL fragment. CodeRange covers exactly the SQL
// payload characters in the original source (delimiters stripped, start
// tightened past common indentation for multi-line literals). Content is
// the raw literal text, or the reconstructed template with {} placeholders,
// or the joined concatenation operands. MethodLine is the zero-based line
// of the enclosing call expression, not the literal, so UI can anchor the
// call site even when the literal spans many lines.
type SqlNode struct {
	CodeRange  Range  `json:"codeRange"`
	Content    string `json:"content"`
	MethodLine int    `json:"methodLine"`
}
