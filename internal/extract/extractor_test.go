package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/sqlembed/internal/config"
	"github.com/standardbeagle/sqlembed/internal/lang"
	"github.com/standardbeagle/sqlembed/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func grammar(t *testing.T, name string) lang.Grammar {
	t.Helper()
	g, ok := lang.ByName(name)
	require.True(t, ok, "grammar %s must be registered", name)
	return g
}

func pos(line, char int) types.Position {
	return types.Position{Line: line, Character: char}
}

func TestExtractSimpleLiteral(t *testing.T) {
	source := `cursor.execute("SELECT 1")` + "\n"

	nodes := Extract(source, grammar(t, "python"), nil)

	require.Len(t, nodes, 1)
	node := nodes[0]
	assert.Equal(t, "SELECT 1", node.Content)
	assert.Equal(t, pos(0, 16), node.CodeRange.Start, "start sits just past the opening quote")
	assert.Equal(t, pos(0, 24), node.CodeRange.End, "end sits just before the closing quote")
	assert.Equal(t, 0, node.MethodLine)
}

func TestExtractMultilineDedent(t *testing.T) {
	source := `cursor.execute("""
    SELECT id
    FROM users
""")` + "\n"

	nodes := Extract(source, grammar(t, "python"), nil)

	require.Len(t, nodes, 1)
	node := nodes[0]
	// Content stays raw, including the leading newline and the indentation.
	assert.Equal(t, "\n    SELECT id\n    FROM users\n", node.Content)
	// Start is tightened to the first non-blank character: down one line
	// past the opening delimiter, right past the common 4-space indent.
	assert.Equal(t, pos(1, 4), node.CodeRange.Start)
	// End stays where the parser put it, before the closing delimiter, even
	// though the last content line is blank.
	assert.Equal(t, pos(3, 0), node.CodeRange.End)
	assert.Equal(t, 0, node.MethodLine)
}

func TestExtractMethodLineIsCallLine(t *testing.T) {
	source := "cursor.execute(\n    \"SELECT 1\"\n)\n"

	nodes := Extract(source, grammar(t, "python"), nil)

	require.Len(t, nodes, 1)
	node := nodes[0]
	assert.Equal(t, 0, node.MethodLine, "the call line, not the literal line")
	assert.Equal(t, pos(1, 5), node.CodeRange.Start)
	assert.Equal(t, pos(1, 13), node.CodeRange.End)
}

func TestExtractIgnoresVariableArgument(t *testing.T) {
	source := "cursor.execute(sql)\n"

	nodes := Extract(source, grammar(t, "python"), nil)

	assert.Empty(t, nodes)
}

func TestExtractIgnoresNonMatchingCall(t *testing.T) {
	source := `log("SELECT 1")` + "\n"

	nodes := Extract(source, grammar(t, "python"), nil)

	assert.Empty(t, nodes)
}

func TestExtractTemplateRequiresOptIn(t *testing.T) {
	source := `cursor.execute(f"SELECT * FROM {table}")` + "\n"

	t.Run("default sites skip templates", func(t *testing.T) {
		nodes := Extract(source, grammar(t, "python"), nil)
		assert.Empty(t, nodes)
	})

	t.Run("opted-in site reconstructs placeholders", func(t *testing.T) {
		sites := []config.QuerySite{
			{FunctionName: "execute", SQLArgNo: 1, IsStringTemplate: true},
		}
		nodes := Extract(source, grammar(t, "python"), sites)

		require.Len(t, nodes, 1)
		node := nodes[0]
		assert.Equal(t, "SELECT * FROM {}", node.Content)
		// Start past the f-prefix and quote, end before the closing quote.
		assert.Equal(t, pos(0, 17), node.CodeRange.Start)
		assert.Equal(t, pos(0, 38), node.CodeRange.End)
	})
}

func TestExtractConcatenation(t *testing.T) {
	source := `cursor.execute("SELECT * " + "FROM t")` + "\n"

	nodes := Extract(source, grammar(t, "python"), nil)

	require.Len(t, nodes, 1)
	node := nodes[0]
	assert.Equal(t, "SELECT * FROM t", node.Content, "operands joined with no separator")
	// The range spans the whole expression, delimiters included.
	assert.Equal(t, pos(0, 15), node.CodeRange.Start)
	assert.Equal(t, pos(0, 37), node.CodeRange.End)
}

func TestExtractConcatenationRejectsMixedOperands(t *testing.T) {
	for name, source := range map[string]string{
		"variable operand": `cursor.execute("SELECT * FROM " + table)` + "\n",
		"three operands":   `cursor.execute("SELECT " + "* " + "FROM t")` + "\n",
	} {
		t.Run(name, func(t *testing.T) {
			nodes := Extract(source, grammar(t, "python"), nil)
			assert.Empty(t, nodes)
		})
	}
}

func TestExtractSkipsAdjacentLiteralConcatenation(t *testing.T) {
	// Implicit concatenation of adjacent literals is a distinct node shape
	// and is deliberately not extracted.
	source := `cursor.execute("SELECT 1 " "FROM t")` + "\n"

	nodes := Extract(source, grammar(t, "python"), nil)

	assert.Empty(t, nodes)
}

func TestExtractBytesLiteralIgnored(t *testing.T) {
	source := `cursor.execute(b"SELECT 1")` + "\n"

	nodes := Extract(source, grammar(t, "python"), nil)

	assert.Empty(t, nodes)
}

func TestExtractMalformedSourceYieldsEmpty(t *testing.T) {
	source := "def broken(:\n"

	nodes := Extract(source, grammar(t, "python"), nil)

	assert.NotNil(t, nodes)
	assert.Empty(t, nodes)
}

func TestExtractEmptySource(t *testing.T) {
	nodes := Extract("", grammar(t, "python"), nil)

	assert.NotNil(t, nodes)
	assert.Empty(t, nodes)
}

func TestExtractMultipleSitesSameName(t *testing.T) {
	// Two sites for the same function name fire independently, so one call
	// can produce one record per site.
	source := `execute("SELECT a", "SELECT b")` + "\n"
	sites := []config.QuerySite{
		{FunctionName: "execute", SQLArgNo: 1},
		{FunctionName: "execute", SQLArgNo: 2},
	}

	nodes := Extract(source, grammar(t, "python"), sites)

	require.Len(t, nodes, 2)
	assert.Equal(t, "SELECT a", nodes[0].Content)
	assert.Equal(t, "SELECT b", nodes[1].Content)
}

func TestExtractArgIndexBeyondArity(t *testing.T) {
	source := `execute("SELECT 1")` + "\n"
	sites := []config.QuerySite{
		{FunctionName: "execute", SQLArgNo: 3},
	}

	nodes := Extract(source, grammar(t, "python"), sites)

	assert.Empty(t, nodes)
}

func TestExtractKeywordArgumentsNotPositional(t *testing.T) {
	source := `execute(timeout=5)` + "\n"
	nodes := Extract(source, grammar(t, "python"), nil)
	assert.Empty(t, nodes)

	// The keyword argument does not shift positional indexing.
	source = `execute("SELECT 1", timeout=5)` + "\n"
	nodes = Extract(source, grammar(t, "python"), nil)
	require.Len(t, nodes, 1)
	assert.Equal(t, "SELECT 1", nodes[0].Content)
}

func TestExtractNestedCall(t *testing.T) {
	// The matched outer call's argument is itself a call; the walk descends
	// into it and surfaces the inner literal.
	source := `query(wrap(execute("SELECT 1")))` + "\n"

	nodes := Extract(source, grammar(t, "python"), nil)

	require.Len(t, nodes, 1)
	assert.Equal(t, "SELECT 1", nodes[0].Content)
}

func TestExtractDocumentOrder(t *testing.T) {
	source := `execute("SELECT 1")
query("SELECT 2")
cursor.execute("SELECT 3")
`

	nodes := Extract(source, grammar(t, "python"), nil)

	require.Len(t, nodes, 3)
	assert.Equal(t, "SELECT 1", nodes[0].Content)
	assert.Equal(t, "SELECT 2", nodes[1].Content)
	assert.Equal(t, "SELECT 3", nodes[2].Content)
	assert.Equal(t, 0, nodes[0].MethodLine)
	assert.Equal(t, 1, nodes[1].MethodLine)
	assert.Equal(t, 2, nodes[2].MethodLine)
}

func TestExtractRangesAreValid(t *testing.T) {
	source := `execute("SELECT 1")
cursor.execute("""
  SELECT id
""")
query("a" + "b")
`

	nodes := Extract(source, grammar(t, "python"), nil)

	require.Len(t, nodes, 3)
	for _, node := range nodes {
		assert.True(t, node.CodeRange.Valid(), "range %s", node.CodeRange)
	}
}

func TestExtractPayloadFallsBackToDefaults(t *testing.T) {
	source := `cursor.execute("SELECT 1")` + "\n"

	for name, payload := range map[string]string{
		"not JSON":            `{{{`,
		"missing name":        `[{"sqlArgNo": 1}]`,
		"zero argument index": `[{"functionName": "execute", "sqlArgNo": 0}]`,
	} {
		t.Run(name, func(t *testing.T) {
			nodes := ExtractPayload(source, grammar(t, "python"), []byte(payload))
			require.Len(t, nodes, 1, "defaults must still match execute")
			assert.Equal(t, "SELECT 1", nodes[0].Content)
		})
	}
}

func TestExtractPayloadEmptyListUsesDefaults(t *testing.T) {
	source := `cursor.execute("SELECT 1")` + "\n"

	nodes := ExtractPayload(source, grammar(t, "python"), []byte(`[]`))

	require.Len(t, nodes, 1)
	assert.Equal(t, "SELECT 1", nodes[0].Content)
}

func TestExtractPayloadReplacesDefaults(t *testing.T) {
	source := `run_sql(ctx, "SELECT 2")
execute("SELECT 1")
`
	payload := `[{"functionName": "run_sql", "sqlArgNo": 2}]`

	nodes := ExtractPayload(source, grammar(t, "python"), []byte(payload))

	require.Len(t, nodes, 1, "the default execute site is replaced, not merged")
	assert.Equal(t, "SELECT 2", nodes[0].Content)
}

func TestExtractPayloadStringEncodedElements(t *testing.T) {
	source := `run_sql(ctx, "SELECT 2")` + "\n"
	payload := `["{\"functionName\": \"run_sql\", \"sqlArgNo\": 2}"]`

	nodes := ExtractPayload(source, grammar(t, "python"), []byte(payload))

	require.Len(t, nodes, 1)
	assert.Equal(t, "SELECT 2", nodes[0].Content)
}

func TestExtractJavaScript(t *testing.T) {
	g := grammar(t, "javascript")

	t.Run("plain string", func(t *testing.T) {
		source := `db.query("SELECT 1");` + "\n"
		nodes := Extract(source, g, nil)

		require.Len(t, nodes, 1)
		assert.Equal(t, "SELECT 1", nodes[0].Content)
		assert.Equal(t, pos(0, 10), nodes[0].CodeRange.Start)
		assert.Equal(t, pos(0, 18), nodes[0].CodeRange.End)
	})

	t.Run("template literal", func(t *testing.T) {
		source := "db.query(`SELECT * FROM ${t}`);\n"
		sites := []config.QuerySite{
			{FunctionName: "query", SQLArgNo: 1, IsStringTemplate: true},
		}
		nodes := Extract(source, g, sites)

		require.Len(t, nodes, 1)
		assert.Equal(t, "SELECT * FROM {}", nodes[0].Content)
		assert.Equal(t, pos(0, 10), nodes[0].CodeRange.Start)
		assert.Equal(t, pos(0, 28), nodes[0].CodeRange.End)
	})

	t.Run("template skipped without opt-in", func(t *testing.T) {
		source := "db.query(`SELECT * FROM ${t}`);\n"
		nodes := Extract(source, g, nil)
		assert.Empty(t, nodes)
	})
}

func TestExtractTypeScript(t *testing.T) {
	source := `const r = db.execute("SELECT name FROM users");` + "\n"

	nodes := Extract(source, grammar(t, "typescript"), nil)

	require.Len(t, nodes, 1)
	assert.Equal(t, "SELECT name FROM users", nodes[0].Content)
}

func TestExtractCalleeMatchIsCaseSensitive(t *testing.T) {
	// Site names match by exact equality; the default lowercase query site
	// does not cover Go's exported Query.
	source := "package main\n\nfunc run() {\n\tdb.Query(\"SELECT 1\")\n}\n"

	nodes := Extract(source, grammar(t, "go"), nil)

	assert.Empty(t, nodes)
}

func TestExtractGoRawStringDedent(t *testing.T) {
	source := "package main\n\nfunc run() {\n\tdb.Query(`\n  SELECT id\n  FROM t\n`)\n}\n"
	sites := []config.QuerySite{{FunctionName: "Query", SQLArgNo: 1}}

	nodes := Extract(source, grammar(t, "go"), sites)

	require.Len(t, nodes, 1)
	node := nodes[0]
	assert.Equal(t, "\n  SELECT id\n  FROM t\n", node.Content)
	assert.Equal(t, pos(4, 2), node.CodeRange.Start, "down past the opening backtick, right past the indent")
	assert.Equal(t, pos(6, 0), node.CodeRange.End)
	assert.Equal(t, 3, node.MethodLine)
}

func TestExtractGoInterpretedString(t *testing.T) {
	source := "package main\n\nfunc run() {\n\tdb.Query(\"SELECT 1\")\n}\n"
	sites := []config.QuerySite{{FunctionName: "Query", SQLArgNo: 1}}

	nodes := Extract(source, grammar(t, "go"), sites)

	require.Len(t, nodes, 1)
	assert.Equal(t, "SELECT 1", nodes[0].Content)
	assert.Equal(t, pos(3, 11), nodes[0].CodeRange.Start)
	assert.Equal(t, pos(3, 19), nodes[0].CodeRange.End)
}
