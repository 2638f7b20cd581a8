package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"go", "javascript", "python", "typescript"}, Names())

	for _, name := range Names() {
		g, ok := ByName(name)
		require.True(t, ok)
		assert.Equal(t, name, g.Name())
		assert.NotEmpty(t, g.Extensions())
	}

	_, ok := ByName("cobol")
	assert.False(t, ok)
}

func TestByExtension(t *testing.T) {
	cases := map[string]string{
		".py":  "python",
		".pyi": "python",
		".js":  "javascript",
		".mjs": "javascript",
		".ts":  "typescript",
		".go":  "go",
	}
	for ext, want := range cases {
		g, ok := ByExtension(ext)
		require.True(t, ok, ext)
		assert.Equal(t, want, g.Name())
	}

	_, ok := ByExtension(".rb")
	assert.False(t, ok)
}

func TestNewParserPerGrammar(t *testing.T) {
	for _, name := range Names() {
		g, _ := ByName(name)
		parser, err := g.NewParser()
		require.NoError(t, err, name)
		parser.Close()
	}
}
