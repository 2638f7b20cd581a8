package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqlerrors "github.com/standardbeagle/sqlembed/internal/errors"
)

func TestDefaultSites(t *testing.T) {
	sites := DefaultSites()

	require.NotEmpty(t, sites)
	names := make([]string, 0, len(sites))
	for _, site := range sites {
		names = append(names, site.FunctionName)
		assert.Equal(t, 1, site.SQLArgNo)
		assert.False(t, site.IsStringTemplate)
	}
	assert.Contains(t, names, "execute")
	assert.Contains(t, names, "executemany")
	assert.Contains(t, names, "query")

	// Callers own the returned slice.
	sites[0].FunctionName = "mutated"
	assert.Equal(t, "execute", DefaultSites()[0].FunctionName)
}

func TestDecodeSitesObjects(t *testing.T) {
	payload := `[
		{"functionName": "execute", "sqlArgNo": 1},
		{"functionName": "render", "sqlArgNo": 2, "isStringTemplate": true}
	]`

	sites, err := DecodeSites([]byte(payload))

	require.NoError(t, err)
	require.Len(t, sites, 2)
	assert.Equal(t, QuerySite{FunctionName: "execute", SQLArgNo: 1}, sites[0])
	assert.Equal(t, QuerySite{FunctionName: "render", SQLArgNo: 2, IsStringTemplate: true}, sites[1])
}

func TestDecodeSitesStringElements(t *testing.T) {
	payload := `["{\"functionName\": \"run_sql\", \"sqlArgNo\": 2}", {"functionName": "execute"}]`

	sites, err := DecodeSites([]byte(payload))

	require.NoError(t, err)
	require.Len(t, sites, 2)
	assert.Equal(t, "run_sql", sites[0].FunctionName)
	assert.Equal(t, 2, sites[0].SQLArgNo)
	assert.Equal(t, 1, sites[1].SQLArgNo, "sqlArgNo defaults to 1 when omitted")
}

func TestDecodeSitesBareObject(t *testing.T) {
	sites, err := DecodeSites([]byte(`{"functionName": "execute"}`))

	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, "execute", sites[0].FunctionName)
}

func TestDecodeSitesRejectsBadPayloads(t *testing.T) {
	for name, payload := range map[string]string{
		"not JSON":        `{{{`,
		"wrong element":   `[42]`,
		"bad nested JSON": `["not an object"]`,
		"missing name":    `[{"sqlArgNo": 1}]`,
		"zero arg index":  `[{"functionName": "execute", "sqlArgNo": 0}]`,
		"negative index":  `[{"functionName": "execute", "sqlArgNo": -3}]`,
	} {
		t.Run(name, func(t *testing.T) {
			sites, err := DecodeSites([]byte(payload))
			require.Error(t, err)
			assert.True(t, sqlerrors.IsType(err, sqlerrors.ErrorTypeConfig))
			assert.Nil(t, sites)
		})
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(nil))
	assert.NoError(t, Validate([]QuerySite{{FunctionName: "execute", SQLArgNo: 1}}))
	assert.Error(t, Validate([]QuerySite{{FunctionName: "", SQLArgNo: 1}}))
	assert.Error(t, Validate([]QuerySite{{FunctionName: "execute", SQLArgNo: 0}}))
}

func TestLoadKDL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".sqlembed.kdl")
	content := `
site "execute" {
    arg 1
}
site "render_sql" {
    arg 2
    template true
}
languages "python" "go"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadKDL(path)

	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.Len(t, cfg.Sites, 2)
	assert.Equal(t, QuerySite{FunctionName: "execute", SQLArgNo: 1}, cfg.Sites[0])
	assert.Equal(t, QuerySite{FunctionName: "render_sql", SQLArgNo: 2, IsStringTemplate: true}, cfg.Sites[1])
	assert.Equal(t, []string{"python", "go"}, cfg.Languages)
}

func TestLoadKDLMissingFile(t *testing.T) {
	cfg, err := LoadKDL(filepath.Join(t.TempDir(), "absent.kdl"))

	assert.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestLoadKDLDefaultsArgToOne(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.kdl")
	require.NoError(t, os.WriteFile(path, []byte(`site "query"`), 0644))

	cfg, err := LoadKDL(path)

	require.NoError(t, err)
	require.Len(t, cfg.Sites, 1)
	assert.Equal(t, 1, cfg.Sites[0].SQLArgNo)
}

func TestLoadKDLRejectsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.kdl")
	require.NoError(t, os.WriteFile(path, []byte(`site "q" { arg 1 }}`), 0644))

	_, err := LoadKDL(path)

	assert.Error(t, err)
}
