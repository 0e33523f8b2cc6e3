package main

import (
	"bytes"
	"cardbook/internal/engine"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCSV = `id,full_name,company,emails,industry,country,collected_at
1,Ann,Acme,ann@acme.io,Tech,US,2025-06-28
2,Bo,Zeta,bo@zeta.io,Tech,FR,2025-05-15
3,Cy,Medix,,Health,US,
`

func writeCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contacts.csv")
	require.NoError(t, os.WriteFile(path, []byte(testCSV), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--log-level", "error"))
	err := root.Execute()
	return out.String(), err
}

func TestList_TableOutput(t *testing.T) {
	path := writeCSV(t)

	out, err := execute(t, "list", "--data", path,
		"--industry", "tech", "--sort", "full_name", "--dir", "desc",
		"--columns", "full_name,company", "--select-all")
	require.NoError(t, err)

	// go-pretty upper-cases headers
	assert.Contains(t, out, "FULL NAME V")
	assert.Less(t, strings.Index(out, "Bo"), strings.Index(out, "Ann"))
	assert.NotContains(t, out, "Cy")
	assert.NotContains(t, out, "INDUSTRY")
	assert.Contains(t, out, "page 1/1 (2 of 2 rows, 2 selected)")
}

func TestList_Paging(t *testing.T) {
	path := writeCSV(t)

	out, err := execute(t, "list", "--data", path, "--page-size", "2", "--page", "9", "--columns", "full_name")
	require.NoError(t, err)
	assert.Contains(t, out, "page 2/2 (1 of 3 rows, 0 selected)")
	assert.Contains(t, out, "Cy")
}

func TestList_Errors(t *testing.T) {
	path := writeCSV(t)

	_, err := execute(t, "list", "--data", path, "--columns", "salary")
	require.ErrorIs(t, err, engine.ErrUnknownColumn)

	_, err = execute(t, "list", "--data", path, "--date", "1y")
	require.ErrorIs(t, err, engine.ErrInvalidBucket)

	_, err = execute(t, "list", "--data", path, "-o", "xml")
	require.Error(t, err)
}

func TestFacets(t *testing.T) {
	path := writeCSV(t)

	out, err := execute(t, "facets", "--data", path, "-a", "country")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "FR"), strings.Index(out, "US"))

	_, err = execute(t, "facets", "--data", path, "-a", "salary")
	require.ErrorIs(t, err, engine.ErrUnknownFacet)
}
