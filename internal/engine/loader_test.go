package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const csvContent = `id,full_name,company,job_title,emails,phones,industry,country,city,address,collected_at
1,Ann Lee,Acme,CTO,ann@acme.io; ann@home.io,+1 555 0100,Tech,US,New York,1 Main St,2025-06-28
2,Bo Martin,Zeta,Engineer,,,Tech,FR,Paris,,2025-05-15
3,"Cy, Jr.",Medix,Nurse,cy@medix.com,,Health,US,Boston,,
`

func TestLoadCSV(t *testing.T) {
	rows, err := LoadCSV(strings.NewReader(csvContent))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Ann Lee", rows[0].FullName)
	assert.Equal(t, []string{"ann@acme.io", "ann@home.io"}, rows[0].Emails)
	assert.Equal(t, []string{"+1 555 0100"}, rows[0].Phones)
	assert.Equal(t, "2025-06-28", rows[0].CollectedAt)

	assert.Nil(t, rows[1].Emails)
	assert.Equal(t, "Cy, Jr.", rows[2].FullName)
	assert.Equal(t, "", rows[2].CollectedAt)
}

func TestLoadCSV_HeaderOrderAndMissingColumns(t *testing.T) {
	rows, err := LoadCSV(strings.NewReader("country,Full_Name\nDE,Eva\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Eva", rows[0].FullName)
	assert.Equal(t, "DE", rows[0].Country)
	assert.Empty(t, rows[0].Industry)

	_, err = LoadCSV(strings.NewReader("name,country\nEva,DE\n"))
	require.ErrorIs(t, err, ErrInvalidRows)

	rows, err = LoadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestLoadJSON(t *testing.T) {
	rows, err := LoadJSON(strings.NewReader(`[
		{"id": "1", "full_name": "Ann", "emails": ["a@b.c"], "industry": "Tech"},
		{"full_name": "Bo"}
	]`))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"a@b.c"}, rows[0].Emails)

	_, err = LoadJSON(strings.NewReader(`[{"company": "no name"}]`))
	require.ErrorIs(t, err, ErrInvalidRows)

	_, err = LoadJSON(strings.NewReader(`[{"full_name": "Ann", "emails": "not-a-list"}]`))
	require.ErrorIs(t, err, ErrInvalidRows)

	_, err = LoadJSON(strings.NewReader(`{`))
	require.ErrorIs(t, err, ErrInvalidRows)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "contacts.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(csvContent), 0o644))

	store, err := LoadFile(csvPath, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 3, store.Len())
	assert.Equal(t, []string{"Health", "Tech"}, store.Facets().Industries)

	txtPath := filepath.Join(dir, "contacts.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("x"), 0o644))
	_, err = LoadFile(txtPath, zap.NewNop())
	require.ErrorIs(t, err, ErrUnknownFormat)

	_, err = LoadFile(filepath.Join(dir, "missing.json"), zap.NewNop())
	require.ErrorIs(t, err, os.ErrNotExist)
}
