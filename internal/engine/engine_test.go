package engine

import (
	"cardbook/internal/models"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

// sampleRows mirrors a small address book.
func sampleRows() []models.Contact {
	return []models.Contact{
		{ID: "1", FullName: "Ann", Company: "Acme", JobTitle: "CTO", Emails: []string{"ann@acme.io"}, Phones: []string{"+1 555 0100"}, Industry: "Tech", Country: "US", City: "New York", CollectedAt: "2025-06-28"},
		{ID: "2", FullName: "Bo", Company: "Zeta", JobTitle: "Engineer", Emails: []string{"bo@zeta.fr", "b@home.fr"}, Industry: "Tech", Country: "FR", City: "Paris", CollectedAt: "2025-05-15"},
		{ID: "3", FullName: "Cy", Company: "Medix", JobTitle: "Nurse", Industry: "Health", Country: "US", City: "Boston", CollectedAt: "2025-04-01"},
	}
}

func ids(rows []models.Contact) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func mustStore(t *testing.T, rows []models.Contact) *ContactStore {
	t.Helper()
	store, err := NewContactStore(rows)
	require.NoError(t, err)
	return store
}
