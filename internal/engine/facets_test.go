package engine

import (
	"cardbook/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistinctValues(t *testing.T) {
	rows := append(sampleRows(),
		models.Contact{ID: "4", Country: "us"},
		models.Contact{ID: "5", Country: ""},
		models.Contact{ID: "6", Country: "DE"},
	)

	got, err := DistinctValues(rows, "country")
	require.NoError(t, err)
	assert.Equal(t, []string{"DE", "FR", "US", "us"}, got)

	got, err = DistinctValues(nil, "city")
	require.NoError(t, err)
	assert.Equal(t, []string{}, got)

	_, err = DistinctValues(rows, "email")
	require.ErrorIs(t, err, ErrUnknownFacet)
}

func TestFacets_IndependentOfFilters(t *testing.T) {
	store := mustStore(t, sampleRows())

	s := DefaultState()
	before := Derive(store, s, testNow).Facets

	s = Reduce(s, SetIndustry{Value: "Health"})
	after := Derive(store, s, testNow).Facets
	assert.Equal(t, before, after)

	s = Reduce(s, SetSearch{Query: "nobody matches this"})
	assert.Equal(t, before, Derive(store, s, testNow).Facets)

	assert.Equal(t, []string{"FR", "US"}, before.Countries)
	assert.Equal(t, []string{"Health", "Tech"}, before.Industries)
}
