package engine

import (
	"cardbook/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	// Scenario:
	// Germany: 2 Tech, 1 Health
	// France:  1 Health
	// one row without country, one without date
	store := mustStore(t, []models.Contact{
		{ID: "1", Country: "Germany", Industry: "Tech", CollectedAt: "2021-01-15"},
		{ID: "2", Country: "Germany", Industry: "Tech", CollectedAt: "2021-02-03"},
		{ID: "3", Country: "Germany", Industry: "Health", CollectedAt: "2021-01-20"},
		{ID: "4", Country: "France", Industry: "Health", CollectedAt: "2022-05-01"},
		{ID: "5", Industry: "Tech"},
	})

	data := store.Aggregate()

	assert.Equal(t, 5, data.TotalContacts)

	// A. Country Stats, highest first
	require.Len(t, data.CountryStats, 2)
	assert.Equal(t, models.CountryStat{Country: "Germany", Contacts: 3, TopIndustry: "Tech"}, data.CountryStats[0])
	assert.Equal(t, models.CountryStat{Country: "France", Contacts: 1, TopIndustry: "Health"}, data.CountryStats[1])

	// B. Industries
	assert.Equal(t, []models.TopItem{{Name: "Tech", Value: 3}, {Name: "Health", Value: 2}}, data.TopIndustries)

	// C. Monthly (split by year)
	assert.Equal(t, []models.MonthlyItem{{Month: "January", Volume: 2}, {Month: "February", Volume: 1}}, data.MonthlyCollected["2021"])
	assert.Equal(t, []models.MonthlyItem{{Month: "May", Volume: 1}}, data.MonthlyCollected["2022"])
}

func TestAggregate_Empty(t *testing.T) {
	data := mustStore(t, nil).Aggregate()
	assert.Equal(t, 0, data.TotalContacts)
	assert.Empty(t, data.CountryStats)
	assert.Empty(t, data.MonthlyCollected)
}

func TestAggregate_ManyRowsSplitAcrossWorkers(t *testing.T) {
	data := mustStore(t, manyRows(1001)).Aggregate()
	assert.Equal(t, []models.TopItem{{Name: "Tech", Value: 501}, {Name: "Retail", Value: 500}}, data.TopIndustries)
}
