package engine

import (
	"cardbook/internal/models"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// ContactStore holds the loaded rows plus dictionary-encoded categorical columns.
// It is immutable: a refetch builds a new store.
type ContactStore struct {
	Rows []models.Contact

	// Dictionary Encoded IDs (0..N), -1 when the row has no value
	IndustryIDs []int32
	CountryIDs  []int32

	// Dictionaries (ID -> String), first-seen order
	IndustryDict []string
	CountryDict  []string
}

// NewContactStore copies rows into a new store. Rows without an ID get a
// random one; duplicate IDs are rejected.
func NewContactStore(rows []models.Contact) (*ContactStore, error) {
	store := &ContactStore{
		Rows:        make([]models.Contact, len(rows)),
		IndustryIDs: make([]int32, len(rows)),
		CountryIDs:  make([]int32, len(rows)),
	}

	seen := make(map[string]struct{}, len(rows))
	industries := make(map[string]int32)
	countries := make(map[string]int32)

	for i, row := range rows {
		if row.ID == "" {
			row.ID = uuid.NewString()
		}
		if _, dup := seen[row.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, row.ID)
		}
		seen[row.ID] = struct{}{}

		// Lists are copied so callers can't reach into the store.
		row.Emails = slices.Clone(row.Emails)
		row.Phones = slices.Clone(row.Phones)
		store.Rows[i] = row

		store.IndustryIDs[i] = encode(industries, &store.IndustryDict, row.Industry)
		store.CountryIDs[i] = encode(countries, &store.CountryDict, row.Country)
	}

	return store, nil
}

func encode(ids map[string]int32, dict *[]string, value string) int32 {
	if value == "" {
		return -1
	}
	if id, ok := ids[value]; ok {
		return id
	}
	id := int32(len(*dict))
	*dict = append(*dict, value)
	ids[value] = id
	return id
}

func (cs *ContactStore) Len() int {
	if cs == nil {
		return 0
	}
	return len(cs.Rows)
}

// Facets returns the industry and country options for the filter dropdowns.
// They come from the whole store so they never depend on the active filters.
func (cs *ContactStore) Facets() models.Facets {
	if cs == nil {
		return models.Facets{Industries: []string{}, Countries: []string{}}
	}
	return models.Facets{
		Industries: sortedDict(cs.IndustryDict),
		Countries:  sortedDict(cs.CountryDict),
	}
}

func sortedDict(dict []string) []string {
	out := slices.Clone(dict)
	if out == nil {
		out = []string{}
	}
	slices.Sort(out)
	return out
}

// Find returns the row with the given id.
func (cs *ContactStore) Find(id string) (models.Contact, bool) {
	if cs == nil {
		return models.Contact{}, false
	}
	for _, row := range cs.Rows {
		if row.ID == id {
			return row, true
		}
	}
	return models.Contact{}, false
}
