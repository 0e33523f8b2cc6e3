package engine

import (
	"cardbook/internal/models"
	"fmt"
	"slices"
)

var facetAttributes = map[string]func(models.Contact) string{
	"industry": func(c models.Contact) string { return c.Industry },
	"country":  func(c models.Contact) string { return c.Country },
	"city":     func(c models.Contact) string { return c.City },
	"company":  func(c models.Contact) string { return c.Company },
}

// DistinctValues returns the sorted, deduplicated, non-empty values of an
// attribute. Pass the full row collection, not a filtered one.
func DistinctValues(rows []models.Contact, attribute string) ([]string, error) {
	get, ok := facetAttributes[attribute]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFacet, attribute)
	}

	seen := make(map[string]struct{})
	out := []string{}
	for _, row := range rows {
		v := get(row)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	slices.Sort(out)
	return out, nil
}
