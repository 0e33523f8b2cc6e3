package engine

import (
	"cardbook/internal/models"
	"fmt"
	"slices"
	"strings"
)

type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case "", Ascending, "ascending":
		return Ascending, nil
	case Descending, "descending":
		return Descending, nil
	}
	return Ascending, fmt.Errorf("%w: %q", ErrInvalidSort, s)
}

// SortDescriptor picks the column and direction. An empty Column means the
// rows keep their load order.
type SortDescriptor struct {
	Column    string    `json:"column"`
	Direction Direction `json:"direction"`
}

// Sort returns a stably sorted copy. List columns (email, phone) compare by
// their first element only, never the full list.
func Sort(rows []models.Contact, d SortDescriptor) []models.Contact {
	out := slices.Clone(rows)
	if out == nil {
		out = []models.Contact{}
	}

	col, ok := columnByKey(d.Column)
	if !ok || !col.sortable {
		return out
	}

	sign := 1
	if d.Direction == Descending {
		sign = -1
	}

	slices.SortStableFunc(out, func(a, b models.Contact) int {
		return sign * compare(col.value(a), col.value(b))
	})
	return out
}

func compare(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
