package engine

import (
	"cardbook/internal/models"
	"encoding/json"
	"fmt"
)

type columnDef struct {
	key      string
	label    string
	sortable bool
	value    func(models.Contact) string
}

// columns is the declared column list, in render order.
var columns = []columnDef{
	{"full_name", "Name", true, func(c models.Contact) string { return c.FullName }},
	{"company", "Company", true, func(c models.Contact) string { return c.Company }},
	{"job_title", "Job Title", true, func(c models.Contact) string { return c.JobTitle }},
	{"email", "Email", true, models.Contact.PrimaryEmail},
	{"phone", "Phone", true, models.Contact.PrimaryPhone},
	{"industry", "Industry", true, func(c models.Contact) string { return c.Industry }},
	{"country", "Country", true, func(c models.Contact) string { return c.Country }},
	{"collected_at", "Collected", true, func(c models.Contact) string { return c.CollectedAt }},
}

func columnByKey(key string) (columnDef, bool) {
	for _, c := range columns {
		if c.key == key {
			return c, true
		}
	}
	return columnDef{}, false
}

// ColumnKeys lists every declared column key.
func ColumnKeys() []string {
	keys := make([]string, len(columns))
	for i, c := range columns {
		keys[i] = c.key
	}
	return keys
}

// CellValue renders a row's value for the given column.
func CellValue(row models.Contact, key string) string {
	c, ok := columnByKey(key)
	if !ok {
		return ""
	}
	return c.value(row)
}

func validateColumns(keys []string) error {
	for _, k := range keys {
		if _, ok := columnByKey(k); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, k)
		}
	}
	return nil
}

// ColumnSet is either AllColumns or ExplicitColumns.
type ColumnSet interface {
	isColumnSet()
}

type AllColumns struct{}

// ExplicitColumns shows only the listed keys (in declared order).
type ExplicitColumns map[string]struct{}

func (AllColumns) isColumnSet()      {}
func (ExplicitColumns) isColumnSet() {}

func NewExplicitColumns(keys ...string) ExplicitColumns {
	set := make(ExplicitColumns, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// VisibleColumns resolves the set against the declared columns and marks the
// sorted column with its direction.
func VisibleColumns(set ColumnSet, sort SortDescriptor) []models.Column {
	out := make([]models.Column, 0, len(columns))
	for _, c := range columns {
		switch s := set.(type) {
		case ExplicitColumns:
			if _, ok := s[c.key]; !ok {
				continue
			}
		case AllColumns, nil:
		}

		col := models.Column{Key: c.key, Label: c.label, Sortable: c.sortable}
		if c.key == sort.Column {
			col.SortDirection = string(sort.Direction)
			if col.SortDirection == "" {
				col.SortDirection = string(Ascending)
			}
		}
		out = append(out, col)
	}
	return out
}

func marshalColumnSet(set ColumnSet) (json.RawMessage, error) {
	switch s := set.(type) {
	case ExplicitColumns:
		keys := make([]string, 0, len(s))
		for _, c := range columns {
			if _, ok := s[c.key]; ok {
				keys = append(keys, c.key)
			}
		}
		return json.Marshal(keys)
	default:
		return json.Marshal(All)
	}
}

func unmarshalColumnSet(raw json.RawMessage) (ColumnSet, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return AllColumns{}, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == All {
			return AllColumns{}, nil
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, s)
	}
	var keys []string
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownColumn, err)
	}
	if err := validateColumns(keys); err != nil {
		return nil, err
	}
	return NewExplicitColumns(keys...), nil
}
