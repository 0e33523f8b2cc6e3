package engine

import (
	"cardbook/internal/models"
	"encoding/json"
	"fmt"
	"slices"
)

// Selection is either AllRows or ExplicitSet. AllRows is never expanded into
// ids when stored; it is resolved against whatever rows currently pass the
// filters.
type Selection interface {
	isSelection()
}

type AllRows struct{}

type ExplicitSet map[string]struct{}

func (AllRows) isSelection()     {}
func (ExplicitSet) isSelection() {}

// Select returns an explicit selection of the given keys.
func Select(keys ...string) Selection {
	set := make(ExplicitSet, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

func SelectAll() Selection { return AllRows{} }

func ClearSelection() Selection { return ExplicitSet{} }

// EffectiveSelection returns the ids of the selected rows among filtered,
// in filtered order.
func EffectiveSelection(sel Selection, filtered []models.Contact) []string {
	rows := SelectedRows(sel, filtered)
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

// SelectedRows returns the selected row objects, preserving filtered order.
func SelectedRows(sel Selection, filtered []models.Contact) []models.Contact {
	switch s := sel.(type) {
	case AllRows:
		return slices.Clone(filtered)
	case ExplicitSet:
		out := make([]models.Contact, 0, len(s))
		for _, row := range filtered {
			if _, ok := s[row.ID]; ok {
				out = append(out, row)
			}
		}
		return out
	default:
		return []models.Contact{}
	}
}

func marshalSelection(sel Selection) (json.RawMessage, error) {
	switch s := sel.(type) {
	case AllRows:
		return json.Marshal(All)
	case ExplicitSet:
		ids := make([]string, 0, len(s))
		for id := range s {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		return json.Marshal(ids)
	default:
		return json.Marshal([]string{})
	}
}

func unmarshalSelection(raw json.RawMessage) (Selection, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return ClearSelection(), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == All {
			return SelectAll(), nil
		}
		return nil, fmt.Errorf("%w: %q", ErrInvalidSelector, s)
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSelector, err)
	}
	return Select(ids...), nil
}
