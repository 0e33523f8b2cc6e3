package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

const DefaultPageSize = 10

// Pagination counters. With ServerSide set, TotalItems and TotalPages come
// from the data loader (SetPageInfo) instead of being computed.
type Pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalItems int  `json:"total_items,omitempty"`
	TotalPages int  `json:"total_pages,omitempty"`
	ServerSide bool `json:"server_side,omitempty"`
}

// State is the whole user-controlled query for the contact table.
type State struct {
	Filters    Filters
	Sort       SortDescriptor
	Selection  Selection
	Columns    ColumnSet
	Pagination Pagination
}

func DefaultState() State {
	return State{
		Filters: Filters{
			Industry: All,
			Country:  All,
			Date:     BucketAll,
		},
		Selection:  ClearSelection(),
		Columns:    AllColumns{},
		Pagination: Pagination{Page: 1, PageSize: DefaultPageSize},
	}
}

type stateJSON struct {
	Filters    Filters         `json:"filters"`
	Sort       SortDescriptor  `json:"sort"`
	Selection  json.RawMessage `json:"selection"`
	Columns    json.RawMessage `json:"columns"`
	Pagination Pagination      `json:"pagination"`
}

// MarshalJSON writes the "all" variants as the string "all" and explicit
// sets as sorted arrays.
func (s State) MarshalJSON() ([]byte, error) {
	sel, err := marshalSelection(s.Selection)
	if err != nil {
		return nil, err
	}
	cols, err := marshalColumnSet(s.Columns)
	if err != nil {
		return nil, err
	}
	return json.Marshal(stateJSON{
		Filters:    s.Filters,
		Sort:       s.Sort,
		Selection:  sel,
		Columns:    cols,
		Pagination: s.Pagination,
	})
}

func (s *State) UnmarshalJSON(data []byte) error {
	var w stateJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	sel, err := unmarshalSelection(w.Selection)
	if err != nil {
		return err
	}
	cols, err := unmarshalColumnSet(w.Columns)
	if err != nil {
		return err
	}
	if _, err := ParseDateBucket(string(w.Filters.Date)); err != nil {
		return err
	}
	if w.Sort.Column != "" {
		if err := validateColumns([]string{w.Sort.Column}); err != nil {
			return err
		}
	}
	if _, err := ParseDirection(string(w.Sort.Direction)); err != nil {
		return err
	}

	*s = State{
		Filters:    w.Filters,
		Sort:       w.Sort,
		Selection:  sel,
		Columns:    cols,
		Pagination: w.Pagination,
	}
	s.Pagination = normalizePagination(s.Pagination)
	if s.Filters.Date == "" {
		s.Filters.Date = BucketAll
	}
	return nil
}

func normalizePagination(p Pagination) Pagination {
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.Page < 1 {
		p.Page = 1
	}
	return p
}

// Action is one user interaction applied by Reduce.
type Action interface {
	apply(State) State
}

type (
	SetSearch         struct{ Query string }
	SetIndustry       struct{ Value string }
	SetCountry        struct{ Value string }
	SetDateBucket     struct{ Bucket DateBucket }
	ClearFilters      struct{}
	SetSort           struct{ Sort SortDescriptor }
	ToggleSort        struct{ Column string }
	SelectKeys        struct{ IDs []string }
	SelectAllRows     struct{}
	ClearSelected     struct{}
	SetVisibleColumns struct{ Keys []string }
	ShowAllColumns    struct{}
	SetPage           struct{ Page int }
	SetPageSize       struct{ Size int }
	SetPageInfo       struct{ TotalItems, TotalPages int }
	UseClientPaging   struct{}
)

// Reduce returns the state after applying a. The input state is not modified.
func Reduce(s State, a Action) State {
	if a == nil {
		return s
	}
	return a.apply(s)
}

func (a SetSearch) apply(s State) State {
	s.Filters.Search = a.Query
	s.Pagination.Page = 1
	return s
}

func (a SetIndustry) apply(s State) State {
	s.Filters.Industry = a.Value
	return s
}

func (a SetCountry) apply(s State) State {
	s.Filters.Country = a.Value
	return s
}

func (a SetDateBucket) apply(s State) State {
	s.Filters.Date = a.Bucket
	return s
}

func (ClearFilters) apply(s State) State {
	s.Filters = DefaultState().Filters
	s.Pagination.Page = 1
	return s
}

func (a SetSort) apply(s State) State {
	s.Sort = a.Sort
	if s.Sort.Column != "" && s.Sort.Direction == "" {
		s.Sort.Direction = Ascending
	}
	return s
}

// ToggleSort sorts a new column ascending and flips the current one.
func (a ToggleSort) apply(s State) State {
	if s.Sort.Column == a.Column && s.Sort.Direction != Descending {
		s.Sort.Direction = Descending
	} else {
		s.Sort = SortDescriptor{Column: a.Column, Direction: Ascending}
	}
	return s
}

func (a SelectKeys) apply(s State) State {
	s.Selection = Select(a.IDs...)
	return s
}

func (SelectAllRows) apply(s State) State {
	s.Selection = SelectAll()
	return s
}

func (ClearSelected) apply(s State) State {
	s.Selection = ClearSelection()
	return s
}

func (a SetVisibleColumns) apply(s State) State {
	s.Columns = NewExplicitColumns(a.Keys...)
	return s
}

func (ShowAllColumns) apply(s State) State {
	s.Columns = AllColumns{}
	return s
}

func (a SetPage) apply(s State) State {
	s.Pagination.Page = max(a.Page, 1)
	return s
}

func (a SetPageSize) apply(s State) State {
	s.Pagination.PageSize = a.Size
	if s.Pagination.PageSize < 1 {
		s.Pagination.PageSize = DefaultPageSize
	}
	s.Pagination.Page = 1
	return s
}

// SetPageInfo switches to server-side paging. It stays on until
// UseClientPaging.
func (a SetPageInfo) apply(s State) State {
	s.Pagination.ServerSide = true
	s.Pagination.TotalItems = max(a.TotalItems, 0)
	s.Pagination.TotalPages = max(a.TotalPages, 0)
	return s
}

func (UseClientPaging) apply(s State) State {
	s.Pagination = Pagination{Page: 1, PageSize: s.Pagination.PageSize}
	return s
}

// DecodeAction builds an action from its wire name and JSON payload, and
// validates it.
func DecodeAction(kind string, payload json.RawMessage) (Action, error) {
	var p struct {
		Query      string   `json:"query"`
		Value      string   `json:"value"`
		Column     string   `json:"column"`
		Direction  string   `json:"direction"`
		IDs        []string `json:"ids"`
		Keys       []string `json:"keys"`
		Page       int      `json:"page"`
		Size       int      `json:"size"`
		TotalItems int      `json:"total_items"`
		TotalPages int      `json:"total_pages"`
	}
	if len(payload) > 0 && string(payload) != "null" {
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", kind, err)
		}
	}

	switch strings.ToLower(kind) {
	case "set_search":
		return SetSearch{Query: p.Query}, nil
	case "set_industry":
		return SetIndustry{Value: p.Value}, nil
	case "set_country":
		return SetCountry{Value: p.Value}, nil
	case "set_date":
		b, err := ParseDateBucket(p.Value)
		if err != nil {
			return nil, err
		}
		return SetDateBucket{Bucket: b}, nil
	case "clear_filters":
		return ClearFilters{}, nil
	case "set_sort":
		if err := validateColumns([]string{p.Column}); err != nil {
			return nil, err
		}
		dir, err := ParseDirection(p.Direction)
		if err != nil {
			return nil, err
		}
		return SetSort{Sort: SortDescriptor{Column: p.Column, Direction: dir}}, nil
	case "toggle_sort":
		if err := validateColumns([]string{p.Column}); err != nil {
			return nil, err
		}
		return ToggleSort{Column: p.Column}, nil
	case "select":
		return SelectKeys{IDs: p.IDs}, nil
	case "select_all":
		return SelectAllRows{}, nil
	case "clear_selection":
		return ClearSelected{}, nil
	case "set_columns":
		if err := validateColumns(p.Keys); err != nil {
			return nil, err
		}
		return SetVisibleColumns{Keys: p.Keys}, nil
	case "show_all_columns":
		return ShowAllColumns{}, nil
	case "set_page":
		return SetPage{Page: p.Page}, nil
	case "set_page_size":
		return SetPageSize{Size: p.Size}, nil
	case "set_page_info":
		return SetPageInfo{TotalItems: p.TotalItems, TotalPages: p.TotalPages}, nil
	case "use_client_paging":
		return UseClientPaging{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, kind)
}
