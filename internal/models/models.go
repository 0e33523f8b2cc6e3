package models

// Contact is one business card / table row. Rows are never mutated after load.
type Contact struct {
	ID          string   `json:"id"`
	FullName    string   `json:"full_name"`
	Company     string   `json:"company,omitempty"`
	JobTitle    string   `json:"job_title,omitempty"`
	Emails      []string `json:"emails,omitempty"`
	Phones      []string `json:"phones,omitempty"`
	Industry    string   `json:"industry,omitempty"`
	Country     string   `json:"country,omitempty"`
	City        string   `json:"city,omitempty"`
	Address     string   `json:"address,omitempty"`
	CollectedAt string   `json:"collected_at,omitempty"`
}

// PrimaryEmail returns the first email or "".
func (c Contact) PrimaryEmail() string {
	if len(c.Emails) == 0 {
		return ""
	}
	return c.Emails[0]
}

// PrimaryPhone returns the first phone number or "".
func (c Contact) PrimaryPhone() string {
	if len(c.Phones) == 0 {
		return ""
	}
	return c.Phones[0]
}

type Column struct {
	Key           string `json:"key"`
	Label         string `json:"label"`
	Sortable      bool   `json:"sortable"`
	SortDirection string `json:"sort_direction,omitempty"`
}

type Facets struct {
	Industries []string `json:"industries"`
	Countries  []string `json:"countries"`
}

type PageInfo struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalItems int  `json:"total_items"`
	TotalPages int  `json:"total_pages"`
	ServerSide bool `json:"server_side,omitempty"`
}

// TableView is everything the contact table renders for one query state.
type TableView struct {
	Rows             []Contact `json:"rows"`
	FilteredCount    int       `json:"filtered_count"`
	Pagination       PageInfo  `json:"pagination"`
	SelectedIDs      []string  `json:"selected_ids"`
	AllSelected      bool      `json:"all_selected"`
	Columns          []Column  `json:"columns"`
	Facets           Facets    `json:"facets"`
	HasActiveFilters bool      `json:"has_active_filters"`
}

type DashboardData struct {
	TotalContacts    int                      `json:"total_contacts"`
	CountryStats     []CountryStat            `json:"country_stats"`
	TopIndustries    []TopItem                `json:"top_industries"`
	MonthlyCollected map[string][]MonthlyItem `json:"monthly_collected"`
}

type CountryStat struct {
	Country     string `json:"country"`
	Contacts    int    `json:"contacts"`
	TopIndustry string `json:"top_industry,omitempty"`
}

type TopItem struct {
	Name  string `json:"industry"`
	Value int    `json:"contacts"`
}

type MonthlyItem struct {
	Month  string `json:"month"`
	Volume int    `json:"contacts"`
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GeocodeResult tells callers where a pin goes and how much to trust it.
type GeocodeResult struct {
	Coordinates Coordinates `json:"coordinates"`
	Source      string      `json:"source"`
	Approximate bool        `json:"approximate"`
}
