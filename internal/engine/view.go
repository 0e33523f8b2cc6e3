package engine

import (
	"cardbook/internal/models"
	"time"
)

// Derive runs the pipeline: filter -> sort -> page, and resolves selection,
// columns and facets for s.
func Derive(store *ContactStore, s State, now time.Time) models.TableView {
	v, _ := derive(store, s, now)
	return v
}

// derive also returns the filtered, sorted rows the view was paged from.
func derive(store *ContactStore, s State, now time.Time) (models.TableView, []models.Contact) {
	var rows []models.Contact
	if store != nil {
		rows = store.Rows
	}

	filtered := Sort(Filter(rows, s.Filters, now), s.Sort)
	_, allSelected := s.Selection.(AllRows)

	return models.TableView{
		Rows:             pageRows(filtered, s.Pagination),
		FilteredCount:    len(filtered),
		Pagination:       pageInfo(len(filtered), s.Pagination),
		SelectedIDs:      EffectiveSelection(s.Selection, filtered),
		AllSelected:      allSelected,
		Columns:          VisibleColumns(s.Columns, s.Sort),
		Facets:           store.Facets(),
		HasActiveFilters: s.Filters.Active(),
	}, filtered
}

// pageInfo computes totals for client-side paging, clamping the page into
// range. Server-side counters are passed through.
func pageInfo(filtered int, p Pagination) models.PageInfo {
	p = normalizePagination(p)
	if p.ServerSide {
		return models.PageInfo{
			Page:       p.Page,
			PageSize:   p.PageSize,
			TotalItems: p.TotalItems,
			TotalPages: p.TotalPages,
			ServerSide: true,
		}
	}

	pages := filtered / p.PageSize
	if filtered%p.PageSize != 0 {
		pages++
	}
	page := min(p.Page, max(pages, 1))
	return models.PageInfo{
		Page:       page,
		PageSize:   p.PageSize,
		TotalItems: filtered,
		TotalPages: pages,
	}
}

func pageRows(filtered []models.Contact, p Pagination) []models.Contact {
	// The loader already fetched exactly one page.
	if p.ServerSide {
		return filtered
	}

	info := pageInfo(len(filtered), p)
	start := (info.Page - 1) * info.PageSize
	if start >= len(filtered) {
		return []models.Contact{}
	}
	end := min(start+info.PageSize, len(filtered))
	return filtered[start:end]
}
