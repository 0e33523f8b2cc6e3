package main

import (
	"cardbook/internal/engine"
	"cardbook/internal/models"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

func renderView(w io.Writer, view models.TableView, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	case "table", "":
		return renderTable(w, view)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func renderTable(w io.Writer, view models.TableView) error {
	if len(view.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := table.Row{""}
	for _, col := range view.Columns {
		label := col.Label
		switch col.SortDirection {
		case string(engine.Ascending):
			label += " ^"
		case string(engine.Descending):
			label += " v"
		}
		header = append(header, label)
	}
	t.AppendHeader(header)

	for _, r := range view.Rows {
		mark := ""
		if slices.Contains(view.SelectedIDs, r.ID) {
			mark = "*"
		}
		row := table.Row{mark}
		for _, col := range view.Columns {
			row = append(row, engine.CellValue(r, col.Key))
		}
		t.AppendRow(row)
	}

	t.Render()
	p := view.Pagination
	_, _ = fmt.Fprintf(w, "page %d/%d (%d of %d rows, %d selected)\n",
		p.Page, max(p.TotalPages, 1), len(view.Rows), view.FilteredCount, len(view.SelectedIDs))
	return nil
}

func renderList(w io.Writer, title string, values []string) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{title})
	for _, v := range values {
		t.AppendRow(table.Row{v})
	}
	t.Render()
	return nil
}

func renderLocation(w io.Writer, res *models.GeocodeResult) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"lat", "lng", "source", "approximate"})
	t.AppendRow(table.Row{res.Coordinates.Lat, res.Coordinates.Lng, res.Source, res.Approximate})
	t.Render()
	return nil
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
