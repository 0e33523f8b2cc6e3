package engine

import (
	"bytes"
	"cardbook/internal/models"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
)

// listSep separates the entries of list-valued CSV cells (emails, phones).
const listSep = ";"

var csvColumns = []string{
	"id", "full_name", "company", "job_title", "emails", "phones",
	"industry", "country", "city", "address", "collected_at",
}

const contactsSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["full_name"],
    "properties": {
      "id":           {"type": "string"},
      "full_name":    {"type": "string", "minLength": 1},
      "company":      {"type": "string"},
      "job_title":    {"type": "string"},
      "emails":       {"type": "array", "items": {"type": "string"}},
      "phones":       {"type": "array", "items": {"type": "string"}},
      "industry":     {"type": "string"},
      "country":      {"type": "string"},
      "city":         {"type": "string"},
      "address":      {"type": "string"},
      "collected_at": {"type": "string"}
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(contactsSchema)

// LoadFile reads a .csv or .json contacts file into a store.
func LoadFile(path string, log *zap.Logger) (*ContactStore, error) {
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open contacts: %w", err)
	}
	defer f.Close()

	var rows []models.Contact
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = LoadCSV(f)
	case ".json":
		rows, err = LoadJSON(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	store, err := NewContactStore(rows)
	if err != nil {
		return nil, err
	}

	log.Info("contacts loaded",
		zap.String("path", path),
		zap.Int("rows", store.Len()),
		zap.Duration("took", time.Since(start)))
	return store, nil
}

// LoadCSV parses a header-driven CSV. Unknown columns are ignored, missing
// ones stay empty.
func LoadCSV(r io.Reader) ([]models.Contact, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []models.Contact{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrInvalidRows, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := index["full_name"]; !ok {
		return nil, fmt.Errorf("%w: missing full_name column (have %v, want %v)", ErrInvalidRows, header, csvColumns)
	}

	rows := make([]models.Contact, 0, 64)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidRows, line, err)
		}

		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		rows = append(rows, models.Contact{
			ID:          field("id"),
			FullName:    field("full_name"),
			Company:     field("company"),
			JobTitle:    field("job_title"),
			Emails:      splitList(field("emails")),
			Phones:      splitList(field("phones")),
			Industry:    field("industry"),
			Country:     field("country"),
			City:        field("city"),
			Address:     field("address"),
			CollectedAt: field("collected_at"),
		})
	}
	return rows, nil
}

func splitList(cell string) []string {
	if cell == "" {
		return nil
	}
	parts := strings.Split(cell, listSep)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadJSON reads a JSON array of contacts and validates it before decoding.
func LoadJSON(r io.Reader) ([]models.Contact, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRows, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidRows, strings.Join(msgs, "; "))
	}

	var rows []models.Contact
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRows, err)
	}
	if rows == nil {
		rows = []models.Contact{}
	}
	return rows, nil
}
