package engine

import (
	"cardbook/internal/models"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// All is the categorical filter value meaning "no constraint".
const All = "all"

type DateBucket string

const (
	BucketAll    DateBucket = "all"
	BucketWeek   DateBucket = "7d"
	BucketMonth  DateBucket = "30d"
	BucketTwoMon DateBucket = "60d"
)

var bucketDays = map[DateBucket]int{
	BucketWeek:   7,
	BucketMonth:  30,
	BucketTwoMon: 60,
}

// ParseDateBucket accepts the bucket names plus "" for all.
func ParseDateBucket(s string) (DateBucket, error) {
	b := DateBucket(strings.ToLower(strings.TrimSpace(s)))
	if b == "" || b == BucketAll {
		return BucketAll, nil
	}
	if _, ok := bucketDays[b]; ok {
		return b, nil
	}
	return BucketAll, fmt.Errorf("%w: %q", ErrInvalidBucket, s)
}

// Days returns the bucket threshold, 0 for all.
func (b DateBucket) Days() int {
	return bucketDays[b]
}

// Filters is the filtering part of the query state.
type Filters struct {
	Search   string     `json:"search"`
	Industry string     `json:"industry"`
	Country  string     `json:"country"`
	Date     DateBucket `json:"date"`
}

func isAll(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, All)
}

// Active reports whether any predicate would restrict rows.
func (f Filters) Active() bool {
	return strings.TrimSpace(f.Search) != "" ||
		!isAll(f.Industry) ||
		!isAll(f.Country) ||
		!isAll(string(f.Date))
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseDate returns false for empty or unrecognised values.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Filter returns the rows passing every active predicate, in input order.
// The input slice is never modified.
func Filter(rows []models.Contact, f Filters, now time.Time) []models.Contact {
	folder := cases.Fold()
	fold := func(s string) string { return folder.String(s) }

	search := fold(strings.TrimSpace(f.Search))
	industry, country := "", ""
	if !isAll(f.Industry) {
		industry = fold(strings.TrimSpace(f.Industry))
	}
	if !isAll(f.Country) {
		country = fold(strings.TrimSpace(f.Country))
	}
	days := f.Date.Days()

	out := make([]models.Contact, 0, len(rows))
	for _, row := range rows {
		if search != "" && !matchesSearch(row, search, fold) {
			continue
		}
		if industry != "" && (row.Industry == "" || fold(row.Industry) != industry) {
			continue
		}
		if country != "" && (row.Country == "" || fold(row.Country) != country) {
			continue
		}
		if days > 0 && !withinDays(row.CollectedAt, days, now) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func matchesSearch(row models.Contact, needle string, fold func(string) string) bool {
	if strings.Contains(fold(row.FullName), needle) ||
		strings.Contains(fold(row.Company), needle) ||
		strings.Contains(fold(row.JobTitle), needle) {
		return true
	}
	for _, email := range row.Emails {
		if strings.Contains(fold(email), needle) {
			return true
		}
	}
	return false
}

// withinDays passes rows with a missing or malformed date.
func withinDays(collected string, days int, now time.Time) bool {
	t, ok := parseDate(collected)
	if !ok {
		return true
	}
	diff := math.Floor(now.Sub(t).Hours() / 24)
	return diff <= float64(days)
}
