// Package listing is the shared contract for paginated, searchable,
// filterable list endpoints. Every feature screen's list handler parses a
// Params from the query string and answers with a Page envelope.
package listing

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultItems = 10
	MaxItems     = 100
)

// Params is the canonical set of list-view query parameters: page/items for
// pagination, a free-text search term, a multi-select status filter (OR
// semantics, comma-joined on the wire) and an optional day/month/year filter.
type Params struct {
	Page     int
	Items    int
	Search   string
	Statuses []string
	Day      string
	Month    string
	Year     string
}

// ParseParams reads list parameters from a query string. Out-of-range values
// fall back to defaults rather than erroring: page >= 1, 0 < items <= 100.
func ParseParams(q url.Values) Params {
	p := Params{
		Page:  1,
		Items: DefaultItems,
	}

	if pageStr := q.Get("page"); pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil && page >= 1 {
			p.Page = page
		}
	}

	if itemsStr := q.Get("items"); itemsStr != "" {
		if items, err := strconv.Atoi(itemsStr); err == nil && items > 0 && items <= MaxItems {
			p.Items = items
		}
	}

	p.Search = strings.TrimSpace(q.Get("search"))

	if statusStr := q.Get("status"); statusStr != "" {
		for _, s := range strings.Split(statusStr, ",") {
			s = strings.TrimSpace(s)
			if s != "" {
				p.Statuses = append(p.Statuses, s)
			}
		}
	}

	p.Day = q.Get("day")
	p.Month = q.Get("month")
	p.Year = q.Get("year")

	return p
}

// Offset converts page/items into a SQL offset.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Items
}

// HasDateFilter reports whether any of the day/month/year filters is set.
func (p Params) HasDateFilter() bool {
	return p.Day != "" || p.Month != "" || p.Year != ""
}

// MatchesDate checks a timestamp against the day/month/year filter parts.
// Unset parts match everything. The parts go through the same DateFilter
// normalization the repositories use, so "01" and "1" mean the same month.
func (p Params) MatchesDate(t time.Time) bool {
	year, month, day := p.DateFilter()
	if day != "" && t.Format("2006-01-02") != day {
		return false
	}
	if month != 0 && int(t.Month()) != month {
		return false
	}
	if year != 0 && t.Year() != year {
		return false
	}
	return true
}

// DateFilter normalizes the filter into SQL-ready parts: day as a full
// "2006-01-02" date string, year and month as numbers, zero when unset or
// unparseable. A "2006-01" month value fills in the year as well.
func (p Params) DateFilter() (year, month int, day string) {
	day = p.Day
	if p.Year != "" {
		if y, err := strconv.Atoi(p.Year); err == nil {
			year = y
		}
	}
	if p.Month != "" {
		monthPart := p.Month
		if i := strings.Index(monthPart, "-"); i >= 0 {
			if y, err := strconv.Atoi(monthPart[:i]); err == nil && year == 0 {
				year = y
			}
			monthPart = monthPart[i+1:]
		}
		if m, err := strconv.Atoi(monthPart); err == nil {
			month = m
		}
	}
	return year, month, day
}

// MatchesStatus applies the OR-combined status filter. An empty filter
// matches everything.
func (p Params) MatchesStatus(status string) bool {
	if len(p.Statuses) == 0 {
		return true
	}
	for _, s := range p.Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// Page is the response envelope paginated endpoints return.
type Page[T any] struct {
	Result   []T  `json:"result"`
	Total    int  `json:"total"`
	Page     int  `json:"page"`
	LastPage int  `json:"lastPage"`
	NextPage *int `json:"nextPage,omitempty"`
}

// NewPage assembles the envelope from an already-windowed result slice and
// the total row count of the filtered set.
func NewPage[T any](result []T, total int, params Params) Page[T] {
	lastPage := (total + params.Items - 1) / params.Items
	if lastPage < 1 {
		lastPage = 1
	}

	page := Page[T]{
		Result:   result,
		Total:    total,
		Page:     params.Page,
		LastPage: lastPage,
	}
	if result == nil {
		page.Result = []T{}
	}
	if params.Page < lastPage {
		next := params.Page + 1
		page.NextPage = &next
	}
	return page
}

// Matcher lets Apply evaluate rows without reflection: closed, explicit
// accessors instead of duck-typed row objects.
type Matcher[T any] struct {
	// Search reports whether the row matches a non-empty search term.
	Search func(row T, term string) bool
	// Status returns the row's status code, or "" when the row has none.
	Status func(row T) string
	// Date returns the row's reference timestamp for date filtering.
	Date func(row T) time.Time
}

// Apply filters and paginates an in-memory snapshot. This is the fallback
// path for small, fully-loaded datasets; authoritative fetching, filtering
// and paging happen in the repositories.
func Apply[T any](rows []T, params Params, m Matcher[T]) Page[T] {
	filtered := make([]T, 0, len(rows))
	term := strings.ToLower(params.Search)

	for _, row := range rows {
		if term != "" && m.Search != nil && !m.Search(row, term) {
			continue
		}
		if m.Status != nil && !params.MatchesStatus(m.Status(row)) {
			continue
		}
		if params.HasDateFilter() && m.Date != nil && !params.MatchesDate(m.Date(row)) {
			continue
		}
		filtered = append(filtered, row)
	}

	total := len(filtered)
	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.Items
	if end > total {
		end = total
	}

	return NewPage(filtered[start:end], total, params)
}
