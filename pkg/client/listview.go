package client

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultDebounce is how long the search box waits after the last keystroke
// before a request goes out.
const DefaultDebounce = 600 * time.Millisecond

const defaultItems = 10

// PageRequest is one fetch of a list view: pagination, search, sort, filters
// and a sequence number to detect stale responses.
type PageRequest struct {
	Page     int
	Items    int
	Search   string
	Sort     string
	Statuses []string
	Day      string
	Month    string
	Year     string
	Seq      uint64
}

// filtered reports whether the request narrows the list beyond pagination.
// Sorting reorders but never filters, so it does not count.
func (r PageRequest) filtered() bool {
	return r.Search != "" || len(r.Statuses) > 0 || r.Day != "" || r.Month != "" || r.Year != ""
}

// Query encodes the request as list endpoint query parameters. Statuses are
// comma-joined into a single parameter.
func (r PageRequest) Query() url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(r.Page))
	q.Set("items", strconv.Itoa(r.Items))
	if r.Search != "" {
		q.Set("search", r.Search)
	}
	if r.Sort != "" {
		q.Set("sort", r.Sort)
	}
	if len(r.Statuses) > 0 {
		q.Set("status", strings.Join(r.Statuses, ","))
	}
	if r.Day != "" {
		q.Set("day", r.Day)
	}
	if r.Month != "" {
		q.Set("month", r.Month)
	}
	if r.Year != "" {
		q.Set("year", r.Year)
	}
	return q
}

// RenderKind tells the renderer how to present a column's value.
type RenderKind int

const (
	RenderText RenderKind = iota
	RenderBadge
	RenderDate
	RenderNumber
)

// Column describes one rendered column of the table. Key is the server-side
// sort key; Sortable columns feed SetSort. The zero Render is plain text.
type Column[T any] struct {
	Key      string
	Title    string
	Sortable bool
	Render   RenderKind
	Value    func(row T) string
}

// EmptyKind distinguishes a truly empty dataset from a filter that matched
// nothing, so the screen can say "no data yet" versus "no results".
type EmptyKind int

const (
	EmptyNone EmptyKind = iota
	EmptyNoData
	EmptyNoMatch
)

// Action is a per-row operation. Rows only show actions whose permission the
// session holds.
type Action[T any] struct {
	Label      string
	Permission string
	Run        func(ctx context.Context, row T) error
}

// ListView drives a paginated, searchable, filterable table. It emits
// PageRequests through its sink; the owner fetches and hands the result back
// via Accept, which drops responses that arrive out of order.
type ListView[T any] struct {
	mu       sync.Mutex
	columns  []Column[T]
	actions  []Action[T]
	req      PageRequest
	debounce time.Duration
	timer    *time.Timer
	pending  string
	sink     func(PageRequest)

	rows     []T
	total    int
	lastPage int
	empty    EmptyKind
}

type ListViewOption[T any] func(*ListView[T])

func WithDebounce[T any](d time.Duration) ListViewOption[T] {
	return func(lv *ListView[T]) {
		lv.debounce = d
	}
}

func WithItems[T any](items int) ListViewOption[T] {
	return func(lv *ListView[T]) {
		lv.req.Items = items
	}
}

func WithColumns[T any](columns ...Column[T]) ListViewOption[T] {
	return func(lv *ListView[T]) {
		lv.columns = columns
	}
}

func WithActions[T any](actions ...Action[T]) ListViewOption[T] {
	return func(lv *ListView[T]) {
		lv.actions = actions
	}
}

func NewListView[T any](sink func(PageRequest), opts ...ListViewOption[T]) *ListView[T] {
	lv := &ListView[T]{
		req:      PageRequest{Page: 1, Items: defaultItems},
		debounce: DefaultDebounce,
		sink:     sink,
	}
	for _, opt := range opts {
		opt(lv)
	}
	return lv
}

// Load emits the initial request.
func (lv *ListView[T]) Load() {
	lv.mu.Lock()
	req := lv.emit()
	lv.mu.Unlock()
	lv.dispatch(req)
}

// Refresh re-fetches the current page with the current filters.
func (lv *ListView[T]) Refresh() {
	lv.Load()
}

// SetPage navigates to a page and fetches it immediately.
func (lv *ListView[T]) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	lv.mu.Lock()
	lv.req.Page = page
	req := lv.emit()
	lv.mu.Unlock()
	lv.dispatch(req)
}

// SetSearch updates the search term. The fetch is debounced: rapid calls
// collapse into a single request carrying the last term, with the page reset
// to the first.
func (lv *ListView[T]) SetSearch(term string) {
	lv.mu.Lock()
	defer lv.mu.Unlock()

	term = strings.TrimSpace(term)
	if term == lv.req.Search && lv.timer == nil {
		return
	}
	lv.pending = term

	if lv.timer != nil {
		lv.timer.Stop()
	}
	lv.timer = time.AfterFunc(lv.debounce, func() {
		lv.mu.Lock()
		lv.timer = nil
		lv.req.Search = lv.pending
		lv.req.Page = 1
		req := lv.emit()
		lv.mu.Unlock()
		lv.dispatch(req)
	})
}

// SetSort orders by a column key and fetches immediately, back on the first
// page. Prefix the key with "-" for descending; an empty key clears the sort.
// Keys that match no sortable column are ignored.
func (lv *ListView[T]) SetSort(key string) {
	lv.mu.Lock()
	if key != "" && !lv.sortable(strings.TrimPrefix(key, "-")) {
		lv.mu.Unlock()
		return
	}
	lv.req.Sort = key
	lv.req.Page = 1
	req := lv.emit()
	lv.mu.Unlock()
	lv.dispatch(req)
}

func (lv *ListView[T]) sortable(key string) bool {
	for _, c := range lv.columns {
		if c.Sortable && c.Key == key {
			return true
		}
	}
	return false
}

// SetStatuses replaces the status filter and fetches immediately, back on
// the first page.
func (lv *ListView[T]) SetStatuses(statuses ...string) {
	lv.mu.Lock()
	lv.req.Statuses = statuses
	lv.req.Page = 1
	req := lv.emit()
	lv.mu.Unlock()
	lv.dispatch(req)
}

// SetDate replaces the date filter and fetches immediately, back on the
// first page. Empty parts clear their filter.
func (lv *ListView[T]) SetDate(day, month, year string) {
	lv.mu.Lock()
	lv.req.Day = day
	lv.req.Month = month
	lv.req.Year = year
	lv.req.Page = 1
	req := lv.emit()
	lv.mu.Unlock()
	lv.dispatch(req)
}

// Accept applies a fetched page. Responses for anything but the latest
// request are discarded, so a slow fetch never overwrites a newer one.
func (lv *ListView[T]) Accept(seq uint64, rows []T, total, lastPage int) bool {
	lv.mu.Lock()
	defer lv.mu.Unlock()

	if seq != lv.req.Seq {
		return false
	}
	lv.rows = rows
	lv.total = total
	lv.lastPage = lastPage

	switch {
	case total > 0:
		lv.empty = EmptyNone
	case lv.req.filtered():
		lv.empty = EmptyNoMatch
	default:
		lv.empty = EmptyNoData
	}
	return true
}

// Empty reports why the accepted page has no rows: nothing exists at all, or
// the active filters matched nothing. EmptyNone while rows are showing or
// before the first page arrived.
func (lv *ListView[T]) Empty() EmptyKind {
	lv.mu.Lock()
	defer lv.mu.Unlock()
	return lv.empty
}

// Rows returns the currently displayed page.
func (lv *ListView[T]) Rows() []T {
	lv.mu.Lock()
	defer lv.mu.Unlock()
	return lv.rows
}

// Total returns the filtered row count across all pages.
func (lv *ListView[T]) Total() int {
	lv.mu.Lock()
	defer lv.mu.Unlock()
	return lv.total
}

// LastPage returns the number of the final page.
func (lv *ListView[T]) LastPage() int {
	lv.mu.Lock()
	defer lv.mu.Unlock()
	return lv.lastPage
}

// Request returns the current request parameters.
func (lv *ListView[T]) Request() PageRequest {
	lv.mu.Lock()
	defer lv.mu.Unlock()
	return lv.req
}

// Columns returns the table's column definitions.
func (lv *ListView[T]) Columns() []Column[T] {
	return lv.columns
}

// VisibleActions filters the row actions down to those the session may use.
func (lv *ListView[T]) VisibleActions(gate *Gate) []Action[T] {
	visible := make([]Action[T], 0, len(lv.actions))
	for _, a := range lv.actions {
		if a.Permission == "" || gate.Visible(a.Permission) {
			visible = append(visible, a)
		}
	}
	return visible
}

// Stop cancels a pending debounced fetch.
func (lv *ListView[T]) Stop() {
	lv.mu.Lock()
	defer lv.mu.Unlock()
	if lv.timer != nil {
		lv.timer.Stop()
		lv.timer = nil
	}
}

// emit stamps the next sequence number. Called with lv.mu held; the caller
// dispatches the returned request after releasing the lock.
func (lv *ListView[T]) emit() PageRequest {
	lv.req.Seq++
	return lv.req
}

func (lv *ListView[T]) dispatch(req PageRequest) {
	if lv.sink != nil {
		lv.sink(req)
	}
}
