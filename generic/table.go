/*
table.go - In-memory query engine over an arbitrary typed row set

PURPOSE:
  Every listing in the system (jobs, technicians, clients, contracts,
  callbacks, equipment) is the same interaction: free-text search, per-column
  filters, a single-column sort and pagination, plus export of what the user
  is currently looking at. Table[T] implements that once for any row type.

PIPELINE (re-evaluated on every read):
  1. Search   - row passes if any search field contains the term (case-insensitive)
  2. Filters  - row passes only if every non-empty filter matches its column
  3. Sort     - stable, by the raw value of the active column
  4. Paginate - rows [(page-1)*size, page*size)

STATE RULES:
  - Changing the search term or a filter resets the page to 1
  - Changing the sort or page never touches search or filters
  - ClearAllFilters resets search, filters and page, but keeps the sort

Errors are reserved for programming mistakes: naming a column the table never
declared, or sorting on a column that is not sortable. Empty results are a
normal state (see Page.EmptyMessage).

SEE ALSO:
  - compare.go: Stringify and Compare used by search, filter and sort
  - export.go: CSV and XLSX serialization of Filtered()
*/
package generic

import (
	"sort"
	"strings"
)

// =============================================================================
// COLUMN DEFINITIONS
// =============================================================================

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// FilterType tells a UI which filter control to show. Both kinds are applied
// with substring semantics.
type FilterType string

const (
	FilterText   FilterType = "text"
	FilterSelect FilterType = "select"
)

// DefaultPageSize is used when a table is built without WithPageSize.
const DefaultPageSize = 10

// EmptyMessage is shown when no row survives search and filters.
const EmptyMessage = "No results found"

// Column declares one field of a row type.
type Column[T any] struct {
	Key    string
	Header string

	// Value returns the raw value used for sorting.
	Value func(T) any

	// Text returns the string matched by search and filters. Defaults to
	// Stringify(Value(row)).
	Text func(T) string

	// Render returns the exported text. Defaults to Text.
	Render func(T) string

	Sortable      bool
	Filterable    bool
	FilterType    FilterType
	FilterOptions []string
}

func (c Column[T]) text(row T) string {
	if c.Text != nil {
		return c.Text(row)
	}
	if c.Value == nil {
		return ""
	}
	return Stringify(c.Value(row))
}

func (c Column[T]) rendered(row T) string {
	if c.Render != nil {
		return c.Render(row)
	}
	return c.text(row)
}

func (c Column[T]) raw(row T) any {
	if c.Value == nil {
		return nil
	}
	return c.Value(row)
}

// =============================================================================
// TABLE
// =============================================================================

// Table holds an immutable row set and the current view state. A Table is not
// safe for concurrent use; build one per session or request.
type Table[T any] struct {
	title        string
	rows         []T
	columns      []Column[T]
	byKey        map[string]int
	pageSize     int
	searchFields func(T) []string

	search  string
	filters map[string]string
	sortKey string
	sortDir SortDirection
	page    int
}

type TableOption[T any] func(*Table[T])

// WithPageSize sets the number of rows per page. Non-positive sizes are ignored.
func WithPageSize[T any](n int) TableOption[T] {
	return func(t *Table[T]) {
		if n > 0 {
			t.pageSize = n
		}
	}
}

// WithTitle names the table. The title prefixes export filenames.
func WithTitle[T any](title string) TableOption[T] {
	return func(t *Table[T]) { t.title = title }
}

// WithSearchFields replaces the per-row strings that free-text search scans.
// By default search covers the text of every declared column.
func WithSearchFields[T any](fn func(T) []string) TableOption[T] {
	return func(t *Table[T]) { t.searchFields = fn }
}

// NewTable builds a table over rows. The rows slice is copied.
func NewTable[T any](rows []T, columns []Column[T], opts ...TableOption[T]) *Table[T] {
	t := &Table[T]{
		rows:     append([]T(nil), rows...),
		columns:  columns,
		byKey:    make(map[string]int, len(columns)),
		pageSize: DefaultPageSize,
		filters:  make(map[string]string),
		page:     1,
	}
	for i, c := range columns {
		t.byKey[c.Key] = i
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Table[T]) Title() string { return t.title }
func (t *Table[T]) Columns() []Column[T] { return t.columns }
func (t *Table[T]) PageSize() int { return t.pageSize }
func (t *Table[T]) Search() string { return t.search }
func (t *Table[T]) CurrentPage() int { return t.page }
func (t *Table[T]) Sort() (string, SortDirection) { return t.sortKey, t.sortDir }

// Filters returns a copy of the active column filters.
func (t *Table[T]) Filters() map[string]string {
	out := make(map[string]string, len(t.filters))
	for k, v := range t.filters {
		out[k] = v
	}
	return out
}

func (t *Table[T]) column(key, op string) (Column[T], error) {
	i, ok := t.byKey[key]
	if !ok {
		return Column[T]{}, &ColumnError{Table: t.title, Column: key, Op: op, Err: ErrUnknownColumn}
	}
	return t.columns[i], nil
}

// =============================================================================
// STATE CHANGES
// =============================================================================

// SetSearch sets the free-text term and returns to page 1.
func (t *Table[T]) SetSearch(term string) {
	t.search = term
	t.page = 1
}

// SetColumnFilter sets the filter for one column and returns to page 1. An
// empty value removes the filter. Only Filterable columns accept a filter.
func (t *Table[T]) SetColumnFilter(key, value string) error {
	c, err := t.column(key, "filter")
	if err != nil {
		return err
	}
	if !c.Filterable {
		return &ColumnError{Table: t.title, Column: key, Op: "filter", Err: ErrColumnNotFilterable}
	}
	if value == "" {
		delete(t.filters, key)
	} else {
		t.filters[key] = value
	}
	t.page = 1
	return nil
}

// SetSort activates a column. Selecting the active column again flips the
// direction; selecting a different column starts ascending.
func (t *Table[T]) SetSort(key string) error {
	if err := t.checkSortable(key); err != nil {
		return err
	}
	if t.sortKey == key {
		if t.sortDir == SortAsc {
			t.sortDir = SortDesc
		} else {
			t.sortDir = SortAsc
		}
		return nil
	}
	t.sortKey = key
	t.sortDir = SortAsc
	return nil
}

// SortBy sets the sort column and direction explicitly. An empty key clears
// the sort. Any direction other than SortDesc is ascending.
func (t *Table[T]) SortBy(key string, dir SortDirection) error {
	if key == "" {
		t.sortKey, t.sortDir = "", ""
		return nil
	}
	if err := t.checkSortable(key); err != nil {
		return err
	}
	if dir != SortDesc {
		dir = SortAsc
	}
	t.sortKey, t.sortDir = key, dir
	return nil
}

func (t *Table[T]) checkSortable(key string) error {
	c, err := t.column(key, "sort")
	if err != nil {
		return err
	}
	if !c.Sortable {
		return &ColumnError{Table: t.title, Column: key, Op: "sort", Err: ErrColumnNotSortable}
	}
	return nil
}

// SetPage moves to page n (1-based). Values below 1 clamp to 1; pages past the
// end are allowed and render empty.
func (t *Table[T]) SetPage(n int) {
	if n < 1 {
		n = 1
	}
	t.page = n
}

// ClearAllFilters drops the search term and every column filter and returns
// to page 1. The sort is kept.
func (t *Table[T]) ClearAllFilters() {
	t.search = ""
	t.filters = make(map[string]string)
	t.page = 1
}

// =============================================================================
// PIPELINE
// =============================================================================

// Filtered returns the searched, filtered and sorted rows, before pagination.
func (t *Table[T]) Filtered() []T {
	term := strings.ToLower(t.search)
	out := make([]T, 0, len(t.rows))
	for _, row := range t.rows {
		if term != "" && !t.matchesSearch(row, term) {
			continue
		}
		if !t.matchesFilters(row) {
			continue
		}
		out = append(out, row)
	}

	if t.sortKey != "" {
		col := t.columns[t.byKey[t.sortKey]]
		desc := t.sortDir == SortDesc
		sort.SliceStable(out, func(i, j int) bool {
			c := Compare(col.raw(out[i]), col.raw(out[j]))
			if desc {
				return c > 0
			}
			return c < 0
		})
	}
	return out
}

func (t *Table[T]) matchesSearch(row T, term string) bool {
	if t.searchFields != nil {
		for _, s := range t.searchFields(row) {
			if containsFold(s, term) {
				return true
			}
		}
		return false
	}
	for _, c := range t.columns {
		if containsFold(c.text(row), term) {
			return true
		}
	}
	return false
}

func (t *Table[T]) matchesFilters(row T) bool {
	for key, value := range t.filters {
		if value == "" {
			continue
		}
		c := t.columns[t.byKey[key]]
		if !containsFold(c.text(row), strings.ToLower(value)) {
			return false
		}
	}
	return true
}

// =============================================================================
// PAGE - One rendered view
// =============================================================================

// Page is the visible slice of Filtered() plus the metadata a pager needs.
type Page[T any] struct {
	Rows       []T
	Number     int
	Size       int
	TotalPages int
	TotalCount int

	// From and To are the 1-based positions of the first and last visible row
	// within the filtered set. Both are 0 when the page is empty.
	From int
	To   int

	// Nearby lists up to five page numbers centered on Number.
	Nearby []int

	// EmptyMessage is set only when the filtered set is empty.
	EmptyMessage string
}

// View evaluates the pipeline and returns the current page.
func (t *Table[T]) View() Page[T] {
	filtered := t.Filtered()
	total := len(filtered)
	totalPages := (total + t.pageSize - 1) / t.pageSize

	p := Page[T]{
		Rows:       []T{},
		Number:     t.page,
		Size:       t.pageSize,
		TotalPages: totalPages,
		TotalCount: total,
		Nearby:     NearbyPages(t.page, totalPages),
	}
	if total == 0 {
		p.EmptyMessage = EmptyMessage
		return p
	}

	start := (t.page - 1) * t.pageSize
	if start >= total {
		return p
	}
	end := start + t.pageSize
	if end > total {
		end = total
	}
	p.Rows = filtered[start:end]
	p.From = start + 1
	p.To = end
	return p
}

// NearbyPages returns at most five consecutive page numbers around current,
// shifted so the window never runs past the first or last page.
func NearbyPages(current, totalPages int) []int {
	n := totalPages
	if n > 5 {
		n = 5
	}
	start := current - 2
	if start > totalPages-4 {
		start = totalPages - 4
	}
	if start < 1 {
		start = 1
	}
	pages := make([]int, n)
	for i := range pages {
		pages[i] = start + i
	}
	return pages
}
