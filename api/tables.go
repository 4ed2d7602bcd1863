package api

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/hvac-insights/generic"
	"github.com/warp/hvac-insights/hvac"
)

// =============================================================================
// TABLE DTOs
// =============================================================================

type ColumnDTO struct {
	Key           string   `json:"key"`
	Header        string   `json:"header"`
	Sortable      bool     `json:"sortable"`
	Filterable    bool     `json:"filterable"`
	FilterType    string   `json:"filter_type,omitempty"`
	FilterOptions []string `json:"filter_options,omitempty"`
}

type TableInfoDTO struct {
	Name    string      `json:"name"`
	Title   string      `json:"title"`
	Columns []ColumnDTO `json:"columns"`
}

type TablePageDTO struct {
	Table        string            `json:"table"`
	Rows         []map[string]any  `json:"rows"`
	Page         int               `json:"page"`
	PageSize     int               `json:"page_size"`
	TotalPages   int               `json:"total_pages"`
	TotalCount   int               `json:"total_count"`
	From         int               `json:"from"`
	To           int               `json:"to"`
	Nearby       []int             `json:"nearby_pages"`
	EmptyMessage string            `json:"empty_message,omitempty"`
	Search       string            `json:"search,omitempty"`
	Filters      map[string]string `json:"filters"`
	Sort         string            `json:"sort,omitempty"`
	Dir          string            `json:"dir,omitempty"`
}

// =============================================================================
// TABLE REGISTRY - type-erased listings over hvac row types
// =============================================================================

// tableQuery is the stateless form of a table's view state, read from the URL.
type tableQuery struct {
	asOf     time.Time
	search   string
	filters  map[string]string
	sortKey  string
	sortDir  generic.SortDirection
	page     int
	pageSize int
}

type tableView interface {
	Name() string
	Info() TableInfoDTO
	Page(e *hvac.Engine, q tableQuery) (TablePageDTO, error)
	Export(e *hvac.Engine, q tableQuery, w io.Writer, format string) (filename string, err error)
}

// tableDef describes one listing: where its rows come from and its columns.
type tableDef[T any] struct {
	name    string
	title   string
	columns []generic.Column[T]
	rows    func(e *hvac.Engine, asOf time.Time) []T
}

func (d tableDef[T]) Name() string { return d.name }

func (d tableDef[T]) Info() TableInfoDTO {
	info := TableInfoDTO{Name: d.name, Title: d.title, Columns: make([]ColumnDTO, len(d.columns))}
	for i, c := range d.columns {
		info.Columns[i] = ColumnDTO{
			Key:           c.Key,
			Header:        c.Header,
			Sortable:      c.Sortable,
			Filterable:    c.Filterable,
			FilterType:    string(c.FilterType),
			FilterOptions: c.FilterOptions,
		}
	}
	return info
}

// build replays the query onto a fresh table: search, filters, sort, page.
func (d tableDef[T]) build(e *hvac.Engine, q tableQuery) (*generic.Table[T], error) {
	t := generic.NewTable(d.rows(e, q.asOf), d.columns,
		generic.WithTitle[T](d.name),
		generic.WithPageSize[T](q.pageSize),
	)
	t.SetSearch(q.search)

	keys := make([]string, 0, len(q.filters))
	for k := range q.filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := t.SetColumnFilter(k, q.filters[k]); err != nil {
			return nil, err
		}
	}
	if q.sortKey != "" {
		if err := t.SortBy(q.sortKey, q.sortDir); err != nil {
			return nil, err
		}
	}
	t.SetPage(q.page)
	return t, nil
}

func (d tableDef[T]) Page(e *hvac.Engine, q tableQuery) (TablePageDTO, error) {
	t, err := d.build(e, q)
	if err != nil {
		return TablePageDTO{}, err
	}
	view := t.View()
	sortKey, sortDir := t.Sort()

	out := TablePageDTO{
		Table:        d.name,
		Rows:         make([]map[string]any, len(view.Rows)),
		Page:         view.Number,
		PageSize:     view.Size,
		TotalPages:   view.TotalPages,
		TotalCount:   view.TotalCount,
		From:         view.From,
		To:           view.To,
		Nearby:       view.Nearby,
		EmptyMessage: view.EmptyMessage,
		Search:       t.Search(),
		Filters:      t.Filters(),
		Sort:         sortKey,
		Dir:          string(sortDir),
	}
	for i, row := range view.Rows {
		cells := make(map[string]any, len(d.columns))
		for _, c := range d.columns {
			cells[c.Key] = cellValue(c.Value(row))
		}
		out.Rows[i] = cells
	}
	return out, nil
}

func (d tableDef[T]) Export(e *hvac.Engine, q tableQuery, w io.Writer, format string) (string, error) {
	t, err := d.build(e, q)
	if err != nil {
		return "", err
	}
	switch format {
	case "csv":
		return t.ExportFilename("csv"), t.ExportCSV(w)
	case "xlsx":
		return t.ExportFilename("xlsx"), t.ExportXLSX(w)
	}
	return "", fmt.Errorf("%w: unsupported export format %q", errBadParam, format)
}

// cellValue converts a raw column value to its JSON form.
func cellValue(v any) any {
	switch x := v.(type) {
	case decimal.Decimal:
		return money(x)
	case *float64:
		if x == nil {
			return nil
		}
		return *x
	case *int:
		if x == nil {
			return nil
		}
		return *x
	case *time.Time:
		if x == nil {
			return nil
		}
		return *x
	case time.Time:
		if x.IsZero() {
			return nil
		}
		return x
	}
	return v
}

// =============================================================================
// TABLE ENDPOINTS
// =============================================================================

// ListTables handles GET /api/tables
func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	out := make([]TableInfoDTO, len(h.catalog))
	for i, t := range h.catalog {
		out[i] = t.Info()
	}
	writeJSON(w, http.StatusOK, out)
}

// GetTablePage handles GET /api/tables/{name}
func (h *Handler) GetTablePage(w http.ResponseWriter, r *http.Request) {
	t, q, err := h.tableRequest(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	page, err := t.Page(h.Engine(), q)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// ExportTableCSV handles GET /api/tables/{name}/export.csv
func (h *Handler) ExportTableCSV(w http.ResponseWriter, r *http.Request) {
	h.exportTable(w, r, "csv", "text/csv; charset=utf-8")
}

// ExportTableXLSX handles GET /api/tables/{name}/export.xlsx
func (h *Handler) ExportTableXLSX(w http.ResponseWriter, r *http.Request) {
	h.exportTable(w, r, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
}

// exportTable writes every filtered and sorted row, ignoring pagination. The
// file is buffered so a failure can still be reported as JSON.
func (h *Handler) exportTable(w http.ResponseWriter, r *http.Request, format, contentType string) {
	t, q, err := h.tableRequest(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var buf bytes.Buffer
	filename, err := t.Export(h.Engine(), q, &buf, format)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handler) tableRequest(r *http.Request) (tableView, tableQuery, error) {
	name := chi.URLParam(r, "name")
	t, ok := h.tables[name]
	if !ok {
		return nil, tableQuery{}, fmt.Errorf("table %q: %w", name, generic.ErrNotFound)
	}
	q, err := h.parseTableQuery(r)
	return t, q, err
}

func (h *Handler) parseTableQuery(r *http.Request) (tableQuery, error) {
	values := r.URL.Query()
	q := tableQuery{
		search:  values.Get("search"),
		filters: make(map[string]string),
		sortKey: values.Get("sort"),
		sortDir: generic.SortAsc,
	}
	for key, vals := range values {
		if col, ok := strings.CutPrefix(key, "filter."); ok && len(vals) > 0 {
			q.filters[col] = vals[0]
		}
	}

	switch dir := values.Get("dir"); dir {
	case "", "asc":
	case "desc":
		q.sortDir = generic.SortDesc
	default:
		return tableQuery{}, fmt.Errorf("%w: dir=%q must be asc or desc", errBadParam, dir)
	}

	var err error
	if q.asOf, err = parseAsOf(r); err != nil {
		return tableQuery{}, err
	}
	if q.page, err = intParam(r, "page", 1, math.MaxInt32); err != nil {
		return tableQuery{}, err
	}
	if q.pageSize, err = intParam(r, "page_size", h.pageSize, maxPageSize); err != nil {
		return tableQuery{}, err
	}
	return q, nil
}
