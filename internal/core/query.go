package core

import (
	"sort"
	"strings"

	"book-catalogue/internal/core/model"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// SortableFields lists the columns Query can sort by.
var SortableFields = []string{
	model.FieldTitle, model.FieldAuthor, model.FieldGenre, model.FieldLocation,
	model.FieldStatus, model.FieldAvailableCount, model.FieldAddedAt,
}

// Query returns a page of the records matching q.
// The flow is:
//
//  1. Apply filters (search term, status, genre, recency).
//  2. Sort the filtered records by the requested column, if any; otherwise
//     source order is kept.
//  3. Apply pagination (page / page_size).
func Query(records model.Collection, q model.ListQuery) model.Page[model.Record] {
	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		if matchFilters(r, q) {
			out = append(out, r)
		}
	}

	if q.Sort != nil {
		sortRecords(out, *q.Sort)
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	total := len(out)
	start := total
	if page-1 <= total/size {
		start = min((page-1)*size, total)
	}
	end := start + size
	if end > total {
		end = total
	}
	paged := make([]model.Record, end-start)
	copy(paged, out[start:end])

	return model.Page[model.Record]{Data: paged, Page: page, PageSize: size, Total: total}
}

func isAny(v string) bool {
	return v == "" || strings.EqualFold(v, "all")
}

// matchFilters checks whether a record matches the given query filters.
func matchFilters(r model.Record, q model.ListQuery) bool {
	// search term: any text column contains (case-insensitive)
	if q.Q != "" {
		needle := strings.ToLower(q.Q)
		found := false
		for _, f := range textFields {
			if s, ok := r.Text(f); ok && strings.Contains(strings.ToLower(s), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if !isAny(q.Status) && r.Status() != q.Status {
		return false
	}

	if !isAny(q.Genre) {
		if g, _ := r.Text(model.FieldGenre); g != q.Genre {
			return false
		}
	}

	if q.AddedSince != nil {
		added, ok := r.AddedAt()
		if !ok || added.Before(*q.AddedSince) {
			return false
		}
	}
	return true
}

// sortRecords sorts in place by one column. Numbers compare numerically,
// everything else by lower-cased text with missing values as "". Ties keep
// source order.
func sortRecords(rs []model.Record, key model.SortKey) {
	sort.SliceStable(rs, func(i, j int) bool {
		c := compareField(rs[i], rs[j], key.Field)
		if key.Desc {
			return c > 0
		}
		return c < 0
	})
}

func compareField(a, b model.Record, field string) int {
	if x, ok := a[field].(float64); ok {
		if y, ok := b[field].(float64); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(sortText(a[field]), sortText(b[field]))
}

func sortText(v any) string {
	if !isPresent(v) {
		return ""
	}
	return strings.ToLower(stringify(v))
}

// IsSortable reports whether Query can sort by field.
func IsSortable(field string) bool {
	for _, f := range SortableFields {
		if f == field {
			return true
		}
	}
	return false
}

// SortToggle returns the sort key after a click on column: the same column
// flips direction, another column starts ascending.
func SortToggle(current *model.SortKey, column string) model.SortKey {
	if current != nil && current.Field == column {
		return model.SortKey{Field: column, Desc: !current.Desc}
	}
	return model.SortKey{Field: column}
}

// Genres returns the distinct non-blank genres, sorted.
func Genres(records model.Collection) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range records {
		g, ok := r.Text(model.FieldGenre)
		if !ok || strings.TrimSpace(g) == "" {
			continue
		}
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// Summarize counts all records and the available ones.
func Summarize(records model.Collection) model.Summary {
	s := model.Summary{Total: len(records)}
	for _, r := range records {
		if r.Status() == model.StatusAvailable {
			s.Available++
		}
	}
	return s
}
