package repository

import "strings"

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// ListOptions carries paging, sorting and free-text search for list queries.
// SortBy uses the JSON field name of the entity ("sellingPrice", "createdAt").
type ListOptions struct {
	Limit     int
	Skip      int
	SortBy    string
	SortOrder SortOrder
	TextQuery string
}

// Normalize clamps paging values and resolves SortBy against the allowed
// columns, falling back to created_at descending.
func (o ListOptions) Normalize(columns map[string]string) (limit, skip int, column string, order SortOrder) {
	limit = o.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	skip = o.Skip
	if skip < 0 {
		skip = 0
	}

	column, ok := columns[o.SortBy]
	if !ok {
		column = "created_at"
	}

	order = SortOrder(strings.ToUpper(string(o.SortOrder)))
	if order != SortOrderAsc && order != SortOrderDesc {
		order = SortOrderDesc
	}
	return limit, skip, column, order
}

// ParseSort splits "field:desc" into its parts; the direction defaults to ascending
func ParseSort(raw string) (string, SortOrder) {
	if raw == "" {
		return "", ""
	}
	field, dir, _ := strings.Cut(raw, ":")
	if strings.EqualFold(dir, "desc") {
		return field, SortOrderDesc
	}
	return field, SortOrderAsc
}
