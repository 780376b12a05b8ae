package memory

import (
	"cmp"
	"slices"
	"strings"

	"backoffice/internal/repository"
)

type comparator[T any] func(a, b T) int

// sortAndPage orders items by the comparator registered for opts.SortBy
// (createdAt when unknown), breaking ties with tie, then applies skip and limit.
func sortAndPage[T any](items []T, opts repository.ListOptions, sorters map[string]comparator[T], tie comparator[T]) []T {
	limit, skip, _, order := opts.Normalize(nil)

	by, ok := sorters[opts.SortBy]
	if !ok {
		by = sorters["createdAt"]
	}
	slices.SortStableFunc(items, func(a, b T) int {
		c := by(a, b)
		if order == repository.SortOrderDesc {
			c = -c
		}
		if c == 0 {
			c = tie(a, b)
		}
		return c
	})

	if skip >= len(items) {
		return items[:0]
	}
	items = items[skip:]
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func byString[T any](f func(T) string) comparator[T] {
	return func(a, b T) int { return cmp.Compare(f(a), f(b)) }
}
