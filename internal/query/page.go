package query

// Paginate returns the 1-indexed page of size pageSize, clipped to len(items).
// Out-of-range pages and non-positive arguments yield an empty slice.
func Paginate[T any](items []T, page, pageSize int) []T {
	if page < 1 || pageSize < 1 {
		return []T{}
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := min(start+pageSize, len(items))
	return items[start:end]
}

// TotalPages returns ceil(n/pageSize).
func TotalPages(n, pageSize int) int {
	if n <= 0 || pageSize < 1 {
		return 0
	}
	return (n + pageSize - 1) / pageSize
}

// Rank is the display rank of row i (0-indexed) on page. It counts down from
// totalCount, so the first row of page 1 has rank totalCount.
func Rank(totalCount, page, pageSize, i int) int {
	return totalCount - ((page-1)*pageSize + i)
}
