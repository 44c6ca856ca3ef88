// Package utils holds small shared helpers with no domain knowledge.
package utils

import "strconv"

// AtoiDefault parses s as an int, returning def when parsing fails.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// ClampPage normalizes 1-based pagination inputs: page floors at 1, size
// floors at 1 and caps at maxSize.
func ClampPage(page, size, maxSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 1
	}
	if maxSize > 0 && size > maxSize {
		size = maxSize
	}
	return page, size
}

// TotalPages returns the page count for total items at size per page.
func TotalPages(total int64, size int) int64 {
	if size <= 0 || total <= 0 {
		return 0
	}
	return (total + int64(size) - 1) / int64(size)
}
