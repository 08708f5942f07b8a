// Package utils holds small helpers shared by the HTTP layer and the CLI.
package utils

import (
	"strconv"
	"strings"
)

// Page bounds used by list endpoints such as the approval log.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// ParsePage reads raw page and size values as sent in a query string.
// Missing or malformed values fall back to page 1 and DefaultPageSize;
// the size is clamped to [1, MaxPageSize].
func ParsePage(number, size string) Page {
	p := Page{
		Number: AtoiDefault(strings.TrimSpace(number), 1),
		Size:   AtoiDefault(strings.TrimSpace(size), DefaultPageSize),
	}
	if p.Number < 1 {
		p.Number = 1
	}
	switch {
	case p.Size < 1:
		p.Size = 1
	case p.Size > MaxPageSize:
		p.Size = MaxPageSize
	}
	return p
}

// Offset is the number of rows to skip.
func (p Page) Offset() int {
	if p.Number < 1 || p.Size < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// TotalPages reports how many pages total rows span. Zero rows is zero pages.
func (p Page) TotalPages(total int64) int {
	if total <= 0 || p.Size < 1 {
		return 0
	}
	return int((total + int64(p.Size) - 1) / int64(p.Size))
}

// HasNext reports whether another page follows this one.
func (p Page) HasNext(total int64) bool { return p.Number < p.TotalPages(total) }

// AtoiDefault is strconv.Atoi with a fallback for empty or invalid input.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
