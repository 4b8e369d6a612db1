package pagination

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPerPage = 15
	MaxPerPage     = 100
)

// PageError reports an invalid pagination parameter.
type PageError struct {
	Field   string
	Message string
}

func (e PageError) Error() string {
	return e.Field + ": " + e.Message
}

// Page is a one-based page request.
type Page struct {
	Number  int
	PerPage int
}

// Meta describes the page actually returned.
type Meta struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
}

// Parse reads ?page= and ?per_page= with Laravel-compatible defaults.
func Parse(values url.Values) (Page, error) {
	page := Page{Number: 1, PerPage: DefaultPerPage}

	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return page, PageError{Field: "page", Message: "must be a number"}
		}
		if parsed < 1 {
			return page, PageError{Field: "page", Message: "must be 1 or greater"}
		}
		page.Number = parsed
	}

	if raw := strings.TrimSpace(values.Get("per_page")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return page, PageError{Field: "per_page", Message: "must be a number"}
		}
		if parsed < 1 || parsed > MaxPerPage {
			return page, PageError{Field: "per_page", Message: "must be between 1 and 100"}
		}
		page.PerPage = parsed
	}

	return page, nil
}

// Offset is the row offset for this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// MetaFor builds the response meta block for a total row count.
func (p Page) MetaFor(total int) Meta {
	return Meta{Page: p.Number, PerPage: p.PerPage, Total: total}
}
