// Package pagination parses paging parameters and describes paged results.
package pagination

import (
	"math"
	"net/http"
	"strconv"

	"clinic-portal/internal/apierrors"
)

// MaxLimit bounds the page size a client may request.
const MaxLimit = 100

// Params holds the requested page, starting at 1, and its size.
type Params struct {
	Page  int
	Limit int
}

// Offset returns the number of rows to skip.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page describes a page of results.
type Page struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// NewPage builds the page metadata for the given parameters and total of rows.
func NewPage(params Params, total int) Page {
	pages := 0
	if params.Limit > 0 {
		pages = (total + params.Limit - 1) / params.Limit
	}
	return Page{Page: params.Page, Limit: params.Limit, Total: total, Pages: pages}
}

// FromRequest reads the page and limit query parameters, falling back to the first page of
// defaultLimit rows.
func FromRequest(r *http.Request, defaultLimit int) (Params, error) {
	params := Params{Page: 1, Limit: defaultLimit}
	query := r.URL.Query()
	if v := query.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return Params{}, apierrors.NewValidationError("page", "must be a positive integer")
		}
		params.Page = page
	}
	if v := query.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > MaxLimit {
			return Params{}, apierrors.NewValidationError("limit", "must be between 1 and 100")
		}
		params.Limit = limit
	}
	if params.Page-1 > math.MaxInt/params.Limit {
		return Params{}, apierrors.NewValidationError("page", "is out of range")
	}
	return params, nil
}
