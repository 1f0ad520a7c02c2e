package query

import (
	"net/http"
	"strconv"
)

const (
	// DefaultPageLimit is used when page[limit] is absent
	DefaultPageLimit = 20
	// MaxPageLimit caps page[limit]
	MaxPageLimit = 100
)

// Page is an offset-based page selection (page[limit], page[offset])
type Page struct {
	Limit  int
	Offset int
}

// ParsePage parses page[limit] and page[offset]. Invalid values are
// reported as an *Error.
func ParsePage(r *http.Request) (Page, error) {
	q := r.URL.Query()
	page := Page{Limit: DefaultPageLimit}

	var violations []Violation
	if raw := q.Get("page[limit]"); raw != "" {
		n, err := strconv.Atoi(raw)
		switch {
		case err != nil || n < 1:
			violations = append(violations, Violation{Parameter: "page[limit]", Detail: "must be a positive integer"})
		case n > MaxPageLimit:
			violations = append(violations, Violation{Parameter: "page[limit]", Detail: "must not exceed " + strconv.Itoa(MaxPageLimit)})
		default:
			page.Limit = n
		}
	}
	if raw := q.Get("page[offset]"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			violations = append(violations, Violation{Parameter: "page[offset]", Detail: "must be a non-negative integer"})
		} else {
			page.Offset = n
		}
	}

	if len(violations) > 0 {
		return Page{}, &Error{Violations: violations}
	}
	return page, nil
}
