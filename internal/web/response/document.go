package response

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/conduit-lang/resourcegraph/internal/web/query"
)

const (
	// JSONAPIMediaType is the official JSON:API media type
	JSONAPIMediaType = "application/vnd.api+json"
)

// Document is a top-level JSON:API document. Data holds a resource object, a
// slice of them, or nil.
type Document struct {
	Data     any            `json:"data"`
	Included []any          `json:"included,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
	Links    *Links         `json:"links,omitempty"`
}

// Links are the top-level links of a document
type Links struct {
	Self  string `json:"self,omitempty"`
	First string `json:"first,omitempty"`
	Prev  string `json:"prev,omitempty"`
	Next  string `json:"next,omitempty"`
	Last  string `json:"last,omitempty"`
}

// IsJSONAPI reports whether the request's Accept header admits a JSON:API
// response. A missing header, wildcards and application/json all do; a
// JSON:API media range only counts when it carries no parameters besides q.
func IsJSONAPI(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if accept == "" {
		return true
	}

	for _, part := range strings.Split(accept, ",") {
		mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mediaType {
		case "*/*", "application/*", "application/json":
			return true
		case JSONAPIMediaType:
			delete(params, "q")
			if len(params) == 0 {
				return true
			}
		}
	}
	return false
}

// Render writes a document, trimmed to the requested sparse fieldsets
func Render(w http.ResponseWriter, status int, doc *Document, fieldsets map[string][]string) error {
	// Marshal FIRST, before touching the response
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if data, err = ApplySparseFieldsets(data, fieldsets); err != nil {
		return err
	}

	w.Header().Set("Content-Type", JSONAPIMediaType)
	w.WriteHeader(status)
	_, err = w.Write(data)
	return err
}

// BuildPaginationLinks creates offset pagination links for a collection. Self
// repeats the served window; prev and next step by the limit from it.
func BuildPaginationLinks(baseURL string, page query.Page, total int) *Links {
	limit := page.Limit
	if limit < 1 {
		limit = query.DefaultPageLimit
	}

	last := 0
	if total > 0 {
		last = (total - 1) / limit * limit
	}

	links := &Links{
		Self:  buildPageURL(baseURL, page.Offset, limit),
		First: buildPageURL(baseURL, 0, limit),
		Last:  buildPageURL(baseURL, last, limit),
	}

	if page.Offset > 0 {
		links.Prev = buildPageURL(baseURL, max(page.Offset-limit, 0), limit)
	}
	if page.Offset+limit < total {
		links.Next = buildPageURL(baseURL, page.Offset+limit, limit)
	}

	return links
}

func buildPageURL(baseURL string, offset, limit int) string {
	// Parse the base URL to handle existing query parameters
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Sprintf("%s?page[limit]=%d&page[offset]=%d", baseURL, limit, offset)
	}

	q := u.Query()
	q.Set("page[limit]", strconv.Itoa(limit))
	q.Set("page[offset]", strconv.Itoa(offset))
	u.RawQuery = q.Encode()

	return u.String()
}
