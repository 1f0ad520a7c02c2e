// Package request decodes JSON:API write documents and checks them against the
// resource graph before they reach the persistence layer.
package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"sort"
	"strings"

	"github.com/conduit-lang/resourcegraph/internal/graph"
)

const mediaType = "application/vnd.api+json"

// Error is a client error found while decoding a write document
type Error struct {
	Status  int
	Title   string
	Detail  string
	Pointer string // JSON pointer into the request document
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Pointer != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Title, e.Detail, e.Pointer)
	}
	return fmt.Sprintf("%s: %s", e.Title, e.Detail)
}

func badRequest(detail, pointer string) *Error {
	return &Error{Status: http.StatusBadRequest, Title: "Invalid request body", Detail: detail, Pointer: pointer}
}

// Document is a JSON:API write document with a single primary resource
type Document struct {
	Data *ResourceObject `json:"data"`
}

// ResourceObject is the primary data of a write document
type ResourceObject struct {
	Type          string                     `json:"type"`
	ID            string                     `json:"id,omitempty"`
	Attributes    map[string]json.RawMessage `json:"attributes,omitempty"`
	Relationships map[string]json.RawMessage `json:"relationships,omitempty"`
}

// Change is a decoded write, keyed by backing member names
type Change struct {
	Resource *graph.ResourceDescriptor

	// ID is the typed identity (int64, string or uuid.UUID); nil on create
	// without a client-generated id.
	ID any

	Attributes    map[string]json.RawMessage
	Relationships map[string]json.RawMessage
}

// Parser decodes write documents
type Parser struct {
	graph       *graph.Graph
	maxBodySize int64 // Maximum size for request bodies (in bytes)
}

// NewParser creates a new request parser with default settings
func NewParser(g *graph.Graph) *Parser {
	return &Parser{
		graph:       g,
		maxBodySize: 10 << 20, // 10MB default
	}
}

// NewParserWithMaxSize creates a parser with a custom max body size
func NewParserWithMaxSize(g *graph.Graph, maxBytes int64) *Parser {
	return &Parser{
		graph:       g,
		maxBodySize: maxBytes,
	}
}

// ParsePatch decodes a partial update of resource/id. Attempts to change an
// immutable attribute are rejected.
func (p *Parser) ParsePatch(w http.ResponseWriter, r *http.Request, resource, id string) (*Change, error) {
	res, err := p.graph.ResourceByName(resource)
	if err != nil {
		return nil, err
	}
	typedID, err := res.IDType().Parse(id)
	if err != nil {
		return nil, &Error{Status: http.StatusBadRequest, Title: "Invalid id", Detail: err.Error()}
	}

	obj, err := p.decode(w, r, res)
	if err != nil {
		return nil, err
	}
	// Ids compare by value, so uuid spelling and case do not matter.
	if docID, err := res.IDType().Parse(obj.ID); err != nil || docID != typedID {
		return nil, &Error{
			Status:  http.StatusConflict,
			Title:   "Resource id mismatch",
			Detail:  fmt.Sprintf("document id %q does not match endpoint id %q", obj.ID, id),
			Pointer: "/data/id",
		}
	}

	return p.change(res, obj, typedID, true)
}

// ParseCreate decodes a new resource. Immutable attributes may be set; a
// client-generated id must parse as the resource's id type.
func (p *Parser) ParseCreate(w http.ResponseWriter, r *http.Request, resource string) (*Change, error) {
	res, err := p.graph.ResourceByName(resource)
	if err != nil {
		return nil, err
	}

	obj, err := p.decode(w, r, res)
	if err != nil {
		return nil, err
	}

	var typedID any
	if obj.ID != "" {
		if typedID, err = res.IDType().Parse(obj.ID); err != nil {
			return nil, badRequest(err.Error(), "/data/id")
		}
	}

	return p.change(res, obj, typedID, false)
}

func (p *Parser) decode(w http.ResponseWriter, r *http.Request, res *graph.ResourceDescriptor) (*ResourceObject, error) {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil || (mt != mediaType && mt != "application/json") {
			return nil, &Error{
				Status: http.StatusUnsupportedMediaType,
				Title:  "Unsupported media type",
				Detail: fmt.Sprintf("expected %s", mediaType),
			}
		}
	}

	// Limit body size to prevent DoS attacks
	r.Body = http.MaxBytesReader(w, r.Body, p.maxBodySize)
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var doc Document
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, badRequest("request body is empty", "")
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &Error{
				Status: http.StatusRequestEntityTooLarge,
				Title:  "Request body too large",
				Detail: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
			}
		}
		return nil, badRequest(fmt.Sprintf("invalid JSON: %v", err), "")
	}
	if decoder.More() {
		return nil, badRequest("request body contains multiple JSON objects", "")
	}

	if doc.Data == nil {
		return nil, badRequest("missing primary data", "/data")
	}
	if doc.Data.Type != res.PublicName() {
		return nil, &Error{
			Status:  http.StatusConflict,
			Title:   "Resource type mismatch",
			Detail:  fmt.Sprintf("expected type %q, got %q", res.PublicName(), doc.Data.Type),
			Pointer: "/data/type",
		}
	}
	return doc.Data, nil
}

func (p *Parser) change(res *graph.ResourceDescriptor, obj *ResourceObject, id any, update bool) (*Change, error) {
	c := &Change{
		Resource:      res,
		ID:            id,
		Attributes:    make(map[string]json.RawMessage, len(obj.Attributes)),
		Relationships: make(map[string]json.RawMessage, len(obj.Relationships)),
	}

	var unprocessable []string
	for _, name := range sortedNames(obj.Attributes) {
		value := obj.Attributes[name]
		attr, err := res.Attribute(name)
		if err != nil {
			return nil, &Error{
				Status:  http.StatusUnprocessableEntity,
				Title:   "Unknown attribute",
				Detail:  fmt.Sprintf("%s has no attribute %q", res.PublicName(), name),
				Pointer: "/data/attributes/" + name,
			}
		}
		if update && attr.Immutable {
			unprocessable = append(unprocessable, name)
			continue
		}
		c.Attributes[attr.Member] = value
	}
	if len(unprocessable) > 0 {
		return nil, &Error{
			Status:  http.StatusUnprocessableEntity,
			Title:   "Attribute is immutable",
			Detail:  fmt.Sprintf("cannot change %s on %s", strings.Join(unprocessable, ", "), res.PublicName()),
			Pointer: "/data/attributes/" + unprocessable[0],
		}
	}

	for _, name := range sortedNames(obj.Relationships) {
		value := obj.Relationships[name]
		rel, err := res.Relationship(name)
		if err != nil {
			return nil, &Error{
				Status:  http.StatusUnprocessableEntity,
				Title:   "Unknown relationship",
				Detail:  fmt.Sprintf("%s has no relationship %q", res.PublicName(), name),
				Pointer: "/data/relationships/" + name,
			}
		}
		c.Relationships[rel.Member] = value
	}

	return c, nil
}

// sortedNames returns the member names of a document object in order, so the
// first offending field reported does not depend on map iteration.
func sortedNames(members map[string]json.RawMessage) []string {
	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
