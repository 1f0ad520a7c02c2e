package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/conduit-lang/resourcegraph/internal/graph"
	"github.com/conduit-lang/resourcegraph/internal/web/query"
	"github.com/conduit-lang/resourcegraph/internal/web/request"
	"github.com/conduit-lang/resourcegraph/internal/web/response"
)

func todoGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.Build(
		graph.ModelDeclaration{
			Type:   "todo.Person",
			IDType: graph.IDInt,
			Attributes: []graph.AttributeDecl{
				{Member: "FirstName"},
				{Member: "PasswordHash", NoFilter: true, NoSort: true},
			},
			Relationships: []graph.RelationshipDecl{{Member: "TodoItems", Cardinality: graph.ToMany, Target: "todo.TodoItem"}},
		},
		graph.ModelDeclaration{
			Type:   "todo.TodoItem",
			IDType: graph.IDInt,
			Keys:   []graph.Member{{Name: "OwnerId", Type: graph.IDInt}},
			Attributes: []graph.AttributeDecl{
				{Member: "Description"},
				{Member: "CreatedAt", PublicName: "created", Immutable: true},
			},
			Relationships: []graph.RelationshipDecl{
				{Member: "Owner", Cardinality: graph.ToOne, Target: "todo.Person", Dependent: true},
			},
		},
	)
	require.NoError(t, err)
	return g
}

// recordingHandler echoes what the router passed it
type recordingHandler struct {
	res    *graph.ResourceDescriptor
	id     any
	params query.Params
	page   query.Page
	change *request.Change
	err    error
}

func (h *recordingHandler) item() *response.Document {
	return &response.Document{Data: map[string]any{
		"type":       "people",
		"id":         "1",
		"attributes": map[string]any{"first-name": "Ann", "password-hash": "x"},
	}}
}

func (h *recordingHandler) List(_ context.Context, res *graph.ResourceDescriptor, p query.Params, page query.Page) (*response.Document, int, error) {
	h.res, h.params, h.page = res, p, page
	if h.err != nil {
		return nil, 0, h.err
	}
	return &response.Document{Data: []any{}}, 45, nil
}

func (h *recordingHandler) Show(_ context.Context, res *graph.ResourceDescriptor, id any, p query.Params) (*response.Document, error) {
	h.res, h.id, h.params = res, id, p
	if h.err != nil {
		return nil, h.err
	}
	return h.item(), nil
}

func (h *recordingHandler) Create(_ context.Context, change *request.Change, p query.Params) (*response.Document, error) {
	h.change, h.params = change, p
	return h.item(), h.err
}

func (h *recordingHandler) Update(_ context.Context, change *request.Change, p query.Params) (*response.Document, error) {
	h.change, h.params = change, p
	if h.err != nil {
		return nil, h.err
	}
	return nil, nil
}

func serve(t *testing.T, r *Router, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", response.JSONAPIMediaType)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func errorCodes(t *testing.T, rec *httptest.ResponseRecorder) []string {
	t.Helper()
	var doc response.ErrorDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	codes := make([]string, len(doc.Errors))
	for i, e := range doc.Errors {
		codes[i] = e.Code
	}
	return codes
}

func TestGraphIndex(t *testing.T) {
	r := New(todoGraph(t), nil)
	rec := serve(t, r, http.MethodGet, "/_graph", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, response.JSONAPIMediaType, rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{
		"data": [
			{"type":"resource-descriptors","id":"people","attributes":{"model-type":"todo.Person","id-type":"int","source":"manual","attribute-count":2,"relationship-count":1}},
			{"type":"resource-descriptors","id":"todo-items","attributes":{"model-type":"todo.TodoItem","id-type":"int","source":"manual","attribute-count":2,"relationship-count":1}}
		],
		"meta": {"total": 2}
	}`, rec.Body.String())
}

func TestGraphResource(t *testing.T) {
	r := New(todoGraph(t), nil, WithPrefix("/api/"))
	rec := serve(t, r, http.MethodGet, "/api/_graph/todo-items", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"type":"resource-descriptors","id":"todo-items","attributes":{
		"model-type":"todo.TodoItem","id-type":"int","source":"manual",
		"attributes":[
			{"name":"description","member":"Description","immutable":false,"filterable":true,"sortable":true},
			{"name":"created","member":"CreatedAt","immutable":true,"filterable":true,"sortable":true}
		],
		"relationships":[
			{"name":"owner","member":"Owner","cardinality":"to-one","target":"people","dependent":true,"foreign-key":"OwnerId","inverse":"todo-items"}
		]
	}}}`, rec.Body.String())

	rec = serve(t, r, http.MethodGet, "/api/_graph/tags", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, []string{"not_found"}, errorCodes(t, rec))
}

func TestList(t *testing.T) {
	h := &recordingHandler{}
	r := New(todoGraph(t), h)

	rec := serve(t, r, http.MethodGet, "/todo-items?include=owner&filter[owner.first-name]=Ann&page[limit]=10&page[offset]=20", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "todo-items", h.res.PublicName())
	assert.Equal(t, []string{"owner"}, h.params.Include)
	assert.Equal(t, query.Page{Limit: 10, Offset: 20}, h.page)

	var doc struct {
		Links response.Links `json:"links"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Contains(t, doc.Links.Next, "page%5Boffset%5D=30")
	assert.Contains(t, doc.Links.Prev, "page%5Boffset%5D=10")
	assert.Contains(t, doc.Links.Last, "page%5Boffset%5D=40")
}

func TestListLinksKeepUnalignedOffset(t *testing.T) {
	r := New(todoGraph(t), &recordingHandler{})

	rec := serve(t, r, http.MethodGet, "/people?page[limit]=10&page[offset]=15", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		Links response.Links `json:"links"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Contains(t, doc.Links.Self, "page%5Boffset%5D=15")
	assert.Contains(t, doc.Links.Prev, "page%5Boffset%5D=5")
	assert.Contains(t, doc.Links.Next, "page%5Boffset%5D=25")
	assert.Contains(t, doc.Links.Last, "page%5Boffset%5D=40")
}

func TestListRejectsInvalidQuery(t *testing.T) {
	h := &recordingHandler{}
	r := New(todoGraph(t), h)

	rec := serve(t, r, http.MethodGet, "/people?filter[password-hash]=x&sort=todo-items.description", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"invalid_query_parameter", "invalid_query_parameter"}, errorCodes(t, rec))
	assert.Nil(t, h.res, "handler must not run")

	rec = serve(t, r, http.MethodGet, "/people?page[limit]=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, r, http.MethodGet, "/tags", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShow(t *testing.T) {
	h := &recordingHandler{}
	r := New(todoGraph(t), h)

	rec := serve(t, r, http.MethodGet, "/people/7?fields[people]=first-name", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), h.id)
	assert.JSONEq(t, `{"data":{"type":"people","id":"1","attributes":{"first-name":"Ann"}}}`, rec.Body.String())

	rec = serve(t, r, http.MethodGet, "/people/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"bad_request"}, errorCodes(t, rec))
}

func TestUpdate(t *testing.T) {
	h := &recordingHandler{}
	r := New(todoGraph(t), h)

	rec := serve(t, r, http.MethodPatch, "/todo-items/3", `{"data":{"type":"todo-items","id":"3","attributes":{"description":"eggs"}}}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, h.change)
	assert.Equal(t, int64(3), h.change.ID)
	assert.Equal(t, json.RawMessage(`"eggs"`), h.change.Attributes["Description"])

	rec = serve(t, r, http.MethodPatch, "/todo-items/3", `{"data":{"type":"todo-items","id":"3","attributes":{"created":"2024-01-01"}}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = serve(t, r, http.MethodPatch, "/todo-items/3", `{"data":{"type":"todo-items","id":"4"}}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreate(t *testing.T) {
	h := &recordingHandler{}
	r := New(todoGraph(t), h)

	rec := serve(t, r, http.MethodPost, "/todo-items", `{"data":{"type":"todo-items","attributes":{"created":"2024-01-01"}}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, h.change.Attributes, "CreatedAt")
}

func TestUnimplementedHandler(t *testing.T) {
	r := New(todoGraph(t), nil)

	rec := serve(t, r, http.MethodGet, "/people", "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Equal(t, []string{"not_implemented"}, errorCodes(t, rec))

	// Validation still runs before the handler.
	rec = serve(t, r, http.MethodGet, "/people?include=tags", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerErrorsAreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h := &recordingHandler{err: errors.New("connection refused")}
	r := New(todoGraph(t), h, WithLogger(zap.New(core)))

	rec := serve(t, r, http.MethodGet, "/people/1", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
	assert.Equal(t, 1, logs.FilterMessage("handler failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("request").Len())
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	r := New(todoGraph(t), nil)

	rec := serve(t, r, http.MethodGet, "/people/1/extra/segments", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, []string{"not_found"}, errorCodes(t, rec))

	rec = serve(t, r, http.MethodDelete, "/people/1", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRoutes(t *testing.T) {
	r := New(todoGraph(t), nil, WithPrefix("/api"))
	assert.Equal(t, []RouteInfo{
		{Method: http.MethodGet, Pattern: "/api/_graph"},
		{Method: http.MethodGet, Pattern: "/api/_graph/{resource}"},
		{Method: http.MethodGet, Pattern: "/api/{resource}"},
		{Method: http.MethodPost, Pattern: "/api/{resource}"},
		{Method: http.MethodGet, Pattern: "/api/{resource}/{id}"},
		{Method: http.MethodPatch, Pattern: "/api/{resource}/{id}"},
	}, r.Routes())
}

func TestMaxBodySize(t *testing.T) {
	h := &recordingHandler{}
	r := New(todoGraph(t), h, WithMaxBodySize(64))

	body := `{"data":{"type":"todo-items","id":"3","attributes":{"description":"` + strings.Repeat("x", 200) + `"}}}`
	rec := serve(t, r, http.MethodPatch, "/todo-items/3", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, []string{"request_too_large"}, errorCodes(t, rec))
	assert.Nil(t, h.change)
}

func TestAcceptNegotiation(t *testing.T) {
	r := New(todoGraph(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/_graph", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotAcceptable, rec.Code)
	assert.Equal(t, []string{"not_acceptable"}, errorCodes(t, rec))

	req = httptest.NewRequest(http.MethodGet, "/_graph", nil)
	req.Header.Set("Accept", response.JSONAPIMediaType)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
