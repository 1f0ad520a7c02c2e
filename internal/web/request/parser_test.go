package request

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/resourcegraph/internal/graph"
)

func todoGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.Build(
		graph.ModelDeclaration{
			Type:          "todo.Person",
			IDType:        graph.IDInt,
			Attributes:    []graph.AttributeDecl{{Member: "FirstName"}},
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

func newRequest(method, body string) *http.Request {
	req := httptest.NewRequest(method, "/todo-items/1", strings.NewReader(body))
	req.Header.Set("Content-Type", mediaType)
	return req
}

func TestParsePatch(t *testing.T) {
	p := NewParser(todoGraph(t))
	body := `{"data":{"type":"todo-items","id":"1","attributes":{"description":"milk"},"relationships":{"owner":{"data":{"type":"people","id":"2"}}}}}`

	c, err := p.ParsePatch(httptest.NewRecorder(), newRequest(http.MethodPatch, body), "todo-items", "1")
	require.NoError(t, err)

	assert.Equal(t, "todo-items", c.Resource.PublicName())
	assert.Equal(t, int64(1), c.ID)
	assert.Equal(t, json.RawMessage(`"milk"`), c.Attributes["Description"])
	assert.Contains(t, c.Relationships, "Owner")
}

func TestParsePatchErrors(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		body    string
		status  int
		pointer string
	}{
		{
			name:    "immutable attribute",
			id:      "1",
			body:    `{"data":{"type":"todo-items","id":"1","attributes":{"created":"2024-01-01","description":"x"}}}`,
			status:  http.StatusUnprocessableEntity,
			pointer: "/data/attributes/created",
		},
		{
			name:    "unknown attribute",
			id:      "1",
			body:    `{"data":{"type":"todo-items","id":"1","attributes":{"colour":"red"}}}`,
			status:  http.StatusUnprocessableEntity,
			pointer: "/data/attributes/colour",
		},
		{
			name:    "unknown relationship",
			id:      "1",
			body:    `{"data":{"type":"todo-items","id":"1","relationships":{"tags":{"data":[]}}}}`,
			status:  http.StatusUnprocessableEntity,
			pointer: "/data/relationships/tags",
		},
		{
			name:    "type mismatch",
			id:      "1",
			body:    `{"data":{"type":"people","id":"1"}}`,
			status:  http.StatusConflict,
			pointer: "/data/type",
		},
		{
			name:    "id mismatch",
			id:      "1",
			body:    `{"data":{"type":"todo-items","id":"2"}}`,
			status:  http.StatusConflict,
			pointer: "/data/id",
		},
		{
			name:   "invalid id",
			id:     "abc",
			body:   `{"data":{"type":"todo-items","id":"abc"}}`,
			status: http.StatusBadRequest,
		},
		{
			name:    "missing data",
			id:      "1",
			body:    `{"data":null}`,
			status:  http.StatusBadRequest,
			pointer: "/data",
		},
		{
			name:   "unknown document member",
			id:     "1",
			body:   `{"data":{"type":"todo-items","id":"1"},"extra":true}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "empty body",
			id:     "1",
			body:   ``,
			status: http.StatusBadRequest,
		},
		{
			name:   "multiple documents",
			id:     "1",
			body:   `{"data":{"type":"todo-items","id":"1"}}{}`,
			status: http.StatusBadRequest,
		},
	}

	p := NewParser(todoGraph(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParsePatch(httptest.NewRecorder(), newRequest(http.MethodPatch, tt.body), "todo-items", tt.id)
			var rerr *Error
			require.True(t, errors.As(err, &rerr), "got %v", err)
			assert.Equal(t, tt.status, rerr.Status)
			assert.Equal(t, tt.pointer, rerr.Pointer)
		})
	}
}

func TestParsePatchUnknownResource(t *testing.T) {
	p := NewParser(todoGraph(t))
	_, err := p.ParsePatch(httptest.NewRecorder(), newRequest(http.MethodPatch, `{}`), "tags", "1")
	assert.ErrorIs(t, err, graph.ErrNotFound)
}

func TestParseCreate(t *testing.T) {
	p := NewParser(todoGraph(t))
	body := `{"data":{"type":"todo-items","attributes":{"description":"milk","created":"2024-01-01"}}}`

	c, err := p.ParseCreate(httptest.NewRecorder(), newRequest(http.MethodPost, body), "todo-items")
	require.NoError(t, err)
	assert.Nil(t, c.ID)
	assert.Len(t, c.Attributes, 2)
	assert.Contains(t, c.Attributes, "CreatedAt")

	_, err = p.ParseCreate(httptest.NewRecorder(), newRequest(http.MethodPost, `{"data":{"type":"todo-items","id":"x"}}`), "todo-items")
	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, http.StatusBadRequest, rerr.Status)
	assert.Equal(t, "/data/id", rerr.Pointer)
}

func TestUnsupportedMediaType(t *testing.T) {
	p := NewParser(todoGraph(t))
	req := newRequest(http.MethodPost, `{"data":{"type":"todo-items"}}`)
	req.Header.Set("Content-Type", "text/plain")

	_, err := p.ParseCreate(httptest.NewRecorder(), req, "todo-items")
	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, http.StatusUnsupportedMediaType, rerr.Status)
}

func TestMaxBodySize(t *testing.T) {
	p := NewParserWithMaxSize(todoGraph(t), 16)
	body := `{"data":{"type":"todo-items","attributes":{"description":"` + strings.Repeat("a", 64) + `"}}}`

	_, err := p.ParseCreate(httptest.NewRecorder(), newRequest(http.MethodPost, body), "todo-items")
	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rerr.Status)
	assert.Equal(t, "Request body too large", rerr.Title)
}

func TestParsePatchComparesTypedIDs(t *testing.T) {
	g, err := graph.Build(graph.ModelDeclaration{
		Type:       "todo.Tag",
		IDType:     graph.IDUUID,
		Attributes: []graph.AttributeDecl{{Member: "Label"}},
	})
	require.NoError(t, err)
	p := NewParser(g)

	const upper = "6BA7B810-9DAD-11D1-80B4-00C04FD430C8"
	body := `{"data":{"type":"tags","id":"6ba7b810-9dad-11d1-80b4-00c04fd430c8","attributes":{"label":"home"}}}`

	c, err := p.ParsePatch(httptest.NewRecorder(), newRequest(http.MethodPatch, body), "tags", upper)
	require.NoError(t, err)
	assert.Equal(t, uuid.MustParse(upper), c.ID)

	body = `{"data":{"type":"tags","id":"00000000-0000-0000-0000-000000000001"}}`
	_, err = p.ParsePatch(httptest.NewRecorder(), newRequest(http.MethodPatch, body), "tags", upper)
	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, http.StatusConflict, rerr.Status)

	body = `{"data":{"type":"tags"}}`
	_, err = p.ParsePatch(httptest.NewRecorder(), newRequest(http.MethodPatch, body), "tags", upper)
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "/data/id", rerr.Pointer)
}

func TestUnknownFieldsReportedInOrder(t *testing.T) {
	p := NewParser(todoGraph(t))
	attrs := `{"data":{"type":"todo-items","id":"1","attributes":{"zeta":1,"colour":"red","mass":2,"beta":3}}}`
	rels := `{"data":{"type":"todo-items","id":"1","relationships":{"tags":{"data":[]},"assignee":{"data":null}}}}`

	for i := 0; i < 20; i++ {
		_, err := p.ParsePatch(httptest.NewRecorder(), newRequest(http.MethodPatch, attrs), "todo-items", "1")
		var rerr *Error
		require.True(t, errors.As(err, &rerr))
		assert.Equal(t, "/data/attributes/beta", rerr.Pointer)

		_, err = p.ParsePatch(httptest.NewRecorder(), newRequest(http.MethodPatch, rels), "todo-items", "1")
		require.True(t, errors.As(err, &rerr))
		assert.Equal(t, "/data/relationships/assignee", rerr.Pointer)
	}
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Title: "Resource id mismatch", Detail: "x", Pointer: "/data/id"}
	assert.Equal(t, "Resource id mismatch: x (/data/id)", err.Error())

	err = &Error{Title: "Invalid id", Detail: "y"}
	assert.Equal(t, "Invalid id: y", err.Error())
}
