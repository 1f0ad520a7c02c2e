package ui

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/resourcegraph/internal/graph"
)

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		s1, s2   string
		expected int
	}{
		{"", "", 0},
		{"people", "", 6},
		{"kitten", "sitting", 3},
		{"todo-items", "todo-itmes", 2},
		{"people", "people", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, levenshteinDistance(tt.s1, tt.s2), "%s -> %s", tt.s1, tt.s2)
	}
}

func TestFindSimilar(t *testing.T) {
	candidates := []string{"people", "todo-items", "tags", "tag-sets"}

	assert.Equal(t, []string{"todo-items"}, FindSimilar("todo-itmes", candidates))
	assert.Equal(t, []string{"tags"}, FindSimilar("TAG", candidates))
	assert.Empty(t, FindSimilar("invoices", candidates))
}

func TestFormatError(t *testing.T) {
	out := formatError(errorOptions{
		Level:        levelError,
		Context:      "resource not found",
		Problem:      "Cannot find resource 'x'.",
		Consequence:  "Nothing was served.",
		Suggestions:  []string{"a", "b"},
		HelpCommands: []string{"Run: resourcegraph inspect"},
		NoColor:      true,
	})

	assert.Contains(t, out, "❌ RESOURCE NOT FOUND: Cannot find resource 'x'.")
	assert.Contains(t, out, "   Nothing was served.")
	assert.Contains(t, out, "Did you mean: a, b?")
	assert.Contains(t, out, "→ Run: resourcegraph inspect")
}

func TestGraphBuildError(t *testing.T) {
	_, err := graph.Build(graph.ModelDeclaration{
		Type:          "todo.TodoItem",
		IDType:        graph.IDInt,
		Relationships: []graph.RelationshipDecl{{Member: "Owner", Cardinality: graph.ToOne, Target: "todo.Person", Dependent: true}},
	})
	require.Error(t, err)

	out := GraphBuildError(err, true)
	assert.Contains(t, out, "GRAPH BUILD FAILED")
	assert.Contains(t, out, "Declared at: todo-items.owner")
	assert.Contains(t, out, "resourcegraph validate")

	plain := GraphBuildError(fmt.Errorf("read manifest: %w", errors.New("boom")), true)
	assert.Contains(t, plain, "read manifest: boom")
	assert.NotContains(t, plain, "Declared at")
}

func TestMessages(t *testing.T) {
	assert.Contains(t, ResourceNotFoundError("tgas", []string{"tags"}, true), "Did you mean: tags?")
	assert.Contains(t, ConfigError("bad port", true), "CONFIGURATION ERROR: bad port")
	assert.Contains(t, Warning("table skipped", true), "⚠️ table skipped")
	assert.Equal(t, "✓ done", formatSuccess("done", true))

	var buf bytes.Buffer
	WriteSuccess(&buf, "ok", true)
	assert.Equal(t, "✓ ok\n", buf.String())
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, []string{"NAME", "ID"}, true)
	table.AddRow("people", "int")
	table.AddRow("todo-items", "uuid")
	table.Render()

	assert.Equal(t,
		"NAME        ID  \n"+
			"──────────  ────\n"+
			"people      int \n"+
			"todo-items  uuid\n",
		buf.String())
}

func TestKeyValueTableAndHeader(t *testing.T) {
	var buf bytes.Buffer
	Header(&buf, "people", true)
	kv := NewKeyValueTable(&buf, true)
	kv.AddRow("type", "todo.Person")
	kv.AddRow("id", "int")
	kv.Render()

	assert.Equal(t, "people\n──────\ntype: todo.Person\nid:   int\n", buf.String())
}

func TestWithSpinner(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WithSpinner(&buf, "Loading", true, func() error { return nil }))
	assert.Contains(t, buf.String(), "✓ Loading")

	buf.Reset()
	err := WithSpinner(&buf, "Loading", true, func() error { return errors.New("boom") })
	assert.EqualError(t, err, "boom")
	assert.Contains(t, buf.String(), "❌ Loading failed")
}
