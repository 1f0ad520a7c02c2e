// Package manifest loads resource declarations from YAML files, the manual
// registration counterpart of an ORM schema scan.
//
//	resources:
//	  - type: todo.TodoItem
//	    id: int
//	    keys: {OwnerId: int}
//	    attributes:
//	      - member: Description
//	      - member: CreatedAt
//	        immutable: true
//	        filterable: false
//	    relationships:
//	      - member: Owner
//	        kind: to-one
//	        target: todo.Person
//	        dependent: true
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/resourcegraph/internal/graph"
	"github.com/conduit-lang/resourcegraph/internal/orm/schema"
)

// File is a parsed manifest
type File struct {
	Path      string     `yaml:"-"`
	Resources []Resource `yaml:"resources"`
}

// Resource declares one model
type Resource struct {
	Type          string            `yaml:"type"`
	Name          string            `yaml:"name"`
	PublicName    string            `yaml:"public_name"`
	Collection    string            `yaml:"collection"`
	ID            string            `yaml:"id"`
	Keys          map[string]string `yaml:"keys"`
	Attributes    []Attribute       `yaml:"attributes"`
	Relationships []Relationship    `yaml:"relationships"`
}

// Attribute declares one exposed field
type Attribute struct {
	Member     string `yaml:"member"`
	Name       string `yaml:"name"`
	Immutable  bool   `yaml:"immutable"`
	Filterable *bool  `yaml:"filterable"`
	Sortable   *bool  `yaml:"sortable"`
}

// Relationship declares one navigation member
type Relationship struct {
	Member     string `yaml:"member"`
	Name       string `yaml:"name"`
	Kind       string `yaml:"kind"`
	Target     string `yaml:"target"`
	Dependent  bool   `yaml:"dependent"`
	ForeignKey string `yaml:"foreign_key"`
}

// Load reads and parses a manifest file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

// Parse decodes a manifest. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &f, nil
}

// Declarations converts the manifest into resource declarations. File
// satisfies graph.Source.
func (f *File) Declarations() ([]graph.ModelDeclaration, error) {
	source := "manifest"
	if f.Path != "" {
		source = "manifest:" + f.Path
	}

	decls := make([]graph.ModelDeclaration, 0, len(f.Resources))
	for i, r := range f.Resources {
		d, err := r.declaration(source)
		if err != nil {
			return nil, fmt.Errorf("resources[%d] (%s): %w", i, r.Type, err)
		}
		decls = append(decls, d)
	}
	return decls, nil
}

func (r Resource) declaration(source string) (graph.ModelDeclaration, error) {
	idType, err := memberType(r.ID)
	if err != nil {
		return graph.ModelDeclaration{}, err
	}

	d := graph.ModelDeclaration{
		Type:       graph.TypeID(r.Type),
		Name:       r.Name,
		PublicName: r.PublicName,
		Collection: r.Collection,
		IDType:     idType,
		Source:     source,
	}

	// Map iteration order is random; keep declarations deterministic.
	keyNames := make([]string, 0, len(r.Keys))
	for name := range r.Keys {
		keyNames = append(keyNames, name)
	}
	sort.Strings(keyNames)
	for _, name := range keyNames {
		kt, err := memberType(r.Keys[name])
		if err != nil {
			return graph.ModelDeclaration{}, fmt.Errorf("key %s: %w", name, err)
		}
		d.Keys = append(d.Keys, graph.Member{Name: name, Type: kt})
	}

	for _, a := range r.Attributes {
		d.Attributes = append(d.Attributes, graph.AttributeDecl{
			Member:     a.Member,
			PublicName: a.Name,
			Immutable:  a.Immutable,
			NoFilter:   a.Filterable != nil && !*a.Filterable,
			NoSort:     a.Sortable != nil && !*a.Sortable,
		})
	}

	for _, rel := range r.Relationships {
		card, err := graph.ParseCardinality(rel.Kind)
		if err != nil {
			return graph.ModelDeclaration{}, fmt.Errorf("relationship %s: %w", rel.Member, err)
		}
		d.Relationships = append(d.Relationships, graph.RelationshipDecl{
			Member:      rel.Member,
			PublicName:  rel.Name,
			Cardinality: card,
			Target:      graph.TypeID(rel.Target),
			Dependent:   rel.Dependent,
			ForeignKey:  rel.ForeignKey,
		})
	}

	return d, nil
}

// memberType resolves an id or key type. Column type names are accepted when
// the column could hold an id; graph id type aliases such as "integer" are
// accepted as well.
func memberType(s string) (graph.IDType, error) {
	p, err := schema.ParsePrimitiveType(strings.ToLower(s))
	if err != nil {
		return graph.ParseIDType(s)
	}
	t, ok := schema.KeyType(p)
	if !ok {
		return graph.IDUnknown, fmt.Errorf("%s columns cannot hold ids", s)
	}
	return t, nil
}
