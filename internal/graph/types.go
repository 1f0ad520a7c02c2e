// Package graph builds the resource graph: the frozen mapping between public
// JSON:API resource, attribute and relationship names and the internal model
// members that back them.
//
// A graph is assembled once at startup from ModelDeclaration values, which
// may come from an ORM schema scan, a manifest file or explicit Declare calls.
// After Build returns, the graph is immutable and safe for concurrent reads.
package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// TypeID identifies a model's implementation type. Declare derives it from
// the Go type ("todo.TodoItem"); ORM-sourced declarations use the schema's
// model type name.
type TypeID string

// Name returns the unqualified type name ("todo.TodoItem" -> "TodoItem")
func (t TypeID) Name() string {
	s := string(t)
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// IDType is the semantic type of a resource's primary key
type IDType int

const (
	IDUnknown IDType = iota
	IDInt
	IDString
	IDUUID
)

// String returns the string representation of the id type
func (t IDType) String() string {
	switch t {
	case IDInt:
		return "int"
	case IDString:
		return "string"
	case IDUUID:
		return "uuid"
	default:
		return "unknown"
	}
}

// ParseIDType converts a string to an IDType
func ParseIDType(s string) (IDType, error) {
	switch strings.ToLower(s) {
	case "int", "integer", "bigint":
		return IDInt, nil
	case "string", "text":
		return IDString, nil
	case "uuid":
		return IDUUID, nil
	default:
		return IDUnknown, fmt.Errorf("unknown id type: %s", s)
	}
}

// Parse validates a wire-level identifier against the id type and returns
// its typed value (int64, string or uuid.UUID).
func (t IDType) Parse(raw string) (any, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty %s id", t)
	}
	switch t {
	case IDInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid int id %q", raw)
		}
		return n, nil
	case IDString:
		return raw, nil
	case IDUUID:
		u, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid uuid id %q: %w", raw, err)
		}
		return u, nil
	default:
		return nil, fmt.Errorf("cannot parse id of unknown type")
	}
}

// Accepts reports whether a foreign key of type t can hold a primary key of
// type target.
func (t IDType) Accepts(target IDType) bool {
	switch t {
	case IDInt:
		return target == IDInt
	case IDString:
		return target != IDUnknown
	case IDUUID:
		return target == IDUUID || target == IDString
	default:
		return false
	}
}

// Cardinality is the number of resources on the far side of a relationship
type Cardinality int

const (
	ToOne Cardinality = iota
	ToMany
)

// String returns the string representation of the cardinality
func (c Cardinality) String() string {
	switch c {
	case ToOne:
		return "to-one"
	case ToMany:
		return "to-many"
	default:
		return "unknown"
	}
}

// ParseCardinality converts a string to a Cardinality
func ParseCardinality(s string) (Cardinality, error) {
	switch strings.ToLower(s) {
	case "to-one", "to_one", "one", "has_one", "belongs_to":
		return ToOne, nil
	case "to-many", "to_many", "many", "has_many":
		return ToMany, nil
	default:
		return 0, fmt.Errorf("unknown cardinality: %s", s)
	}
}

// Member is a key-typed member of a model that can serve as a foreign key
type Member struct {
	Name string
	Type IDType
}

// AttributeDecl declares one exposed field of a model
type AttributeDecl struct {
	Member     string // backing member, e.g. "FirstName"
	PublicName string // optional override, defaults to kebab-case(Member)
	Immutable  bool
	NoFilter   bool
	NoSort     bool
}

// RelationshipDecl declares one navigation member of a model
type RelationshipDecl struct {
	Member      string // backing member, e.g. "Owner"
	PublicName  string // optional override, defaults to kebab-case(Member)
	Cardinality Cardinality
	Target      TypeID

	// Dependent marks a to-one side that owns the foreign key. ForeignKey
	// overrides the conventional "{Member}Id" member name.
	Dependent  bool
	ForeignKey string
}

// ModelDeclaration is one entry of the static declaration table fed to the
// builder.
type ModelDeclaration struct {
	Type TypeID

	// Name is the declared type name used for naming; defaults to Type.Name().
	Name string

	// PublicName overrides the derived resource name.
	PublicName string

	// Collection is the ORM collection or table name. When set it is
	// hyphenated and used as-is instead of pluralizing Name.
	Collection string

	IDType IDType

	// Keys lists the members that may back a dependent relationship.
	Keys []Member

	Attributes    []AttributeDecl
	Relationships []RelationshipDecl

	// Source names where the declaration came from ("orm", "manifest", ...)
	Source string
}

// AttributeDescriptor describes one exposed field of a resource
type AttributeDescriptor struct {
	PublicName string
	Member     string
	Immutable  bool
	Filterable bool
	Sortable   bool
}

// RelationshipDescriptor describes one navigation link between resources
type RelationshipDescriptor struct {
	PublicName  string
	Member      string
	Cardinality Cardinality
	TargetType  TypeID

	// Target is the public name of the target resource, resolved at build time.
	Target string

	Dependent  bool
	ForeignKey string
}

// ResourceDescriptor aggregates one model's identity with its attributes and
// relationships. It is read-only once the graph is built.
type ResourceDescriptor struct {
	name   string
	typ    TypeID
	idType IDType
	source string

	attributes    []AttributeDescriptor
	relationships []RelationshipDescriptor
	attrIndex     map[string]int
	relIndex      map[string]int

	keys map[string]IDType
}

// PublicName returns the resource's public JSON:API type name
func (r *ResourceDescriptor) PublicName() string { return r.name }

// Type returns the internal type identity
func (r *ResourceDescriptor) Type() TypeID { return r.typ }

// IDType returns the primary key type
func (r *ResourceDescriptor) IDType() IDType { return r.idType }

// Source returns where the resource was declared
func (r *ResourceDescriptor) Source() string { return r.source }

// Attributes returns the attributes in declaration order
func (r *ResourceDescriptor) Attributes() []AttributeDescriptor {
	out := make([]AttributeDescriptor, len(r.attributes))
	copy(out, r.attributes)
	return out
}

// Relationships returns the relationships in declaration order
func (r *ResourceDescriptor) Relationships() []RelationshipDescriptor {
	out := make([]RelationshipDescriptor, len(r.relationships))
	copy(out, r.relationships)
	return out
}

// Attribute looks up an attribute by public name
func (r *ResourceDescriptor) Attribute(name string) (AttributeDescriptor, error) {
	i, ok := r.attrIndex[name]
	if !ok {
		return AttributeDescriptor{}, &LookupError{Kind: "attribute", Resource: r.name, Name: name}
	}
	return r.attributes[i], nil
}

// Relationship looks up a relationship by public name
func (r *ResourceDescriptor) Relationship(name string) (RelationshipDescriptor, error) {
	i, ok := r.relIndex[name]
	if !ok {
		return RelationshipDescriptor{}, &LookupError{Kind: "relationship", Resource: r.name, Name: name}
	}
	return r.relationships[i], nil
}

// HasField reports whether name is an attribute or relationship of the resource
func (r *ResourceDescriptor) HasField(name string) bool {
	_, isAttr := r.attrIndex[name]
	_, isRel := r.relIndex[name]
	return isAttr || isRel
}
