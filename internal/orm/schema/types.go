// Package schema provides the ORM's view of mapped entities: resources with
// typed fields, annotations and relationships. A Registry of schemas is one of
// the candidate sources of the resource graph.
package schema

import (
	"fmt"

	rstrings "github.com/conduit-lang/resourcegraph/internal/util/strings"
)

// PrimitiveType represents the column types the ORM maps
type PrimitiveType int

const (
	// Text types
	TypeString PrimitiveType = iota
	TypeText

	// Numeric types
	TypeInt
	TypeBigInt
	TypeFloat
	TypeDecimal

	// Boolean
	TypeBool

	// Time types
	TypeTimestamp
	TypeDate

	// Unique identifiers
	TypeUUID

	// JSON types
	TypeJSON
	TypeJSONB
)

// String returns the string representation of the primitive type
func (p PrimitiveType) String() string {
	switch p {
	case TypeString:
		return "string"
	case TypeText:
		return "text"
	case TypeInt:
		return "int"
	case TypeBigInt:
		return "bigint"
	case TypeFloat:
		return "float"
	case TypeDecimal:
		return "decimal"
	case TypeBool:
		return "bool"
	case TypeTimestamp:
		return "timestamp"
	case TypeDate:
		return "date"
	case TypeUUID:
		return "uuid"
	case TypeJSON:
		return "json"
	case TypeJSONB:
		return "jsonb"
	default:
		return "unknown"
	}
}

// ParsePrimitiveType converts a string to a PrimitiveType
func ParsePrimitiveType(s string) (PrimitiveType, error) {
	switch s {
	case "string":
		return TypeString, nil
	case "text":
		return TypeText, nil
	case "int":
		return TypeInt, nil
	case "bigint":
		return TypeBigInt, nil
	case "float":
		return TypeFloat, nil
	case "decimal":
		return TypeDecimal, nil
	case "bool":
		return TypeBool, nil
	case "timestamp":
		return TypeTimestamp, nil
	case "date":
		return TypeDate, nil
	case "uuid":
		return TypeUUID, nil
	case "json":
		return TypeJSON, nil
	case "jsonb":
		return TypeJSONB, nil
	default:
		return 0, fmt.Errorf("unknown primitive type: %s", s)
	}
}

// TypeSpec is a field's column type with nullability
type TypeSpec struct {
	BaseType PrimitiveType
	Nullable bool
}

// String returns a string representation of the TypeSpec
func (t *TypeSpec) String() string {
	if t.Nullable {
		return t.BaseType.String() + "?"
	}
	return t.BaseType.String() + "!"
}

// Annotation names understood when mapping a schema to resource declarations
const (
	AnnotationPrimary   = "primary"
	AnnotationImmutable = "immutable"
	AnnotationHidden    = "hidden"
	AnnotationNoFilter  = "nofilter"
	AnnotationNoSort    = "nosort"
	AnnotationAttr      = "attr" // @attr("public-name")
)

// Annotation represents field annotations like @primary, @immutable
type Annotation struct {
	Name string
	Args []interface{}
}

// Field represents a field in a resource schema
type Field struct {
	Name        string
	Type        *TypeSpec
	Annotations []Annotation
}

// HasAnnotation returns true if the field carries the named annotation
func (f *Field) HasAnnotation(name string) bool {
	_, ok := f.Annotation(name)
	return ok
}

// Annotation returns the named annotation
func (f *Field) Annotation(name string) (Annotation, bool) {
	for _, a := range f.Annotations {
		if a.Name == name {
			return a, true
		}
	}
	return Annotation{}, false
}

// RelationType represents the type of relationship
type RelationType int

const (
	RelationshipBelongsTo RelationType = iota
	RelationshipHasMany
	RelationshipHasManyThrough
	RelationshipHasOne
)

// String returns the string representation of the relationship type
func (r RelationType) String() string {
	switch r {
	case RelationshipBelongsTo:
		return "belongs_to"
	case RelationshipHasMany:
		return "has_many"
	case RelationshipHasManyThrough:
		return "has_many_through"
	case RelationshipHasOne:
		return "has_one"
	default:
		return "unknown"
	}
}

// Relationship represents a relationship between resources
type Relationship struct {
	Type           RelationType
	TargetResource string
	FieldName      string
	Nullable       bool

	// ForeignKey is the owning column for belongs_to, default "{field}_id"
	ForeignKey string

	// For has_many_through
	ThroughResource string
}

// ResourceSchema represents the schema of one mapped entity
type ResourceSchema struct {
	Name string

	// ModelType is the implementation type the entity maps to; defaults to Name
	ModelType string

	// PublicName overrides the API resource name
	PublicName string

	TableName string

	Fields        []*Field
	Relationships []*Relationship
}

// NewResourceSchema creates a new ResourceSchema with a pluralized table name
func NewResourceSchema(name string) *ResourceSchema {
	return &ResourceSchema{
		Name:      name,
		TableName: rstrings.Pluralize(rstrings.ToSnakeCase(name)),
	}
}

// AddField appends a field
func (r *ResourceSchema) AddField(name string, typ PrimitiveType, nullable bool, annotations ...string) *Field {
	f := &Field{Name: name, Type: &TypeSpec{BaseType: typ, Nullable: nullable}}
	for _, a := range annotations {
		f.Annotations = append(f.Annotations, Annotation{Name: a})
	}
	r.Fields = append(r.Fields, f)
	return f
}

// AddRelationship appends a relationship
func (r *ResourceSchema) AddRelationship(rel *Relationship) {
	r.Relationships = append(r.Relationships, rel)
}

// Model returns the implementation type name
func (r *ResourceSchema) Model() string {
	if r.ModelType != "" {
		return r.ModelType
	}
	return r.Name
}

// GetPrimaryKey returns the primary key field
func (r *ResourceSchema) GetPrimaryKey() (*Field, error) {
	for _, field := range r.Fields {
		if field.HasAnnotation(AnnotationPrimary) {
			return field, nil
		}
	}
	return nil, fmt.Errorf("resource %s has no primary key", r.Name)
}

// GetField returns the field with the given name
func (r *ResourceSchema) GetField(name string) (*Field, bool) {
	for _, field := range r.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return nil, false
}

// HasField returns true if the resource has a field with the given name
func (r *ResourceSchema) HasField(name string) bool {
	_, exists := r.GetField(name)
	return exists
}

// HasRelationship returns true if the resource has a relationship with the given name
func (r *ResourceSchema) HasRelationship(name string) bool {
	for _, rel := range r.Relationships {
		if rel.FieldName == name {
			return true
		}
	}
	return false
}

// foreignKey returns the owning column of a belongs_to relationship
func (rel *Relationship) foreignKey() string {
	if rel.ForeignKey != "" {
		return rel.ForeignKey
	}
	return rel.FieldName + "_id"
}
