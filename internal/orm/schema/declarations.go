package schema

import (
	"fmt"

	"github.com/conduit-lang/resourcegraph/internal/graph"
)

// Declarations maps every registered schema to a resource declaration, in
// registration order. Registry satisfies graph.Source.
//
// Every field except the primary key, belongs_to foreign keys and @hidden
// fields becomes an attribute. belongs_to relationships are dependent to-one
// relationships owning their foreign key column.
func (r *Registry) Declarations() ([]graph.ModelDeclaration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	decls := make([]graph.ModelDeclaration, 0, len(r.order))
	for _, name := range r.order {
		d, err := r.declaration(r.schemas[name])
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	return decls, nil
}

func (r *Registry) declaration(s *ResourceSchema) (graph.ModelDeclaration, error) {
	pk, err := s.GetPrimaryKey()
	if err != nil {
		return graph.ModelDeclaration{}, err
	}
	idType, ok := KeyType(pk.Type.BaseType)
	if !ok {
		return graph.ModelDeclaration{}, fmt.Errorf("resource %s: %s primary key is not a key type", s.Name, pk.Type.BaseType)
	}

	d := graph.ModelDeclaration{
		Type:       graph.TypeID(s.Model()),
		Name:       s.Name,
		PublicName: s.PublicName,
		Collection: s.TableName,
		IDType:     idType,
		Source:     "orm",
	}

	foreignKeys := make(map[string]bool)
	for _, rel := range s.Relationships {
		d.Relationships = append(d.Relationships, r.relationship(rel))
		if rel.Type == RelationshipBelongsTo {
			foreignKeys[rel.foreignKey()] = true
		}
	}

	for _, field := range s.Fields {
		if kt, ok := KeyType(field.Type.BaseType); ok {
			d.Keys = append(d.Keys, graph.Member{Name: field.Name, Type: kt})
		}
		if field == pk || foreignKeys[field.Name] || field.HasAnnotation(AnnotationHidden) {
			continue
		}
		d.Attributes = append(d.Attributes, attribute(field))
	}

	return d, nil
}

func (r *Registry) relationship(rel *Relationship) graph.RelationshipDecl {
	// Unknown targets keep their declared name and fail to resolve at build.
	target := graph.TypeID(rel.TargetResource)
	if ts, ok := r.schemas[rel.TargetResource]; ok {
		target = graph.TypeID(ts.Model())
	}

	decl := graph.RelationshipDecl{
		Member: rel.FieldName,
		Target: target,
	}
	switch rel.Type {
	case RelationshipBelongsTo:
		decl.Cardinality = graph.ToOne
		decl.Dependent = true
		decl.ForeignKey = rel.foreignKey()
	case RelationshipHasOne:
		decl.Cardinality = graph.ToOne
	default:
		decl.Cardinality = graph.ToMany
	}
	return decl
}

func attribute(field *Field) graph.AttributeDecl {
	decl := graph.AttributeDecl{
		Member:    field.Name,
		Immutable: field.HasAnnotation(AnnotationImmutable),
		NoFilter:  field.HasAnnotation(AnnotationNoFilter),
		NoSort:    field.HasAnnotation(AnnotationNoSort),
	}
	if a, ok := field.Annotation(AnnotationAttr); ok && len(a.Args) > 0 {
		if name, ok := a.Args[0].(string); ok {
			decl.PublicName = name
		}
	}
	// Unordered JSON columns cannot back a sort.
	if field.Type.BaseType == TypeJSON || field.Type.BaseType == TypeJSONB {
		decl.NoSort = true
	}
	return decl
}

// KeyType maps a column type to the id type it can hold
func KeyType(p PrimitiveType) (graph.IDType, bool) {
	switch p {
	case TypeInt, TypeBigInt:
		return graph.IDInt, true
	case TypeUUID:
		return graph.IDUUID, true
	case TypeString, TypeText:
		return graph.IDString, true
	default:
		return graph.IDUnknown, false
	}
}
