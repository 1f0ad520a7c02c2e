package graph

import (
	"fmt"

	"go.uber.org/zap"

	rstrings "github.com/conduit-lang/resourcegraph/internal/util/strings"
)

// reserved member names of every JSON:API resource object
var reservedFields = map[string]bool{"id": true, "type": true}

// Naming derives public names from declared type and member names
type Naming struct {
	// Pluralize pluralizes derived resource names (TodoItem -> todo-items)
	Pluralize bool
}

// DefaultNaming returns the hyphenated, pluralized naming convention
func DefaultNaming() Naming {
	return Naming{Pluralize: true}
}

// ResourceName derives a resource's public name from a type or collection name
func (n Naming) ResourceName(name string) string {
	s := rstrings.ToKebabCase(name)
	if n.Pluralize {
		s = rstrings.Pluralize(s)
	}
	return s
}

// FieldName derives an attribute or relationship public name from a member name
func (n Naming) FieldName(member string) string {
	return rstrings.ToKebabCase(member)
}

// Source supplies candidate declarations to a Builder
type Source interface {
	Declarations() ([]ModelDeclaration, error)
}

// Option configures a Builder
type Option func(*Builder)

// WithLogger sets the builder's logger
func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithNaming sets the naming convention
func WithNaming(n Naming) Option {
	return func(b *Builder) {
		b.naming = n
	}
}

// Builder collects candidate declarations from any number of sources and
// builds the graph in one pass. A Builder is not safe for concurrent use.
type Builder struct {
	logger     *zap.Logger
	naming     Naming
	candidates []ModelDeclaration
	err        error
}

// NewBuilder creates a builder with the default naming convention
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		logger: zap.NewNop(),
		naming: DefaultNaming(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add registers declarations manually
func (b *Builder) Add(decls ...ModelDeclaration) *Builder {
	for _, d := range decls {
		if d.Source == "" {
			d.Source = "manual"
		}
		b.logger.Debug("registered candidate",
			zap.String("type", string(d.Type)),
			zap.String("source", d.Source))
		b.candidates = append(b.candidates, d)
	}
	return b
}

// AddSource registers every declaration the source yields. A source error is
// reported by Build.
func (b *Builder) AddSource(src Source) *Builder {
	if b.err != nil {
		return b
	}
	decls, err := src.Declarations()
	if err != nil {
		b.err = fmt.Errorf("failed to read declarations: %w", err)
		return b
	}
	return b.Add(decls...)
}

// Build is shorthand for NewBuilder().Add(decls...).Build()
func Build(decls ...ModelDeclaration) (*Graph, error) {
	return NewBuilder().Add(decls...).Build()
}

// Build validates every candidate and returns the frozen graph. It fails on
// the first problem and never returns a partial graph.
func (b *Builder) Build() (*Graph, error) {
	if b.err != nil {
		return nil, b.err
	}

	g := &Graph{
		resources: make([]*ResourceDescriptor, 0, len(b.candidates)),
		byName:    make(map[string]*ResourceDescriptor, len(b.candidates)),
		byType:    make(map[TypeID]*ResourceDescriptor, len(b.candidates)),
	}

	// Names and identities first so duplicates are reported before any
	// member-level problem.
	for _, d := range b.candidates {
		res, err := b.identify(d)
		if err != nil {
			return nil, err
		}
		if prev, exists := g.byType[res.typ]; exists {
			return nil, buildErr(ErrDuplicateResource, res.name, "",
				fmt.Sprintf("type %s is declared by both %s and %s", res.typ, prev.source, res.source))
		}
		if prev, exists := g.byName[res.name]; exists {
			return nil, buildErr(ErrDuplicateResource, res.name, "",
				fmt.Sprintf("public name is claimed by both %s and %s", prev.typ, res.typ))
		}
		g.byType[res.typ] = res
		g.byName[res.name] = res
		g.resources = append(g.resources, res)
	}

	for i, d := range b.candidates {
		res := g.resources[i]
		if err := b.attributes(res, d); err != nil {
			return nil, err
		}
		if err := b.relationships(res, d); err != nil {
			return nil, err
		}
	}

	// Targets resolve against the complete set, so cycles are fine.
	for _, res := range g.resources {
		for i := range res.relationships {
			if err := resolve(g, res, &res.relationships[i]); err != nil {
				return nil, err
			}
		}
	}

	b.logger.Info("resource graph built",
		zap.Int("resources", len(g.resources)),
		zap.Int("candidates", len(b.candidates)))

	return g, nil
}

func (b *Builder) identify(d ModelDeclaration) (*ResourceDescriptor, error) {
	if d.Type == "" {
		return nil, buildErr(ErrInvalidDeclaration, d.PublicName, "", "declaration has no type")
	}
	if d.IDType == IDUnknown {
		return nil, buildErr(ErrInvalidDeclaration, string(d.Type), "", "declaration has no id type")
	}

	name := d.PublicName
	switch {
	case name != "":
	case d.Collection != "":
		// Collection names are already plural.
		name = b.naming.FieldName(d.Collection)
	case d.Name != "":
		name = b.naming.ResourceName(d.Name)
	default:
		name = b.naming.ResourceName(d.Type.Name())
	}
	if name == "" {
		return nil, buildErr(ErrInvalidDeclaration, string(d.Type), "", "empty public name")
	}

	keys := make(map[string]IDType, len(d.Keys))
	for _, k := range d.Keys {
		keys[k.Name] = k.Type
	}

	return &ResourceDescriptor{
		name:      name,
		typ:       d.Type,
		idType:    d.IDType,
		source:    d.Source,
		attrIndex: make(map[string]int, len(d.Attributes)),
		relIndex:  make(map[string]int, len(d.Relationships)),
		keys:      keys,
	}, nil
}

func (b *Builder) attributes(res *ResourceDescriptor, d ModelDeclaration) error {
	for _, a := range d.Attributes {
		if a.Member == "" {
			return buildErr(ErrInvalidDeclaration, res.name, a.PublicName, "attribute has no backing member")
		}
		name := a.PublicName
		if name == "" {
			name = b.naming.FieldName(a.Member)
		}
		if reservedFields[name] {
			return buildErr(ErrInvalidDeclaration, res.name, name, "reserved field name")
		}
		if _, exists := res.attrIndex[name]; exists {
			return buildErr(ErrDuplicateAttributeName, res.name, name, "")
		}
		res.attrIndex[name] = len(res.attributes)
		res.attributes = append(res.attributes, AttributeDescriptor{
			PublicName: name,
			Member:     a.Member,
			Immutable:  a.Immutable,
			Filterable: !a.NoFilter,
			Sortable:   !a.NoSort,
		})
	}
	return nil
}

func (b *Builder) relationships(res *ResourceDescriptor, d ModelDeclaration) error {
	for _, r := range d.Relationships {
		if r.Member == "" {
			return buildErr(ErrInvalidDeclaration, res.name, r.PublicName, "relationship has no backing member")
		}
		name := r.PublicName
		if name == "" {
			name = b.naming.FieldName(r.Member)
		}
		if reservedFields[name] {
			return buildErr(ErrInvalidDeclaration, res.name, name, "reserved field name")
		}
		if _, exists := res.relIndex[name]; exists {
			return buildErr(ErrDuplicateRelationshipName, res.name, name, "")
		}
		if _, exists := res.attrIndex[name]; exists {
			return buildErr(ErrDuplicateRelationshipName, res.name, name, "name is already used by an attribute")
		}
		if r.Target == "" {
			return buildErr(ErrInvalidDeclaration, res.name, name, "relationship has no target type")
		}

		desc := RelationshipDescriptor{
			PublicName:  name,
			Member:      r.Member,
			Cardinality: r.Cardinality,
			TargetType:  r.Target,
			Dependent:   r.Dependent,
		}
		if r.Dependent {
			if r.Cardinality != ToOne {
				return buildErr(ErrInvalidDeclaration, res.name, name, "only to-one relationships can be dependent")
			}
			fk := r.ForeignKey
			if fk == "" {
				fk = r.Member + "Id"
			}
			if _, ok := res.keys[fk]; !ok {
				return buildErr(ErrMissingForeignKey, res.name, name,
					fmt.Sprintf("expected member %s", fk))
			}
			desc.ForeignKey = fk
		}

		res.relIndex[name] = len(res.relationships)
		res.relationships = append(res.relationships, desc)
	}
	return nil
}

func resolve(g *Graph, res *ResourceDescriptor, rel *RelationshipDescriptor) error {
	target, ok := g.byType[rel.TargetType]
	if !ok {
		return buildErr(ErrUnresolvedRelationshipTarget, res.name, rel.PublicName,
			fmt.Sprintf("no resource declared for type %s", rel.TargetType))
	}
	rel.Target = target.name

	if rel.Dependent {
		fkType := res.keys[rel.ForeignKey]
		if !fkType.Accepts(target.idType) {
			return buildErr(ErrForeignKeyType, res.name, rel.PublicName,
				fmt.Sprintf("member %s is %s but %s ids are %s", rel.ForeignKey, fkType, target.name, target.idType))
		}
	}
	return nil
}
