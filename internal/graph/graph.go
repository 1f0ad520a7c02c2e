package graph

import "sync/atomic"

// Graph is the frozen resource graph. All methods are read-only, so a Graph
// can be shared by any number of goroutines without locking.
type Graph struct {
	resources []*ResourceDescriptor
	byName    map[string]*ResourceDescriptor
	byType    map[TypeID]*ResourceDescriptor
}

// ResourceByName resolves a resource by its public name
func (g *Graph) ResourceByName(name string) (*ResourceDescriptor, error) {
	res, ok := g.byName[name]
	if !ok {
		return nil, &LookupError{Kind: "resource", Name: name}
	}
	return res, nil
}

// ResourceByType resolves a resource by its internal type identity
func (g *Graph) ResourceByType(id TypeID) (*ResourceDescriptor, error) {
	res, ok := g.byType[id]
	if !ok {
		return nil, &LookupError{Kind: "resource", Name: string(id)}
	}
	return res, nil
}

// Attribute looks up an attribute of the named resource
func (g *Graph) Attribute(resource, name string) (AttributeDescriptor, error) {
	res, err := g.ResourceByName(resource)
	if err != nil {
		return AttributeDescriptor{}, err
	}
	return res.Attribute(name)
}

// Relationship looks up a relationship of the named resource
func (g *Graph) Relationship(resource, name string) (RelationshipDescriptor, error) {
	res, err := g.ResourceByName(resource)
	if err != nil {
		return RelationshipDescriptor{}, err
	}
	return res.Relationship(name)
}

// Resources returns all resources in declaration order
func (g *Graph) Resources() []*ResourceDescriptor {
	out := make([]*ResourceDescriptor, len(g.resources))
	copy(out, g.resources)
	return out
}

// Len returns the number of resources
func (g *Graph) Len() int {
	return len(g.resources)
}

// Inverse finds the relationship on the target resource that navigates back
// to the given one (Person.todo-items <-> TodoItem.owner). When the target has
// several candidates pointing back the first declared one wins.
func (g *Graph) Inverse(resource, name string) (RelationshipDescriptor, bool) {
	rel, err := g.Relationship(resource, name)
	if err != nil {
		return RelationshipDescriptor{}, false
	}
	src := g.byName[resource]
	target := g.byName[rel.Target]
	for _, candidate := range target.relationships {
		if candidate.TargetType != src.typ {
			continue
		}
		// A self-referencing relationship is not its own inverse.
		if target == src && candidate.PublicName == rel.PublicName {
			continue
		}
		return candidate, true
	}
	return RelationshipDescriptor{}, false
}

var defaultGraph atomic.Pointer[Graph]

// SetDefault installs g as the process-wide graph. Only the first call
// succeeds; the graph is never replaced afterwards.
func SetDefault(g *Graph) error {
	if g == nil {
		return &BuildError{Message: "cannot install a nil graph", Err: ErrInvalidDeclaration}
	}
	if !defaultGraph.CompareAndSwap(nil, g) {
		return ErrAlreadyInstalled
	}
	return nil
}

// Default returns the process-wide graph, or nil before startup installs one
func Default() *Graph {
	return defaultGraph.Load()
}
