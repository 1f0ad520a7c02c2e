package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/conduit-lang/resourcegraph/internal/graph"
)

// Violation is one rejected query parameter
type Violation struct {
	Parameter string // e.g. "filter[owner.age]" or "sort"
	Detail    string
}

// Error lists every query parameter that the resource graph rejected
type Error struct {
	Violations []Violation
}

// Error implements the error interface
func (e *Error) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Parameter + ": " + v.Detail
	}
	return "invalid query parameters: " + strings.Join(parts, "; ")
}

// Validate checks the parameters of a request against a resource of the
// graph. Filter and sort paths may navigate to-one relationships
// ("owner.first-name"); the final segment must be a filterable or sortable
// attribute. It returns nil or an *Error listing every violation.
func Validate(g *graph.Graph, resource string, p Params) error {
	res, err := g.ResourceByName(resource)
	if err != nil {
		return err
	}

	var violations []Violation

	keys := make([]string, 0, len(p.Filter))
	for key := range p.Filter {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if detail := checkAttributePath(g, res, key, true, func(a graph.AttributeDescriptor) bool { return a.Filterable }, "filterable"); detail != "" {
			violations = append(violations, Violation{Parameter: "filter[" + key + "]", Detail: detail})
		}
	}

	for _, field := range p.Sort {
		path := strings.TrimPrefix(field, "-")
		if detail := checkAttributePath(g, res, path, false, func(a graph.AttributeDescriptor) bool { return a.Sortable }, "sortable"); detail != "" {
			violations = append(violations, Violation{Parameter: "sort", Detail: detail})
		}
	}

	for _, path := range p.Include {
		if detail := checkIncludePath(g, res, path); detail != "" {
			violations = append(violations, Violation{Parameter: "include", Detail: detail})
		}
	}

	types := make([]string, 0, len(p.Fields))
	for typ := range p.Fields {
		types = append(types, typ)
	}
	sort.Strings(types)
	for _, typ := range types {
		target, err := g.ResourceByName(typ)
		if err != nil {
			violations = append(violations, Violation{Parameter: "fields[" + typ + "]", Detail: fmt.Sprintf("unknown resource type %q", typ)})
			continue
		}
		for _, field := range p.Fields[typ] {
			if !target.HasField(field) {
				violations = append(violations, Violation{
					Parameter: "fields[" + typ + "]",
					Detail:    fmt.Sprintf("unknown field %q on %s", field, typ),
				})
			}
		}
	}

	if len(violations) > 0 {
		return &Error{Violations: violations}
	}
	return nil
}

// checkAttributePath walks relationship segments and checks the final
// attribute. An empty result means the path is allowed.
func checkAttributePath(g *graph.Graph, res *graph.ResourceDescriptor, path string, allowToMany bool, allowed func(graph.AttributeDescriptor) bool, capability string) string {
	segments := strings.Split(path, ".")
	current := res
	for _, seg := range segments[:len(segments)-1] {
		rel, err := current.Relationship(seg)
		if err != nil {
			return fmt.Sprintf("unknown relationship %q on %s", seg, current.PublicName())
		}
		if rel.Cardinality == graph.ToMany && !allowToMany {
			return fmt.Sprintf("cannot sort across to-many relationship %q", seg)
		}
		if current, err = g.ResourceByName(rel.Target); err != nil {
			return err.Error()
		}
	}

	last := segments[len(segments)-1]
	if last == "id" {
		return ""
	}
	attr, err := current.Attribute(last)
	if err != nil {
		return fmt.Sprintf("unknown attribute %q on %s", last, current.PublicName())
	}
	if !allowed(attr) {
		return fmt.Sprintf("attribute %q on %s is not %s", last, current.PublicName(), capability)
	}
	return ""
}

func checkIncludePath(g *graph.Graph, res *graph.ResourceDescriptor, path string) string {
	current := res
	for _, seg := range strings.Split(path, ".") {
		rel, err := current.Relationship(seg)
		if err != nil {
			return fmt.Sprintf("unknown relationship %q on %s", seg, current.PublicName())
		}
		if current, err = g.ResourceByName(rel.Target); err != nil {
			return err.Error()
		}
	}
	return ""
}
