package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/conduit-lang/resourcegraph/internal/graph"
	"github.com/conduit-lang/resourcegraph/internal/web/response"
)

const descriptorType = "resource-descriptors"

type resourceObject struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	Attributes any    `json:"attributes"`
}

type resourceSummary struct {
	Type          string `json:"model-type"`
	IDType        string `json:"id-type"`
	Source        string `json:"source"`
	Attributes    int    `json:"attribute-count"`
	Relationships int    `json:"relationship-count"`
}

type resourceView struct {
	Type          string             `json:"model-type"`
	IDType        string             `json:"id-type"`
	Source        string             `json:"source"`
	Attributes    []attributeView    `json:"attributes"`
	Relationships []relationshipView `json:"relationships"`
}

type attributeView struct {
	Name       string `json:"name"`
	Member     string `json:"member"`
	Immutable  bool   `json:"immutable"`
	Filterable bool   `json:"filterable"`
	Sortable   bool   `json:"sortable"`
}

type relationshipView struct {
	Name        string `json:"name"`
	Member      string `json:"member"`
	Cardinality string `json:"cardinality"`
	Target      string `json:"target"`
	Dependent   bool   `json:"dependent,omitempty"`
	ForeignKey  string `json:"foreign-key,omitempty"`
	Inverse     string `json:"inverse,omitempty"`
}

func (r *Router) graphIndex(w http.ResponseWriter, req *http.Request) {
	resources := r.graph.Resources()
	data := make([]resourceObject, len(resources))
	for i, res := range resources {
		data[i] = resourceObject{
			Type: descriptorType,
			ID:   res.PublicName(),
			Attributes: resourceSummary{
				Type:          string(res.Type()),
				IDType:        res.IDType().String(),
				Source:        res.Source(),
				Attributes:    len(res.Attributes()),
				Relationships: len(res.Relationships()),
			},
		}
	}

	doc := &response.Document{Data: data, Meta: map[string]any{"total": len(data)}}
	if err := response.Render(w, http.StatusOK, doc, nil); err != nil {
		r.fail(w, req, err)
	}
}

func (r *Router) graphResource(w http.ResponseWriter, req *http.Request) {
	res, err := r.graph.ResourceByName(chi.URLParam(req, "resource"))
	if err != nil {
		r.fail(w, req, err)
		return
	}

	doc := &response.Document{Data: resourceObject{
		Type:       descriptorType,
		ID:         res.PublicName(),
		Attributes: r.describe(res),
	}}
	if err := response.Render(w, http.StatusOK, doc, nil); err != nil {
		r.fail(w, req, err)
	}
}

func (r *Router) describe(res *graph.ResourceDescriptor) resourceView {
	view := resourceView{
		Type:          string(res.Type()),
		IDType:        res.IDType().String(),
		Source:        res.Source(),
		Attributes:    []attributeView{},
		Relationships: []relationshipView{},
	}
	for _, a := range res.Attributes() {
		view.Attributes = append(view.Attributes, attributeView{
			Name:       a.PublicName,
			Member:     a.Member,
			Immutable:  a.Immutable,
			Filterable: a.Filterable,
			Sortable:   a.Sortable,
		})
	}
	for _, rel := range res.Relationships() {
		rv := relationshipView{
			Name:        rel.PublicName,
			Member:      rel.Member,
			Cardinality: rel.Cardinality.String(),
			Target:      rel.Target,
			Dependent:   rel.Dependent,
			ForeignKey:  rel.ForeignKey,
		}
		if inv, ok := r.graph.Inverse(res.PublicName(), rel.PublicName); ok {
			rv.Inverse = inv.PublicName
		}
		view.Relationships = append(view.Relationships, rv)
	}
	return view
}
