package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/conduit-lang/resourcegraph/internal/graph"
	"github.com/conduit-lang/resourcegraph/internal/web/query"
	"github.com/conduit-lang/resourcegraph/internal/web/request"
	"github.com/conduit-lang/resourcegraph/internal/web/response"
)

// resolve looks up the {resource} segment and validates the query against it
func (r *Router) resolve(req *http.Request) (*graph.ResourceDescriptor, query.Params, error) {
	res, err := r.graph.ResourceByName(chi.URLParam(req, "resource"))
	if err != nil {
		return nil, query.Params{}, err
	}
	p := query.Parse(req)
	if err := query.Validate(r.graph, res.PublicName(), p); err != nil {
		return nil, query.Params{}, err
	}
	return res, p, nil
}

func (r *Router) list(w http.ResponseWriter, req *http.Request) {
	res, p, err := r.resolve(req)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	page, err := query.ParsePage(req)
	if err != nil {
		r.fail(w, req, err)
		return
	}

	doc, total, err := r.handler.List(req.Context(), res, p, page)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	if doc != nil && doc.Links == nil {
		doc.Links = response.BuildPaginationLinks(req.URL.String(), page, total)
	}
	r.render(w, req, http.StatusOK, doc, p)
}

func (r *Router) show(w http.ResponseWriter, req *http.Request) {
	res, p, err := r.resolve(req)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	id, err := res.IDType().Parse(chi.URLParam(req, "id"))
	if err != nil {
		r.fail(w, req, &request.Error{Status: http.StatusBadRequest, Title: "Invalid id", Detail: err.Error()})
		return
	}

	doc, err := r.handler.Show(req.Context(), res, id, p)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	r.render(w, req, http.StatusOK, doc, p)
}

func (r *Router) create(w http.ResponseWriter, req *http.Request) {
	res, p, err := r.resolve(req)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	change, err := r.parser.ParseCreate(w, req, res.PublicName())
	if err != nil {
		r.fail(w, req, err)
		return
	}

	doc, err := r.handler.Create(req.Context(), change, p)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	r.render(w, req, http.StatusCreated, doc, p)
}

func (r *Router) update(w http.ResponseWriter, req *http.Request) {
	res, p, err := r.resolve(req)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	change, err := r.parser.ParsePatch(w, req, res.PublicName(), chi.URLParam(req, "id"))
	if err != nil {
		r.fail(w, req, err)
		return
	}

	doc, err := r.handler.Update(req.Context(), change, p)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	r.render(w, req, http.StatusOK, doc, p)
}

func (r *Router) render(w http.ResponseWriter, req *http.Request, status int, doc *response.Document, p query.Params) {
	if doc == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := response.Render(w, status, doc, p.Fields); err != nil {
		r.fail(w, req, err)
	}
}
