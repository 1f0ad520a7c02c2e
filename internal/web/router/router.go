// Package router mounts the resource graph on chi: introspection endpoints
// under /_graph and JSON:API resource routes whose query parameters and write
// documents are checked against the graph before a Handler sees them.
package router

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/conduit-lang/resourcegraph/internal/graph"
	"github.com/conduit-lang/resourcegraph/internal/web/middleware"
	"github.com/conduit-lang/resourcegraph/internal/web/query"
	"github.com/conduit-lang/resourcegraph/internal/web/request"
	"github.com/conduit-lang/resourcegraph/internal/web/response"
)

// Handler serves resource operations once the router has resolved the
// resource and validated the request against the graph.
type Handler interface {
	List(ctx context.Context, res *graph.ResourceDescriptor, p query.Params, page query.Page) (doc *response.Document, total int, err error)
	Show(ctx context.Context, res *graph.ResourceDescriptor, id any, p query.Params) (*response.Document, error)
	Create(ctx context.Context, change *request.Change, p query.Params) (*response.Document, error)
	Update(ctx context.Context, change *request.Change, p query.Params) (*response.Document, error)
}

// Unimplemented answers every resource operation with 501
type Unimplemented struct{}

func (Unimplemented) List(context.Context, *graph.ResourceDescriptor, query.Params, query.Page) (*response.Document, int, error) {
	return nil, 0, response.ErrNotImplemented
}

func (Unimplemented) Show(context.Context, *graph.ResourceDescriptor, any, query.Params) (*response.Document, error) {
	return nil, response.ErrNotImplemented
}

func (Unimplemented) Create(context.Context, *request.Change, query.Params) (*response.Document, error) {
	return nil, response.ErrNotImplemented
}

func (Unimplemented) Update(context.Context, *request.Change, query.Params) (*response.Document, error) {
	return nil, response.ErrNotImplemented
}

// RouteInfo describes a registered route for introspection
type RouteInfo struct {
	Method  string
	Pattern string
}

// Router serves a resource graph over HTTP
type Router struct {
	mux     chi.Router
	graph   *graph.Graph
	handler Handler
	parser  *request.Parser
	logger  *zap.Logger
	prefix  string
	maxBody int64

	registeredRoutes []RouteInfo
}

// Option configures a Router
type Option func(*Router)

// WithLogger sets the request and error logger
func WithLogger(logger *zap.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithPrefix mounts every route below prefix (e.g. "/api")
func WithPrefix(prefix string) Option {
	return func(r *Router) {
		r.prefix = strings.TrimSuffix(prefix, "/")
	}
}

// WithMaxBodySize limits write document size
func WithMaxBodySize(n int64) Option {
	return func(r *Router) {
		r.maxBody = n
	}
}

// New creates a Router for g. A nil handler serves 501 for resource routes.
func New(g *graph.Graph, h Handler, opts ...Option) *Router {
	if h == nil {
		h = Unimplemented{}
	}
	r := &Router{
		mux:     chi.NewRouter(),
		graph:   g,
		handler: h,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.maxBody > 0 {
		r.parser = request.NewParserWithMaxSize(g, r.maxBody)
	} else {
		r.parser = request.NewParser(g)
	}

	chain := middleware.NewChain(
		middleware.RequestID(),
		middleware.Logging(r.logger),
		middleware.Recovery(r.logger),
	)
	r.mux.Use(chain.Middlewares()...)
	r.mux.Use(negotiate)
	r.mux.NotFound(response.RenderNotFound)
	r.mux.MethodNotAllowed(response.RenderMethodNotAllowed)

	r.routes()
	return r
}

// ServeHTTP implements http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Routes returns all registered routes for introspection
func (r *Router) Routes() []RouteInfo {
	out := make([]RouteInfo, len(r.registeredRoutes))
	copy(out, r.registeredRoutes)
	return out
}

func (r *Router) routes() {
	r.get("/_graph", r.graphIndex)
	r.get("/_graph/{resource}", r.graphResource)

	r.get("/{resource}", r.list)
	r.post("/{resource}", r.create)
	r.get("/{resource}/{id}", r.show)
	r.patch("/{resource}/{id}", r.update)
}

func (r *Router) get(pattern string, h http.HandlerFunc) {
	r.addRoute(http.MethodGet, pattern, h)
}

func (r *Router) post(pattern string, h http.HandlerFunc) {
	r.addRoute(http.MethodPost, pattern, h)
}

func (r *Router) patch(pattern string, h http.HandlerFunc) {
	r.addRoute(http.MethodPatch, pattern, h)
}

func (r *Router) addRoute(method, pattern string, h http.HandlerFunc) {
	full := r.prefix + pattern
	r.mux.Method(method, full, h)
	r.registeredRoutes = append(r.registeredRoutes, RouteInfo{Method: method, Pattern: full})
}

// negotiate answers 406 when the client accepts no JSON:API representation
func negotiate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if !response.IsJSONAPI(req) {
			response.RenderError(w, response.ErrNotAcceptable)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// fail renders err and logs server-side failures
func (r *Router) fail(w http.ResponseWriter, req *http.Request, err error) {
	if response.StatusOf(err) >= http.StatusInternalServerError {
		r.logger.Error("handler failed",
			zap.String("request_id", middleware.GetRequestID(req.Context())),
			zap.String("path", req.URL.Path),
			zap.Error(err),
		)
	}
	response.RenderError(w, err)
}
