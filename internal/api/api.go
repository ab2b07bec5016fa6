// Package api serves a property graph over HTTP.
//
// Routes:
//
//	POST   /vertices                          {"id": "optional"}
//	GET    /vertices
//	GET    /vertices/{id}
//	DELETE /vertices/{id}
//	PUT    /vertices/{id}/properties/{key}    <json value>
//	DELETE /vertices/{id}/properties/{key}
//	GET    /vertices/{id}/edges/{direction}   direction out|in|both, ?label=...
//	POST   /edges                             {"out": "...", "in": "...", "label": "..."}
//	GET    /edges
//	GET    /edges/{id}
//	DELETE /edges/{id}
//	PUT    /edges/{id}/properties/{key}       <json value>
//	DELETE /edges/{id}/properties/{key}
//	GET    /graph?format=json|dot|svg
//	DELETE /graph
//
// Path parameters are URL-unescaped, so edge ids are sent as
// "a%7Cknows%7Cb". Errors are returned as {"code": "...", "message": "..."}
// with a status derived from the error code.
package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	bperrors "github.com/matzehuels/blueprints/pkg/errors"
	"github.com/matzehuels/blueprints/pkg/graph"
	"github.com/matzehuels/blueprints/pkg/observability"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Server is an http.Handler exposing one graph.
type Server struct {
	graph  graph.Graph
	logger *log.Logger
	router chi.Router
}

// New builds the router for g.
func New(g graph.Graph, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{graph: g, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Route("/vertices", func(r chi.Router) {
		r.Post("/", s.addVertex)
		r.Get("/", s.listVertices)
		r.Get("/{id}", s.getVertex)
		r.Delete("/{id}", s.removeVertex)
		r.Put("/{id}/properties/{key}", s.setVertexProperty)
		r.Delete("/{id}/properties/{key}", s.removeVertexProperty)
		r.Get("/{id}/edges/{direction}", s.vertexEdges)
	})
	r.Route("/edges", func(r chi.Router) {
		r.Post("/", s.addEdge)
		r.Get("/", s.listEdges)
		r.Get("/{id}", s.getEdge)
		r.Delete("/{id}", s.removeEdge)
		r.Put("/{id}/properties/{key}", s.setEdgeProperty)
		r.Delete("/{id}/properties/{key}", s.removeEdgeProperty)
	})
	r.Get("/graph", s.exportGraph)
	r.Delete("/graph", s.clearGraph)

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// observe logs each request and reports it to the HTTP hooks.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.logger.Debug("request", "method", r.Method, "route", route, "status", status,
			"duration", time.Since(start), "request_id", middleware.GetReqID(r.Context()))
		observability.HTTP().OnRequest(r.Context(), r.Method, route, status, time.Since(start))
	})
}

// =============================================================================
// Encoding helpers
// =============================================================================

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusFor maps error codes onto HTTP statuses.
func statusFor(err error) int {
	switch bperrors.GetCode(err) {
	case bperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case bperrors.ErrCodeDuplicateID, bperrors.ErrCodeDanglingEdge:
		return http.StatusConflict
	case bperrors.ErrCodeInvalidInput, bperrors.ErrCodeMalformedID:
		return http.StatusBadRequest
	case bperrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := bperrors.GetCode(err)
	if code == "" {
		code = bperrors.ErrCodeInternal
	}
	msg := bperrors.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Code: string(code), Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return bperrors.Wrap(bperrors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

// param returns the decoded path parameter name. chi routes on the raw
// path only when the request carries one (r.URL.RawPath); otherwise the
// parameter is already decoded and must be used as is.
func param(r *http.Request, name string) (string, error) {
	raw := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return raw, nil
	}
	v, err := url.PathUnescape(raw)
	if err != nil {
		return "", bperrors.Wrap(bperrors.ErrCodeInvalidInput, err, "invalid %s %q", name, raw)
	}
	return v, nil
}

func notFound(what, id string) error {
	return bperrors.New(bperrors.ErrCodeNotFound, "%s %q not found", what, id)
}
