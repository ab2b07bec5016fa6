package api

import (
	"bytes"
	"errors"
	"io"
	"iter"
	"net/http"

	bperrors "github.com/matzehuels/blueprints/pkg/errors"
	"github.com/matzehuels/blueprints/pkg/graph"
	"github.com/matzehuels/blueprints/pkg/graphio"
)

// =============================================================================
// Vertices
// =============================================================================

type addVertexRequest struct {
	ID string `json:"id"`
}

func (s *Server) addVertex(w http.ResponseWriter, r *http.Request) {
	var req addVertexRequest
	if err := decodeBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, r, err)
		return
	}
	v, err := s.graph.AddVertex(r.Context(), req.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, graphio.VertexOf(v))
}

func (s *Server) listVertices(w http.ResponseWriter, r *http.Request) {
	out := []graphio.Vertex{}
	for v, err := range s.graph.Vertices(r.Context()) {
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		out = append(out, graphio.VertexOf(v))
	}
	writeJSON(w, http.StatusOK, out)
}

// vertex resolves the {id} parameter to an existing vertex.
func (s *Server) vertex(r *http.Request) (graph.Vertex, error) {
	id, err := param(r, "id")
	if err != nil {
		return nil, err
	}
	v, err := s.graph.GetVertex(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, notFound("vertex", id)
	}
	return v, nil
}

func (s *Server) getVertex(w http.ResponseWriter, r *http.Request) {
	v, err := s.vertex(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, graphio.VertexOf(v))
}

func (s *Server) removeVertex(w http.ResponseWriter, r *http.Request) {
	v, err := s.vertex(r)
	if err == nil {
		err = s.graph.RemoveVertex(r.Context(), v)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setVertexProperty(w http.ResponseWriter, r *http.Request) {
	v, err := s.vertex(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.setProperty(r, v); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, graphio.VertexOf(v))
}

func (s *Server) removeVertexProperty(w http.ResponseWriter, r *http.Request) {
	v, err := s.vertex(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.removeProperty(r, v); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, graphio.VertexOf(v))
}

func (s *Server) vertexEdges(w http.ResponseWriter, r *http.Request) {
	v, err := s.vertex(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	direction, err := param(r, "direction")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	labels := r.URL.Query()["label"]
	ctx := r.Context()

	var seq iter.Seq2[graph.Edge, error]
	switch direction {
	case "out":
		seq = v.OutEdges(ctx, labels...)
	case "in":
		seq = v.InEdges(ctx, labels...)
	case "both":
		seq = v.BothEdges(ctx, labels...)
	default:
		s.writeError(w, r, bperrors.New(bperrors.ErrCodeInvalidInput,
			"direction must be out, in or both, got %q", direction))
		return
	}

	out := []graphio.Edge{}
	for e, err := range seq {
		if err == nil {
			var se graphio.Edge
			if se, err = graphio.EdgeOf(e); err == nil {
				out = append(out, se)
				continue
			}
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// Edges
// =============================================================================

type addEdgeRequest struct {
	Out   string `json:"out"`
	In    string `json:"in"`
	Label string `json:"label"`
}

func (s *Server) addEdge(w http.ResponseWriter, r *http.Request) {
	var req addEdgeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx := r.Context()
	out, err := s.graph.GetVertex(ctx, req.Out)
	if err == nil && out == nil {
		err = notFound("vertex", req.Out)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := s.graph.GetVertex(ctx, req.In)
	if err == nil && in == nil {
		err = notFound("vertex", req.In)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.graph.AddEdge(ctx, out, in, req.Label)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeEdge(w, r, http.StatusCreated, e)
}

func (s *Server) listEdges(w http.ResponseWriter, r *http.Request) {
	out := []graphio.Edge{}
	for e, err := range s.graph.Edges(r.Context()) {
		if err == nil {
			var se graphio.Edge
			if se, err = graphio.EdgeOf(e); err == nil {
				out = append(out, se)
				continue
			}
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// edge resolves the {id} parameter to an existing edge.
func (s *Server) edge(r *http.Request) (graph.Edge, error) {
	id, err := param(r, "id")
	if err != nil {
		return nil, err
	}
	e, err := s.graph.GetEdge(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, notFound("edge", id)
	}
	return e, nil
}

func (s *Server) writeEdge(w http.ResponseWriter, r *http.Request, status int, e graph.Edge) {
	se, err := graphio.EdgeOf(e)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, status, se)
}

func (s *Server) getEdge(w http.ResponseWriter, r *http.Request) {
	e, err := s.edge(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeEdge(w, r, http.StatusOK, e)
}

func (s *Server) removeEdge(w http.ResponseWriter, r *http.Request) {
	e, err := s.edge(r)
	if err == nil {
		err = s.graph.RemoveEdge(r.Context(), e)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setEdgeProperty(w http.ResponseWriter, r *http.Request) {
	e, err := s.edge(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.setProperty(r, e); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeEdge(w, r, http.StatusOK, e)
}

func (s *Server) removeEdgeProperty(w http.ResponseWriter, r *http.Request) {
	e, err := s.edge(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.removeProperty(r, e); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeEdge(w, r, http.StatusOK, e)
}

// =============================================================================
// Properties
// =============================================================================

func (s *Server) setProperty(r *http.Request, el graph.Element) error {
	key, err := param(r, "key")
	if err != nil {
		return err
	}
	var value any
	if err := decodeBody(r, &value); err != nil {
		return err
	}
	return el.SetProperty(r.Context(), key, value)
}

func (s *Server) removeProperty(r *http.Request, el graph.Element) error {
	key, err := param(r, "key")
	if err != nil {
		return err
	}
	return el.RemoveProperty(r.Context(), key)
}

// =============================================================================
// Whole graph
// =============================================================================

func (s *Server) exportGraph(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap, err := graphio.Collect(ctx, s.graph)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	opts := graphio.Options{Detailed: q.Get("detailed") == "true"}
	switch format := q.Get("format"); format {
	case "", "json":
		var buf bytes.Buffer
		if err := graphio.WriteJSON(&buf, snap); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		buf.WriteTo(w)
	case "dot":
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		io.WriteString(w, graphio.ToDOT(snap, opts))
	case "svg":
		svg, err := graphio.RenderSVG(ctx, graphio.ToDOT(snap, opts))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Write(svg)
	default:
		s.writeError(w, r, bperrors.New(bperrors.ErrCodeInvalidInput,
			"format must be json, dot or svg, got %q", format))
	}
}

func (s *Server) clearGraph(w http.ResponseWriter, r *http.Request) {
	if err := s.graph.Clear(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
