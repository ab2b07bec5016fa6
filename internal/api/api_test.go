package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/blueprints/pkg/docgraph"
	"github.com/matzehuels/blueprints/pkg/docstore"
	"github.com/matzehuels/blueprints/pkg/graphio"
	"github.com/matzehuels/blueprints/pkg/observability"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := log.New(io.Discard)
	g := docgraph.New(docstore.NewMemoryStore(), docgraph.WithLogger(logger))
	return New(g, logger)
}

// do sends a request through the router and checks the response status.
func do(t *testing.T, s *Server, method, path, body string, wantStatus int) []byte {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != wantStatus {
		t.Fatalf("%s %s: status = %d, want %d (body %s)", method, path, w.Code, wantStatus, w.Body.String())
	}
	return w.Body.Bytes()
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}

func edgePath(id string) string {
	return "/edges/" + url.PathEscape(id)
}

func seed(t *testing.T, s *Server) {
	t.Helper()
	do(t, s, http.MethodPost, "/vertices", `{"id":"a"}`, http.StatusCreated)
	do(t, s, http.MethodPost, "/vertices", `{"id":"b"}`, http.StatusCreated)
	do(t, s, http.MethodPost, "/edges", `{"out":"a","in":"b","label":"knows"}`, http.StatusCreated)
}

func TestAddVertex(t *testing.T) {
	s := newTestServer(t)

	v := decode[graphio.Vertex](t, do(t, s, http.MethodPost, "/vertices", `{"id":"t:1"}`, http.StatusCreated))
	if v.ID != "t:1" || v.Native {
		t.Errorf("vertex = %+v, want string id t:1", v)
	}

	minted := decode[graphio.Vertex](t, do(t, s, http.MethodPost, "/vertices", "", http.StatusCreated))
	if minted.ID == "" || !minted.Native {
		t.Errorf("vertex = %+v, want minted native id", minted)
	}

	body := do(t, s, http.MethodPost, "/vertices", `{"id":"t:1"}`, http.StatusConflict)
	if e := decode[errorResponse](t, body); e.Code != "DUPLICATE_ID" {
		t.Errorf("code = %q, want DUPLICATE_ID", e.Code)
	}

	do(t, s, http.MethodPost, "/vertices", `{"id":"a|b"}`, http.StatusBadRequest)
	do(t, s, http.MethodPost, "/vertices", `{`, http.StatusBadRequest)
}

func TestVertexLifecycle(t *testing.T) {
	s := newTestServer(t)
	do(t, s, http.MethodPost, "/vertices", `{"id":"a"}`, http.StatusCreated)

	v := decode[graphio.Vertex](t, do(t, s, http.MethodPut, "/vertices/a/properties/name", `"alice"`, http.StatusOK))
	if v.Properties["name"] != "alice" {
		t.Errorf("properties = %v, want name=alice", v.Properties)
	}

	got := decode[graphio.Vertex](t, do(t, s, http.MethodGet, "/vertices/a", "", http.StatusOK))
	if got.Properties["name"] != "alice" {
		t.Errorf("GET properties = %v, want name=alice", got.Properties)
	}

	do(t, s, http.MethodPut, "/vertices/a/properties/_id", `"x"`, http.StatusBadRequest)
	do(t, s, http.MethodPut, "/vertices/a/properties/name", "", http.StatusBadRequest)

	got = decode[graphio.Vertex](t, do(t, s, http.MethodDelete, "/vertices/a/properties/name", "", http.StatusOK))
	if len(got.Properties) != 0 {
		t.Errorf("properties = %v, want none", got.Properties)
	}

	list := decode[[]graphio.Vertex](t, do(t, s, http.MethodGet, "/vertices", "", http.StatusOK))
	if len(list) != 1 {
		t.Errorf("len(vertices) = %d, want 1", len(list))
	}

	do(t, s, http.MethodDelete, "/vertices/a", "", http.StatusNoContent)
	do(t, s, http.MethodGet, "/vertices/a", "", http.StatusNotFound)
	do(t, s, http.MethodDelete, "/vertices/a", "", http.StatusNotFound)
}

func TestEdges(t *testing.T) {
	s := newTestServer(t)
	seed(t, s)

	id := "a|knows|b"
	e := decode[graphio.Edge](t, do(t, s, http.MethodGet, edgePath(id), "", http.StatusOK))
	if e.ID != id || e.Out != "a" || e.Label != "knows" || e.In != "b" {
		t.Errorf("edge = %+v, want %s", e, id)
	}

	e = decode[graphio.Edge](t, do(t, s, http.MethodPut, edgePath(id)+"/properties/since", `2020`, http.StatusOK))
	if e.Properties["since"] != float64(2020) {
		t.Errorf("properties = %v, want since=2020", e.Properties)
	}
	do(t, s, http.MethodDelete, edgePath(id)+"/properties/since", "", http.StatusOK)

	list := decode[[]graphio.Edge](t, do(t, s, http.MethodGet, "/edges", "", http.StatusOK))
	if len(list) != 1 {
		t.Errorf("len(edges) = %d, want 1", len(list))
	}

	do(t, s, http.MethodGet, edgePath("a|knows"), "", http.StatusBadRequest)
	do(t, s, http.MethodGet, edgePath("a|likes|b"), "", http.StatusNotFound)
	do(t, s, http.MethodPost, "/edges", `{"out":"a","in":"zz","label":"knows"}`, http.StatusNotFound)
	do(t, s, http.MethodPost, "/edges", `{"out":"a","in":"b","label":""}`, http.StatusBadRequest)

	do(t, s, http.MethodDelete, edgePath(id), "", http.StatusNoContent)
	do(t, s, http.MethodDelete, edgePath(id), "", http.StatusNotFound)
}

func TestVertexEdges(t *testing.T) {
	s := newTestServer(t)
	seed(t, s)
	do(t, s, http.MethodPost, "/edges", `{"out":"a","in":"b","label":"likes"}`, http.StatusCreated)

	tests := []struct {
		path string
		want int
	}{
		{"/vertices/a/edges/out", 2},
		{"/vertices/a/edges/out?label=knows", 1},
		{"/vertices/a/edges/in", 0},
		{"/vertices/b/edges/in", 2},
		{"/vertices/b/edges/in?label=likes&label=knows", 2},
		{"/vertices/b/edges/both", 2},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			edges := decode[[]graphio.Edge](t, do(t, s, http.MethodGet, tt.path, "", http.StatusOK))
			if len(edges) != tt.want {
				t.Errorf("len(edges) = %d, want %d", len(edges), tt.want)
			}
		})
	}

	do(t, s, http.MethodGet, "/vertices/a/edges/sideways", "", http.StatusBadRequest)
	do(t, s, http.MethodGet, "/vertices/zz/edges/out", "", http.StatusNotFound)
}

func TestExportAndClear(t *testing.T) {
	s := newTestServer(t)
	seed(t, s)

	snap, err := graphio.ReadJSON(bytes.NewReader(do(t, s, http.MethodGet, "/graph", "", http.StatusOK)))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if len(snap.Vertices) != 2 || len(snap.Edges) != 1 {
		t.Errorf("snapshot = %d vertices, %d edges, want 2, 1", len(snap.Vertices), len(snap.Edges))
	}

	dot := string(do(t, s, http.MethodGet, "/graph?format=dot", "", http.StatusOK))
	if !strings.Contains(dot, "digraph") || !strings.Contains(dot, "knows") {
		t.Errorf("dot output missing graph or label:\n%s", dot)
	}
	do(t, s, http.MethodGet, "/graph?format=png", "", http.StatusBadRequest)

	do(t, s, http.MethodDelete, "/graph", "", http.StatusNoContent)
	if list := decode[[]graphio.Vertex](t, do(t, s, http.MethodGet, "/vertices", "", http.StatusOK)); len(list) != 0 {
		t.Errorf("len(vertices) after clear = %d, want 0", len(list))
	}
}

func TestEscapedIDs(t *testing.T) {
	s := newTestServer(t)

	ids := []string{"100%", "a%41", "aA", "a b", "x/y", "t:1", "50%/off"}
	for _, id := range ids {
		body, err := json.Marshal(addVertexRequest{ID: id})
		if err != nil {
			t.Fatal(err)
		}
		do(t, s, http.MethodPost, "/vertices", string(body), http.StatusCreated)
	}

	for _, id := range ids {
		t.Run(id, func(t *testing.T) {
			path := "/vertices/" + url.PathEscape(id)
			v := decode[graphio.Vertex](t, do(t, s, http.MethodGet, path, "", http.StatusOK))
			if v.ID != id {
				t.Errorf("GET %s id = %q, want %q", path, v.ID, id)
			}
		})
	}

	// Removing "a%41" must not touch "aA".
	do(t, s, http.MethodDelete, "/vertices/"+url.PathEscape("a%41"), "", http.StatusNoContent)
	do(t, s, http.MethodGet, "/vertices/aA", "", http.StatusOK)
	do(t, s, http.MethodGet, "/vertices/"+url.PathEscape("a%41"), "", http.StatusNotFound)

	do(t, s, http.MethodPost, "/edges", `{"out":"100%","in":"x/y","label":"knows"}`, http.StatusCreated)
	e := decode[graphio.Edge](t, do(t, s, http.MethodGet, edgePath("100%|knows|x/y"), "", http.StatusOK))
	if e.Out != "100%" || e.In != "x/y" {
		t.Errorf("edge = %+v, want 100%% -knows-> x/y", e)
	}
	do(t, s, http.MethodPut, edgePath("100%|knows|x/y")+"/properties/"+url.PathEscape("50%"), `1`, http.StatusOK)
}

func TestStatusFor(t *testing.T) {
	s := newTestServer(t)
	do(t, s, http.MethodGet, "/nowhere", "", http.StatusNotFound)
	do(t, s, http.MethodPatch, "/vertices", "", http.StatusMethodNotAllowed)
}

type recordingHTTPHooks struct {
	routes []string
}

func (h *recordingHTTPHooks) OnRequest(_ context.Context, method, route string, status int, _ time.Duration) {
	h.routes = append(h.routes, method+" "+route)
}

func TestRequestHooks(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	s := newTestServer(t)
	do(t, s, http.MethodPost, "/vertices", `{"id":"a"}`, http.StatusCreated)
	do(t, s, http.MethodGet, "/vertices/a", "", http.StatusOK)

	if len(hooks.routes) != 2 {
		t.Fatalf("routes = %v, want 2 entries", hooks.routes)
	}
	if !strings.HasPrefix(hooks.routes[0], "POST /vertices") {
		t.Errorf("routes[0] = %q, want POST /vertices", hooks.routes[0])
	}
	if hooks.routes[1] != "GET /vertices/{id}" {
		t.Errorf("routes[1] = %q, want GET /vertices/{id}", hooks.routes[1])
	}
}
