package docgraph

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/blueprints/pkg/docstore"
	bperrors "github.com/matzehuels/blueprints/pkg/errors"
	"github.com/matzehuels/blueprints/pkg/graph"
	"github.com/matzehuels/blueprints/pkg/observability"
)

// errStop ends a collection scan once an iterator consumer stops pulling.
var errStop = errors.New("stop iteration")

// Graph is a property graph stored in a document store.
// It is safe for concurrent use if the store is.
type Graph struct {
	store   docstore.Store
	nodes   docstore.Collection
	edges   docstore.Collection
	indexes docstore.Collection
	links   docstore.Collection
	logger  *log.Logger
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger used for debug output of mutations.
func WithLogger(l *log.Logger) Option {
	return func(g *Graph) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates a graph over store. The graph takes ownership of the store;
// Shutdown closes it.
func New(store docstore.Store, opts ...Option) *Graph {
	g := &Graph{
		store:   store,
		nodes:   store.Collection(docstore.CollectionNodes),
		edges:   store.Collection(docstore.CollectionEdges),
		indexes: store.Collection(docstore.CollectionIndexes),
		links:   store.Collection(docstore.CollectionLinks),
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Store returns the underlying document store.
func (g *Graph) Store() docstore.Store { return g.store }

func (g *Graph) observe(ctx context.Context, op, id string, err error) {
	observability.Graph().OnMutation(ctx, op, id, err)
}

// =============================================================================
// Vertices
// =============================================================================

// AddVertex creates a vertex. With an empty id the store mints a native one;
// otherwise id is used verbatim as a string key. A taken id fails with
// DUPLICATE_ID.
func (g *Graph) AddVertex(ctx context.Context, id string) (_ graph.Vertex, err error) {
	defer func() { g.observe(ctx, "add_vertex", id, err) }()

	if err := bperrors.ValidateVertexID(id); err != nil {
		return nil, err
	}

	doc := docstore.Document{}
	if id != "" {
		doc[docstore.KeyField] = docstore.Str(id)
	}
	key, err := g.nodes.Insert(ctx, doc)
	if errors.Is(err, docstore.ErrDuplicateKey) {
		return nil, bperrors.Wrap(bperrors.ErrCodeDuplicateID, err, "vertex %q already exists", id)
	}
	if err != nil {
		return nil, fmt.Errorf("insert vertex: %w", err)
	}

	stored, err := g.nodes.FindOne(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read vertex %s: %w", key, err)
	}
	if stored == nil {
		return nil, bperrors.New(bperrors.ErrCodeInternal, "vertex %s vanished after insert", key)
	}

	g.logger.Debug("added vertex", "id", key.Value, "kind", key.Kind)
	return g.newVertex(key, stored), nil
}

// GetVertex returns the vertex with the given id, or nil, nil if none
// exists. A string that parses as the store's native id is looked up as a
// native key first, then as a plain string key.
func (g *Graph) GetVertex(ctx context.Context, id string) (graph.Vertex, error) {
	v, err := g.lookupVertex(ctx, id)
	if v == nil || err != nil {
		return nil, err
	}
	return v, nil
}

func (g *Graph) lookupVertex(ctx context.Context, id string) (*vertex, error) {
	if id == "" {
		return nil, nil
	}
	if key, ok := g.store.ParseNativeKey(id); ok {
		doc, err := g.nodes.FindOne(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("find vertex %s: %w", id, err)
		}
		if doc != nil {
			return g.newVertex(key, doc), nil
		}
	}
	key := docstore.Str(id)
	doc, err := g.nodes.FindOne(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("find vertex %s: %w", id, err)
	}
	if doc == nil {
		return nil, nil
	}
	return g.newVertex(key, doc), nil
}

// resolveVertex returns the stored key of v.
func (g *Graph) resolveVertex(ctx context.Context, v graph.Vertex) (docstore.Key, error) {
	if v == nil {
		return docstore.Key{}, bperrors.New(bperrors.ErrCodeInvalidInput, "vertex cannot be nil")
	}
	if dv, ok := v.(*vertex); ok && dv.g == g {
		return dv.key, nil
	}
	found, err := g.lookupVertex(ctx, v.ID().Value)
	if err != nil {
		return docstore.Key{}, err
	}
	if found == nil {
		return docstore.Key{}, bperrors.New(bperrors.ErrCodeNotFound, "vertex %q not found", v.ID().Value)
	}
	return found.key, nil
}

// RemoveVertex deletes v together with every edge leaving or entering it.
// Removing an absent vertex fails with NOT_FOUND.
func (g *Graph) RemoveVertex(ctx context.Context, v graph.Vertex) (err error) {
	var id string
	defer func() { g.observe(ctx, "remove_vertex", id, err) }()

	key, err := g.resolveVertex(ctx, v)
	if err != nil {
		return err
	}
	id = key.Value

	doc, err := g.nodes.FindOne(ctx, key)
	if err != nil {
		return fmt.Errorf("find vertex %s: %w", id, err)
	}
	if doc == nil {
		return bperrors.New(bperrors.ErrCodeNotFound, "vertex %q not found", id)
	}

	if err := g.removeOutRecords(ctx, id); err != nil {
		return err
	}
	if err := g.removeInEntries(ctx, id); err != nil {
		return err
	}
	for _, k := range []docstore.Key{outLinkKey(id), inLinkKey(id)} {
		if _, err := g.links.Remove(ctx, k); err != nil {
			return fmt.Errorf("remove link %s: %w", k, err)
		}
	}
	if _, err := g.nodes.Remove(ctx, key); err != nil {
		return fmt.Errorf("remove vertex %s: %w", id, err)
	}

	g.logger.Debug("removed vertex", "id", id)
	return nil
}

// removeOutRecords deletes every adjacency record of id and the reverse
// entries its targets hold.
func (g *Graph) removeOutRecords(ctx context.Context, id string) error {
	link, err := g.links.FindOne(ctx, outLinkKey(id))
	if err != nil {
		return fmt.Errorf("find out labels of %s: %w", id, err)
	}
	for _, label := range stringField(link, fieldLabels, fieldID) {
		rk := recordKey(id, label)
		record, err := g.edges.FindOne(ctx, rk)
		if err != nil {
			return fmt.Errorf("find adjacency %s: %w", rk, err)
		}
		for _, target := range stringField(record, fieldTargets, fieldID) {
			if _, err := g.links.PullElement(ctx, inLinkKey(target), fieldSources, fieldID, rk.Value); err != nil {
				return fmt.Errorf("unlink %s from %s: %w", rk, target, err)
			}
		}
		if _, err := g.edges.Remove(ctx, rk); err != nil {
			return fmt.Errorf("remove adjacency %s: %w", rk, err)
		}
	}
	return nil
}

// removeInEntries pulls id from every adjacency record that targets it.
func (g *Graph) removeInEntries(ctx context.Context, id string) error {
	link, err := g.links.FindOne(ctx, inLinkKey(id))
	if err != nil {
		return fmt.Errorf("find in sources of %s: %w", id, err)
	}
	for _, source := range stringField(link, fieldSources, fieldID) {
		if _, err := g.edges.PullElement(ctx, docstore.Str(source), fieldTargets, fieldID, id); err != nil {
			return fmt.Errorf("pull %s from %s: %w", id, source, err)
		}
	}
	return nil
}

// Vertices yields every vertex in store scan order.
func (g *Graph) Vertices(ctx context.Context) iter.Seq2[graph.Vertex, error] {
	return func(yield func(graph.Vertex, error) bool) {
		err := g.nodes.Scan(ctx, func(doc docstore.Document) error {
			key, ok := doc.Key()
			if !ok {
				return nil
			}
			if !yield(g.newVertex(key, doc), nil) {
				return errStop
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStop) {
			yield(nil, fmt.Errorf("scan vertices: %w", err))
		}
	}
}

// =============================================================================
// Edges
// =============================================================================

// AddEdge creates the edge out -label-> in. The target is appended to the
// adjacency record "out|label" only if absent, so repeated calls collapse
// into one edge; every call returns a fresh handle carrying the stored
// properties.
func (g *Graph) AddEdge(ctx context.Context, out, in graph.Vertex, label string) (_ graph.Edge, err error) {
	var id string
	defer func() { g.observe(ctx, "add_edge", id, err) }()

	if out == nil || in == nil {
		return nil, bperrors.New(bperrors.ErrCodeInvalidInput, "edge endpoints cannot be nil")
	}
	if err := bperrors.ValidateLabel(label); err != nil {
		return nil, err
	}
	outID, inID := out.ID().Value, in.ID().Value
	for _, vid := range []string{outID, inID} {
		if vid == "" {
			return nil, bperrors.New(bperrors.ErrCodeInvalidInput, "edge endpoint has an empty id")
		}
		if err := bperrors.ValidateVertexID(vid); err != nil {
			return nil, err
		}
	}
	id = graph.EdgeID(outID, label, inID)

	rk := recordKey(outID, label)
	elem, appended, err := g.edges.AppendIfAbsent(ctx, rk, fieldTargets, fieldID,
		docstore.Document{fieldID: inID},
		docstore.Document{fieldOut: outID, fieldLabel: label},
	)
	if err != nil {
		return nil, fmt.Errorf("append %s to %s: %w", inID, rk, err)
	}

	// The link appends run on every call so a retry repairs an earlier
	// partial failure.
	if _, _, err := g.links.AppendIfAbsent(ctx, outLinkKey(outID), fieldLabels, fieldID,
		docstore.Document{fieldID: label},
		docstore.Document{fieldVertex: outID},
	); err != nil {
		return nil, fmt.Errorf("link label %s of %s: %w", label, outID, err)
	}
	if _, _, err := g.links.AppendIfAbsent(ctx, inLinkKey(inID), fieldSources, fieldID,
		docstore.Document{fieldID: rk.Value, fieldOut: outID, fieldLabel: label},
		docstore.Document{fieldVertex: inID},
	); err != nil {
		return nil, fmt.Errorf("link source %s of %s: %w", rk, inID, err)
	}

	g.logger.Debug("added edge", "record", rk.Value, "target", inID, "appended", appended)
	return g.newEdge(outID, label, inID, elem), nil
}

// GetEdge returns the edge with the composite id "source|label|target", or
// nil, nil if it does not exist. Ids without exactly three parts fail with
// MALFORMED_IDENTIFIER.
func (g *Graph) GetEdge(ctx context.Context, id string) (graph.Edge, error) {
	out, label, in, err := graph.ParseEdgeID(id)
	if err != nil {
		return nil, err
	}
	e, err := g.lookupEdge(ctx, out, label, in)
	if e == nil || err != nil {
		return nil, err
	}
	return e, nil
}

func (g *Graph) lookupEdge(ctx context.Context, out, label, in string) (*edge, error) {
	rk := recordKey(out, label)
	record, err := g.edges.FindOne(ctx, rk)
	if err != nil {
		return nil, fmt.Errorf("find adjacency %s: %w", rk, err)
	}
	entry, ok := findTarget(record, in)
	if !ok {
		return nil, nil
	}
	return g.newEdge(out, label, in, entry), nil
}

// RemoveEdge deletes e from its adjacency record and the reverse index.
// Removing an absent edge fails with NOT_FOUND.
func (g *Graph) RemoveEdge(ctx context.Context, e graph.Edge) (err error) {
	var id string
	defer func() { g.observe(ctx, "remove_edge", id, err) }()

	if e == nil {
		return bperrors.New(bperrors.ErrCodeInvalidInput, "edge cannot be nil")
	}
	id = e.ID().Value
	out, label, in, err := graph.ParseEdgeID(id)
	if err != nil {
		return err
	}

	rk := recordKey(out, label)
	removed, err := g.edges.PullElement(ctx, rk, fieldTargets, fieldID, in)
	if err != nil {
		return fmt.Errorf("pull %s from %s: %w", in, rk, err)
	}
	if !removed {
		return bperrors.New(bperrors.ErrCodeNotFound, "edge %q not found", id)
	}
	if _, err := g.links.PullElement(ctx, inLinkKey(in), fieldSources, fieldID, rk.Value); err != nil {
		return fmt.Errorf("unlink %s from %s: %w", rk, in, err)
	}

	g.logger.Debug("removed edge", "id", id)
	return nil
}

// Edges yields every edge, record by record in store scan order.
func (g *Graph) Edges(ctx context.Context) iter.Seq2[graph.Edge, error] {
	return func(yield func(graph.Edge, error) bool) {
		err := g.edges.Scan(ctx, func(record docstore.Document) error {
			out, label, ok := recordEndpoints(record)
			if !ok {
				return nil
			}
			for _, entry := range record.Elements(fieldTargets) {
				in, ok := entryTarget(entry)
				if !ok {
					continue
				}
				if !yield(g.newEdge(out, label, in, entry), nil) {
					return errStop
				}
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStop) {
			yield(nil, fmt.Errorf("scan edges: %w", err))
		}
	}
}

// =============================================================================
// Lifecycle
// =============================================================================

// Clear truncates every collection of the graph. It is irreversible.
func (g *Graph) Clear(ctx context.Context) (err error) {
	defer func() { g.observe(ctx, "clear", "", err) }()

	for _, c := range []docstore.Collection{g.nodes, g.edges, g.indexes, g.links} {
		if err := c.Truncate(ctx); err != nil {
			return fmt.Errorf("truncate %s: %w", c.Name(), err)
		}
	}
	g.logger.Debug("cleared graph", "store", g.store.Name())
	return nil
}

// Shutdown closes the underlying store.
func (g *Graph) Shutdown(ctx context.Context) error {
	return g.store.Close(ctx)
}

// Ensure Graph implements the optional graph contracts.
var (
	_ graph.IndexableGraph     = (*Graph)(nil)
	_ graph.TransactionalGraph = (*Graph)(nil)
)
