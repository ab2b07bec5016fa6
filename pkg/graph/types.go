package graph

import (
	"context"
	"iter"
)

// =============================================================================
// Elements
// =============================================================================

// Element is anything with an identity and a property bag.
type Element interface {
	// ID returns the element identifier.
	ID() ID

	// Property returns the value stored under key and whether it is set.
	Property(key string) (any, bool)

	// PropertyKeys returns the set property keys in sorted order. The
	// identity field is never included.
	PropertyKeys() []string

	// SetProperty sets key to value and persists the change immediately.
	SetProperty(ctx context.Context, key string, value any) error

	// RemoveProperty unsets key and persists the change immediately.
	RemoveProperty(ctx context.Context, key string) error
}

// Vertex is a node of the graph.
type Vertex interface {
	Element

	// OutEdges yields edges leaving this vertex. With no labels every label
	// is traversed.
	OutEdges(ctx context.Context, labels ...string) iter.Seq2[Edge, error]

	// InEdges yields edges arriving at this vertex.
	InEdges(ctx context.Context, labels ...string) iter.Seq2[Edge, error]

	// BothEdges yields out edges followed by in edges.
	BothEdges(ctx context.Context, labels ...string) iter.Seq2[Edge, error]
}

// Edge is a directed, labeled relationship.
type Edge interface {
	Element

	// Label returns the relationship type.
	Label() string

	// OutVertex returns the source vertex, or nil if it no longer exists.
	OutVertex(ctx context.Context) (Vertex, error)

	// InVertex returns the target vertex, or nil if it no longer exists.
	InVertex(ctx context.Context) (Vertex, error)
}

// =============================================================================
// Graph
// =============================================================================

// Graph is the property graph façade.
type Graph interface {
	// AddVertex creates a vertex. An empty id lets the store assign one.
	AddVertex(ctx context.Context, id string) (Vertex, error)

	// GetVertex returns the vertex with the given id, or nil if absent.
	GetVertex(ctx context.Context, id string) (Vertex, error)

	// RemoveVertex deletes the vertex and every edge touching it.
	RemoveVertex(ctx context.Context, v Vertex) error

	// Vertices yields every vertex.
	Vertices(ctx context.Context) iter.Seq2[Vertex, error]

	// AddEdge creates the edge out -label-> in. Adding an existing edge is a
	// no-op that returns an equivalent handle.
	AddEdge(ctx context.Context, out, in Vertex, label string) (Edge, error)

	// GetEdge returns the edge with the given composite id, or nil if absent.
	GetEdge(ctx context.Context, id string) (Edge, error)

	// RemoveEdge deletes the edge.
	RemoveEdge(ctx context.Context, e Edge) error

	// Edges yields every edge.
	Edges(ctx context.Context) iter.Seq2[Edge, error]

	// Clear removes all vertices, edges and indexes. It is irreversible.
	Clear(ctx context.Context) error

	// Shutdown releases the underlying store connection.
	Shutdown(ctx context.Context) error
}

// =============================================================================
// Indexes
// =============================================================================

// IndexClass selects which kind of element an index covers.
type IndexClass string

const (
	VertexIndex IndexClass = "vertex"
	EdgeIndex   IndexClass = "edge"
)

// IndexType tells whether an index is maintained by the caller or the graph.
type IndexType string

const (
	ManualIndex    IndexType = "manual"
	AutomaticIndex IndexType = "automatic"
)

// Index maps (key, value) pairs to sets of elements.
type Index interface {
	Name() string
	Class() IndexClass
	Type() IndexType

	Put(ctx context.Context, key string, value any, e Element) error
	Get(ctx context.Context, key string, value any) iter.Seq2[Element, error]
	Remove(ctx context.Context, key string, value any, e Element) error
	Count(ctx context.Context, key string, value any) (int, error)
}

// AutoIndex is an index the graph keeps up to date for a fixed key set.
type AutoIndex interface {
	Index
	AutoIndexKeys() []string
}

// IndexableGraph is a Graph that manages named indexes.
type IndexableGraph interface {
	Graph

	CreateManualIndex(ctx context.Context, name string, class IndexClass) (Index, error)
	CreateAutomaticIndex(ctx context.Context, name string, class IndexClass, keys []string) (AutoIndex, error)
	GetIndex(ctx context.Context, name string, class IndexClass) (Index, error)
	Indices(ctx context.Context) ([]Index, error)
	DropIndex(ctx context.Context, name string) error
}

// =============================================================================
// Transactions
// =============================================================================

// Conclusion ends a transaction.
type Conclusion uint8

const (
	Success Conclusion = iota
	Failure
)

func (c Conclusion) String() string {
	if c == Failure {
		return "failure"
	}
	return "success"
}

// TransactionMode tells whether every mutation commits on its own or the
// caller brackets mutations with StartTransaction and StopTransaction.
type TransactionMode uint8

const (
	Automatic TransactionMode = iota
	Manual
)

func (m TransactionMode) String() string {
	if m == Manual {
		return "manual"
	}
	return "automatic"
}

// TransactionalGraph is a Graph that groups mutations into transactions.
type TransactionalGraph interface {
	Graph

	StartTransaction(ctx context.Context) error
	StopTransaction(ctx context.Context, c Conclusion) error
	SetTransactionMode(ctx context.Context, m TransactionMode) error
	TransactionMode(ctx context.Context) (TransactionMode, error)
}
