// Package graph defines the backend-agnostic property graph model.
//
// A property graph is made of vertices and directed, labeled edges, each
// carrying an arbitrary key/value property bag. This package holds only the
// contracts; pkg/docgraph implements them on top of a document store.
//
// # Core Types
//
//   - [Graph]: façade for vertex and edge CRUD and bulk clear
//   - [Element]: identity plus property bag, shared by [Vertex] and [Edge]
//   - [Vertex]: a node with out, in and both-direction edge traversal
//   - [Edge]: a directed, labeled relationship between two vertices
//   - [IndexableGraph], [Index]: the index contract
//   - [TransactionalGraph]: the transaction contract
//
// # Identifiers
//
// Element identifiers are a tagged variant ([ID]). Vertices carry either a
// store-minted native id or a caller-supplied string. Edge ids are composite:
//
//	<source>|<label>|<target>
//
// Use [EdgeID] and [ParseEdgeID] to move between the parts and the string.
//
// # Traversal
//
// Traversals return single-pass iterators:
//
//	for e, err := range v.OutEdges(ctx, "knows") {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(e.ID())
//	}
//
// Lookups of absent elements return a nil element and a nil error so callers
// can branch without inspecting errors.
package graph
