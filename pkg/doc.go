// Package pkg provides the libraries behind blueprints, a property graph
// stored in a document database.
//
// # Overview
//
// The pkg directory is organized into four areas:
//
//  1. [graph] - The property graph model (Graph, Vertex, Edge, Index contracts)
//  2. [docgraph] - The graph engine mapping that model onto documents
//  3. [docstore] - The document store boundary and its backends
//     (memory, badgerstore, mongostore, redisstore)
//  4. [graphio], [config], [backend] - Snapshots and rendering, configuration,
//     backend selection
//
// [errors] carries the error codes every layer reports, and [observability]
// the hooks for store operations, graph mutations and HTTP requests.
//
// # Architecture
//
//	cmd/blueprints, internal/api
//	         ↓
//	    [backend] (config → store)
//	         ↓
//	    [docgraph] (vertices, adjacency records, reverse links)
//	         ↓
//	    [docstore] (collections, atomic array primitives)
//	         ↓
//	    MongoDB / Redis / BadgerDB / memory
//
// # Quick Start
//
//	g := docgraph.New(docstore.NewMemoryStore())
//	a, _ := g.AddVertex(ctx, "a")
//	b, _ := g.AddVertex(ctx, "b")
//	e, _ := g.AddEdge(ctx, a, b, "knows")
//	fmt.Println(e.ID()) // a|knows|b
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/blueprints/pkg/graph
// [docgraph]: https://pkg.go.dev/github.com/matzehuels/blueprints/pkg/docgraph
// [docstore]: https://pkg.go.dev/github.com/matzehuels/blueprints/pkg/docstore
// [graphio]: https://pkg.go.dev/github.com/matzehuels/blueprints/pkg/graphio
// [config]: https://pkg.go.dev/github.com/matzehuels/blueprints/pkg/config
// [backend]: https://pkg.go.dev/github.com/matzehuels/blueprints/pkg/backend
// [errors]: https://pkg.go.dev/github.com/matzehuels/blueprints/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/blueprints/pkg/observability
package pkg
