// Package docgraph implements the property graph contracts of pkg/graph on
// top of any docstore.Store.
//
// # Storage Layout
//
// The graph owns four collections:
//
//	nodes    one document per vertex, keyed by the vertex id; the body is
//	         the property map
//	edges    one adjacency record per (source, label), keyed "source|label":
//	           {out, label, targets: [{id: target, ...edge properties}]}
//	indexes  reserved for the index contract
//	links    reverse and label indexes:
//	           "out|source" {labels:  [{id: label}]}
//	           "in|target"  {sources: [{id: "source|label", out, label}]}
//
// An edge is never stored as its own document. Its id is synthesized as
// "source|label|target" and its properties live in the matching target
// entry of the adjacency record.
//
// # Atomicity
//
// Every mutation of an adjacency record goes through one of the store's
// atomic single-document primitives, so concurrent AddEdge calls on the same
// record never lose appends. Operations spanning several documents (the
// reverse index updates, the RemoveVertex cascade) run step by step with no
// cross-document transaction. Readers skip reverse entries whose forward
// target is gone.
//
// # Usage
//
//	g := docgraph.New(docstore.NewMemoryStore())
//	marko, _ := g.AddVertex(ctx, "")
//	josh, _ := g.AddVertex(ctx, "t:1")
//	e, _ := g.AddEdge(ctx, marko, josh, "son")
//	e.SetProperty(ctx, "since", 2009)
package docgraph
