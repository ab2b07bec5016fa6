// Package graphio exports and imports whole property graphs.
//
// # Snapshot Format
//
// A [Snapshot] is a node-link JSON document:
//
//	{
//	  "vertices": [
//	    {"id": "64f0c3...", "native": true, "properties": {"name": "marko"}},
//	    {"id": "t:1"}
//	  ],
//	  "edges": [
//	    {"id": "64f0c3...|son|t:1", "out": "64f0c3...", "label": "son", "in": "t:1",
//	     "properties": {"note": "this is an edge"}}
//	  ]
//	}
//
// Vertices and edges are sorted by id for deterministic output. Native
// vertex ids belong to the store that minted them, so [Import] mints fresh
// ones and remaps edge endpoints.
//
// # Rendering
//
// [ToDOT] turns a snapshot into Graphviz DOT and [RenderSVG] renders DOT with
// the embedded Graphviz build from github.com/goccy/go-graphviz:
//
//	snap, _ := graphio.Collect(ctx, g)
//	svg, err := graphio.RenderSVG(ctx, graphio.ToDOT(snap, graphio.Options{}))
package graphio
