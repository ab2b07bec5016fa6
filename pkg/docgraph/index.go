package docgraph

import (
	"context"

	bperrors "github.com/matzehuels/blueprints/pkg/errors"
	"github.com/matzehuels/blueprints/pkg/graph"
)

// Index operations of graph.IndexableGraph. Each one fails eagerly with
// UNSUPPORTED.

func (g *Graph) CreateManualIndex(ctx context.Context, name string, class graph.IndexClass) (graph.Index, error) {
	return nil, bperrors.Unsupported("create manual index")
}

func (g *Graph) CreateAutomaticIndex(ctx context.Context, name string, class graph.IndexClass, keys []string) (graph.AutoIndex, error) {
	return nil, bperrors.Unsupported("create automatic index")
}

func (g *Graph) GetIndex(ctx context.Context, name string, class graph.IndexClass) (graph.Index, error) {
	return nil, bperrors.Unsupported("get index")
}

func (g *Graph) Indices(ctx context.Context) ([]graph.Index, error) {
	return nil, bperrors.Unsupported("list indices")
}

func (g *Graph) DropIndex(ctx context.Context, name string) error {
	return bperrors.Unsupported("drop index")
}
