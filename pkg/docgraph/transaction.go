package docgraph

import (
	"context"

	bperrors "github.com/matzehuels/blueprints/pkg/errors"
	"github.com/matzehuels/blueprints/pkg/graph"
)

// Transaction operations of graph.TransactionalGraph. Every mutation already
// commits on its own, so these fail with UNSUPPORTED like the index calls.

func (g *Graph) StartTransaction(ctx context.Context) error {
	return bperrors.Unsupported("start transaction")
}

func (g *Graph) StopTransaction(ctx context.Context, c graph.Conclusion) error {
	return bperrors.Unsupported("stop transaction")
}

func (g *Graph) SetTransactionMode(ctx context.Context, m graph.TransactionMode) error {
	return bperrors.Unsupported("set transaction mode")
}

func (g *Graph) TransactionMode(ctx context.Context) (graph.TransactionMode, error) {
	return graph.Automatic, bperrors.Unsupported("get transaction mode")
}
