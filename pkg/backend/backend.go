// Package backend opens the document store selected by configuration.
package backend

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/blueprints/pkg/config"
	"github.com/matzehuels/blueprints/pkg/docgraph"
	"github.com/matzehuels/blueprints/pkg/docstore"
	"github.com/matzehuels/blueprints/pkg/docstore/badgerstore"
	"github.com/matzehuels/blueprints/pkg/docstore/mongostore"
	"github.com/matzehuels/blueprints/pkg/docstore/redisstore"
	bperrors "github.com/matzehuels/blueprints/pkg/errors"
)

// Open connects to the store named by cfg.Backend. The returned store is
// wrapped with docstore.Instrument. The rest backend is recognized but has
// no implementation and fails with UNSUPPORTED.
func Open(ctx context.Context, cfg config.Config, logger *log.Logger) (docstore.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	var (
		store docstore.Store
		err   error
	)
	switch cfg.Backend {
	case config.BackendMemory:
		store = docstore.NewMemoryStore()
	case config.BackendBadger:
		store, err = badgerstore.Open(badgerstore.Options{
			Path:       cfg.Badger.Path,
			InMemory:   cfg.Badger.InMemory,
			SyncWrites: cfg.Badger.SyncWrites,
			Logger:     logger,
		})
	case config.BackendMongo:
		store, err = mongostore.Connect(ctx, mongostore.Options{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			Timeout:  cfg.Mongo.Timeout,
		})
	case config.BackendRedis:
		store, err = redisstore.Connect(ctx, redisstore.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	case config.BackendREST:
		return nil, bperrors.Unsupported("rest backend at " + cfg.Rest.URL)
	default:
		return nil, bperrors.New(bperrors.ErrCodeInvalidInput, "unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, bperrors.Wrap(bperrors.ErrCodeInternal, err, "open %s backend", cfg.Backend)
	}

	logger.Debug("opened store", "backend", cfg.Backend)
	return docstore.Instrument(store), nil
}

// OpenGraph opens the configured store and builds a graph over it.
func OpenGraph(ctx context.Context, cfg config.Config, logger *log.Logger) (*docgraph.Graph, error) {
	store, err := Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return docgraph.New(store, docgraph.WithLogger(logger)), nil
}
