package main

import (
	"context"
	"strings"

	"go.uber.org/multierr"

	"github.com/your-org/internmatch/internal/recommend"
	"github.com/your-org/internmatch/internal/store"
)

// openStore returns the backend named by server.store.
func openStore(ctx context.Context) (store.Store, error) {
	if strings.EqualFold(cfg.Server.Store, "memory") {
		logger.Warn("Using in-memory store; accounts and shortlists are lost on exit")
		return store.NewMemory(), nil
	}
	return store.OpenSQLite(ctx, cfg.DatabasePath(), logger)
}

func recommenderSource() recommend.Source {
	return recommend.Source{
		ModelPath:   cfg.ModelPath(),
		CatalogPath: cfg.CatalogPath(),
		BatchSize:   cfg.Recommend.BatchSize,
		Logger:      logger,
	}
}

// closeAll closes every closer and combines their errors.
func closeAll(closers ...interface{ Close() error }) error {
	var err error
	for _, c := range closers {
		err = multierr.Append(err, c.Close())
	}
	return err
}
