package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/summitline/trailprep/internal/store"
)

// openStore opens the run-history database at the configured path and applies
// the schema.
func openStore(ctx context.Context) (*store.SQLiteStore, error) {
	s, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close() //nolint:errcheck,gosec
		return nil, eris.Wrap(err, "migrate store")
	}
	return s, nil
}
