package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"yada/config"
	"yada/internal/adapter/memstore"
	"yada/internal/adapter/source"
	"yada/internal/adapter/sqlstore"
	"yada/internal/adapter/store"
	"yada/internal/port"
	"yada/internal/usecase"
)

// openStore opens the configured backend under the project's data dir.
func openStore(cfg *config.Config, dir string) (port.Store, error) {
	if cfg.Storage.Driver == "memory" {
		return memstore.NewMemoryStore(), nil
	}

	if err := cfg.EnsureDataDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	path := cfg.StorePath(dir)

	switch cfg.Storage.Driver {
	case "sqlite":
		return sqlstore.New(path)
	default:
		st, err := store.NewBoltStore(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		return st, nil
	}
}

func sessionOptions(cfg *config.Config) (usecase.SessionOptions, error) {
	mode, err := usecase.ParseResolutionMode(cfg.Catalog.Resolution)
	if err != nil {
		return usecase.SessionOptions{}, err
	}
	opts := usecase.SessionOptions{
		Resolution:      mode,
		SearchCacheSize: cfg.Catalog.SearchCacheSize,
		SearchCacheTTL:  cfg.Catalog.SearchCacheTTL,
		HistoryLimit:    cfg.Profile.HistoryLimit,
	}
	if cfg.Catalog.SeedSample {
		opts.Seed = source.Sample()
	}
	return opts, nil
}

// runSession loads the configured user's session, runs fn and, when save is
// set and fn succeeds, writes the session back.
func runSession(cmd *cobra.Command, save bool, fn func(ctx context.Context, s *usecase.Session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := GetConfig()

	opts, err := sessionOptions(cfg)
	if err != nil {
		return err
	}

	st, err := openStore(cfg, GetRootDir())
	if err != nil {
		return err
	}
	defer st.Close()

	s := usecase.NewSession(cfg.User, opts)
	if err := s.Load(ctx, st); err != nil {
		return err
	}

	if err := fn(ctx, s); err != nil {
		return err
	}
	if !save {
		return nil
	}
	return s.Save(ctx, st)
}
