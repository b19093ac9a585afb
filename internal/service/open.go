package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/houseledger/internal/config"
	"github.com/roach88/houseledger/internal/housestore"
	"github.com/roach88/houseledger/internal/metrics"
	"github.com/roach88/houseledger/internal/store"
	"github.com/roach88/houseledger/internal/store/postgres"
)

// Backend is a durable journal that can also hand back and overwrite its
// full state.
type Backend interface {
	housestore.Journal
	housestore.Replacer
	Load(ctx context.Context) (housestore.Snapshot, error)
	Close() error
}

// OpenOptions tunes Open.
type OpenOptions struct {
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	// StoreOptions are passed to housestore.New, after the journal and
	// logger options Open sets itself.
	StoreOptions []housestore.Option
}

// Open builds a Service on the driver named in cfg.
func Open(ctx context.Context, cfg config.Config, opts OpenOptions) (*Service, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var backend Backend
	switch cfg.Driver {
	case config.DriverMemory, "":
	case config.DriverSQLite:
		s, err := store.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite journal: %w", err)
		}
		backend = s
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, cfg.PostgresDSN, logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres journal: %w", err)
		}
		backend = s
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}

	svc, err := OpenWithBackend(ctx, backend, opts)
	if err != nil {
		if backend != nil {
			backend.Close()
		}
		return nil, err
	}
	logger.Info("store opened", "driver", cfg.Driver, "houses", svc.Len())
	return svc, nil
}

// OpenWithBackend builds a Service journaled to backend, restoring the
// store from it first. A nil backend gives a purely in-memory service.
func OpenWithBackend(ctx context.Context, backend Backend, opts OpenOptions) (*Service, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	storeOpts := []housestore.Option{housestore.WithLogger(logger)}
	if backend != nil {
		storeOpts = append(storeOpts, housestore.WithJournal(backend))
	}
	hs := housestore.New(append(storeOpts, opts.StoreOptions...)...)

	if backend != nil {
		snap, err := backend.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load journal: %w", err)
		}
		if err := hs.Restore(snap); err != nil {
			return nil, fmt.Errorf("hydrate store: %w", err)
		}
	}

	svc := New(hs, opts.Metrics, logger)
	svc.backend = backend
	return svc, nil
}

// Close releases the backend, if any.
func (s *Service) Close() error {
	if s.backend == nil {
		return nil
	}
	return s.backend.Close()
}

// Export returns the complete current state.
func (s *Service) Export() housestore.Snapshot {
	return s.store.Snapshot()
}

// Import replaces the complete state with snap, in memory and in the
// backend, as one step. On error nothing changes.
func (s *Service) Import(ctx context.Context, snap housestore.Snapshot) error {
	if err := s.store.Import(ctx, snap); err != nil {
		return err
	}
	s.metrics.SetHouses(s.store.Len())
	s.logger.Info("snapshot imported", "houses", len(snap.Houses), "changes", len(snap.Ledger))
	return nil
}
