package store

import (
	"errors"
	"fmt"
	"io"

	"taxi-insights-api/analytics"
	"taxi-insights-api/config"

	"go.uber.org/zap"
)

// Backend is a Store that holds resources until closed.
type Backend interface {
	analytics.Store
	io.Closer
}

// Open builds the backend selected by cfg.Backend.
func Open(cfg config.StoreConfig, db config.DatabaseConfig, logger *zap.Logger) (Backend, error) {
	switch cfg.Backend {
	case "", "postgres":
		p, err := OpenPostgres(db, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "memory":
		if cfg.TripsCSV == "" {
			return nil, errors.New("memory backend requires TRIPS_CSV")
		}
		m, skipped, err := LoadMemory(cfg.TripsCSV)
		if err != nil {
			return nil, fmt.Errorf("load trips: %w", err)
		}
		logger.Info("trips loaded",
			zap.String("path", cfg.TripsCSV),
			zap.Int("trips", m.Len()),
			zap.Int("skipped", skipped))
		return m, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
