package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"fund-economics-lab/internal/config"
	"fund-economics-lab/internal/storage"
	chstore "fund-economics-lab/internal/storage/clickhouse"
	"fund-economics-lab/internal/storage/memory"
	"fund-economics-lab/internal/storage/migrations"
	pgstore "fund-economics-lab/internal/storage/postgres"
)

// stores bundles the run stores selected by configuration.
type stores struct {
	runs      storage.RunStore
	scenarios storage.ScenarioResultStore
	fees      storage.FeeProjectionStore
	steps     storage.WaterfallStepStore

	closers []func()
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStores connects and migrates the configured backends. Fee and step rows
// go to ClickHouse when a DSN is set and stay in memory otherwise.
func openStores(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*stores, error) {
	s := &stores{}

	switch cfg.Kind {
	case config.StoreMemory:
		s.runs = memory.NewRunStore()
		s.scenarios = memory.NewScenarioResultStore()
	case config.StorePostgres:
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		s.closers = append(s.closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			s.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		s.runs = pgstore.NewRunStore(pool)
		s.scenarios = pgstore.NewScenarioResultStore(pool)
		logger.Info("postgres store ready")
	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
	}

	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("migrate clickhouse: %w", err)
		}
		s.closers = append(s.closers, func() {
			if err := conn.Close(); err != nil {
				logger.Warn("close clickhouse", zap.Error(err))
			}
		})
		s.fees = chstore.NewFeeProjectionStore(conn)
		s.steps = chstore.NewWaterfallStepStore(conn)
		logger.Info("clickhouse store ready")
	} else {
		s.fees = memory.NewFeeProjectionStore()
		s.steps = memory.NewWaterfallStepStore()
	}

	return s, nil
}
