package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ralph-xpert/internal/config"
	"ralph-xpert/internal/models"
)

// Open returns the backend selected by cfg.StorageDriver. The configured
// admin is seeded only when the admin collection is created, so an existing
// admin.json or admin_users table is never rewritten.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Store, error) {
	admin := models.AdminUser{
		Username: cfg.AdminUsername,
		Password: cfg.AdminPassword,
	}

	var (
		s   Store
		err error
	)
	switch cfg.StorageDriver {
	case "", config.DriverJSON:
		s, err = NewJSONStore(cfg.DataDir, WithLogger(logger), WithBootstrapAdmin(admin))
	case config.DriverSQLite:
		s, err = openSQL(logger, func() (*SQLStore, error) {
			db, err := OpenSQLite(cfg.DBPath)
			if err != nil {
				return nil, err
			}
			return NewSQLStore(db, nil, WithSeedAdmin(admin))
		})
	case config.DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
		s, err = openSQL(logger, func() (*SQLStore, error) {
			db, err := OpenPostgres(cfg.DatabaseURL)
			if err != nil {
				return nil, err
			}
			return NewSQLStore(db, nil, WithSeedAdmin(admin))
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("Storage initialized", zap.String("driver", cfg.StorageDriver))
	return s, nil
}

func openSQL(logger *zap.Logger, open func() (*SQLStore, error)) (Store, error) {
	s, err := open()
	if err != nil {
		return nil, err
	}
	if s.Seeded() {
		logger.Info("Bootstrap admin account created", zap.String("username", s.seed.Username))
	}
	return s, nil
}
