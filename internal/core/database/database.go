// Package database opens the gorm connection backing the entity store.
package database

import (
	"fmt"
	"time"

	"cargo-pipeline/internal/core/config"
	"cargo-pipeline/internal/core/logger"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

// Open connects to postgres, retrying while the database comes up.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	log := logger.Named("database")

	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
			Logger: NewGormLogger(log, 200*time.Millisecond),
		})
		if err == nil {
			log.Info("Connected to database",
				zap.String("host", cfg.Host),
				zap.String("database", cfg.Name),
			)
			return db, nil
		}

		lastErr = err
		log.Warn("Database connection attempt failed",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		time.Sleep(connectBackoff)
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", connectAttempts, lastErr)
}
