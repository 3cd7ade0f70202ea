package config

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQuery = 200 * time.Millisecond

// DB is the process-wide local store (session record, saved vehicles).
var DB *gorm.DB

// InitDB opens the local store described by cfg and assigns DB. Query
// warnings go to log, never to stdout, so the console screen stays intact.
func InitDB(cfg DatabaseConfig, log *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(dialector(cfg), &gorm.Config{Logger: gormLogger(log)})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}
	DB = db
	return db, nil
}

func gormLogger(log *slog.Logger) logger.Interface {
	if log == nil {
		log = slog.Default()
	}
	return logger.New(
		slog.NewLogLogger(log.With(slog.String("component", "gorm")).Handler(), slog.LevelWarn),
		logger.Config{
			SlowThreshold:             slowQuery,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

func dialector(cfg DatabaseConfig) gorm.Dialector {
	if cfg.Driver == "mysql" {
		return mysql.Open(cfg.DSN)
	}
	dsn := cfg.DSN
	if dsn == "" || dsn == "memory" {
		dsn = "file::memory:?cache=shared"
	}
	return sqlite.Open(dsn)
}
