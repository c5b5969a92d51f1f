// Package database opens the relational store shared by every repository
// and carries gorm transactions through context.Context.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/identity-service/internal"
	tokenDatamodel "github.com/frahmantamala/identity-service/internal/core/datamodel/token"
	userDatamodel "github.com/frahmantamala/identity-service/internal/core/datamodel/user"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const pgxDriver = "pgx"

// DB bundles the pooled connection and the gorm handle built on top of it.
// Close only needs to be called on the pool.
type DB struct {
	Pool *sqlx.DB
	Gorm *gorm.DB
}

func (d *DB) Close() error {
	if d.Pool != nil {
		return d.Pool.Close()
	}
	sqlDB, err := d.Gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *DB) PingContext(ctx context.Context) error {
	if d.Pool != nil {
		return d.Pool.PingContext(ctx)
	}
	sqlDB, err := d.Gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Open connects to the configured store. PostgreSQL goes through a pgx-backed
// sqlx pool that gorm reuses; sqlite is meant for local runs and tests.
func Open(cfg internal.DatabaseConfig, lg *slog.Logger) (*DB, error) {
	gormCfg := &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}

	switch cfg.Driver {
	case "sqlite":
		gdb, err := gorm.Open(sqlite.Open(cfg.GetDSN()), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		// a single connection keeps in-memory databases coherent
		sqlDB.SetMaxOpenConns(1)
		return &DB{Gorm: gdb}, nil
	default:
		pool, err := sqlx.Connect(pgxDriver, cfg.GetDSN())
		if err != nil {
			return nil, fmt.Errorf("failed to open db connection: %w", err)
		}

		pool.SetMaxOpenConns(cfg.MaxOpenConns)
		pool.SetMaxIdleConns(cfg.MaxIdleConns)
		pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		pool.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

		gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: pool.DB}), gormCfg)
		if err != nil {
			_ = pool.Close()
			return nil, fmt.Errorf("failed to open gorm on pool: %w", err)
		}

		lg.Info("database connected", "driver", pgxDriver, "max_open_conns", cfg.MaxOpenConns)
		return &DB{Pool: pool, Gorm: gdb}, nil
	}
}

// AutoMigrate creates the schema from the data models. PostgreSQL deployments
// use the goose migrations instead; this serves sqlite.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&userDatamodel.User{},
		&userDatamodel.Permission{},
		&userDatamodel.UserPermission{},
		&tokenDatamodel.RefreshToken{},
	)
}
