package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/noah-isme/unitime-api/pkg/config"
)

// DSN renders the lib/pq connection string for cfg.
func DSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)
}

// NewPostgres returns a configured PostgreSQL client.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", DSN(cfg))
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// MigrationCommand names a goose action supported by Migrate.
type MigrationCommand string

const (
	MigrateUp     MigrationCommand = "up"
	MigrateDown   MigrationCommand = "down"
	MigrateStatus MigrationCommand = "status"
)

// Migrate runs goose against the migrations in fsys. dir overrides fsys with an on-disk directory.
func Migrate(db *sql.DB, fsys fs.FS, dir string, command MigrationCommand) error {
	if dir == "" {
		goose.SetBaseFS(fsys)
		dir = "."
	} else {
		goose.SetBaseFS(nil)
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	switch command {
	case MigrateUp:
		return goose.Up(db, dir)
	case MigrateDown:
		return goose.Down(db, dir)
	case MigrateStatus:
		return goose.Status(db, dir)
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
}
