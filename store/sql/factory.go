package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-wallets/migrations"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

type RepositoryFactory struct {
	db      *bun.DB
	storage *Storage
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStorage(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStorage(db); err != nil {
		return nil, err
	}
	return factory, nil
}

// BuildStorage accepts a *bun.DB or anything exposing DB() *bun.DB.
func (f *RepositoryFactory) BuildStorage(persistenceClient any) (*Storage, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.storage != nil {
		return f.storage, nil
	}
	storage, err := NewStorage(f.db)
	if err != nil {
		return nil, err
	}
	f.storage = storage
	return storage, nil
}

func (f *RepositoryFactory) Storage() *Storage {
	if f == nil {
		return nil
	}
	return f.storage
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}

// Config describes a database to open with Open. It also satisfies the
// go-persistence-bun client config contract.
type Config struct {
	Driver         string
	DSN            string
	Debug          bool
	PingTimeout    time.Duration
	OtelIdentifier string
	// SkipMigrations leaves schema management to the caller.
	SkipMigrations bool
	// MigrationsFS replaces the embedded migration tree. It must hold
	// data/sql/migrations with a sqlite directory.
	MigrationsFS fs.FS
}

func (c Config) GetDebug() bool {
	return c.Debug
}

func (c Config) GetDriver() string {
	return c.Driver
}

func (c Config) GetServer() string {
	return c.DSN
}

func (c Config) GetPingTimeout() time.Duration {
	if c.PingTimeout <= 0 {
		return 5 * time.Second
	}
	return c.PingTimeout
}

func (c Config) GetOtelIdentifier() string {
	if strings.TrimSpace(c.OtelIdentifier) == "" {
		return "go-wallets"
	}
	return c.OtelIdentifier
}

// Open connects to the configured database, applies the wallet_state
// migrations for its dialect and returns the client with a ready Storage.
// Closing the client is the caller's job.
func Open(ctx context.Context, cfg Config) (*persistence.Client, *Storage, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlstore: dsn is required")
	}
	driver, dialect, migrationDialect, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, nil, err
	}
	cfg.Driver = driver

	sqlDB, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlstore: open %s: %w", cfg.Driver, err)
	}
	if cfg.Driver == DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	}

	client, err := persistence.New(cfg, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("sqlstore: new persistence client: %w", err)
	}

	if !cfg.SkipMigrations {
		fsys, err := migrations.ForDialect(migrationDialect, migrations.WithSource(cfg.MigrationsFS))
		if err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("sqlstore: resolve migrations: %w", err)
		}
		client.RegisterSQLMigrations(fsys)
		if err := client.Migrate(ctx); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("sqlstore: migrate: %w", err)
		}
	}

	factory, err := NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return client, factory.Storage(), nil
}

func dialectFor(driver string) (string, schema.Dialect, string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverSQLite, "sqlite":
		return DriverSQLite, sqlitedialect.New(), migrations.DialectSQLite, nil
	case DriverPostgres, "postgresql":
		return DriverPostgres, pgdialect.New(), migrations.DialectPostgres, nil
	default:
		return "", nil, "", fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
}
