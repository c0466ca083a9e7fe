package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/tendant/simple-idm-mfa/pkg/repository/migrations"
)

// Dialect selects the SQL flavour and driver.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// Config holds database connection settings.
type Config struct {
	Driver     Dialect
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
}

// DB is a connection pool that knows its dialect.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// NewDB opens and pings the database described by cfg.
func NewDB(cfg Config) (*DB, error) {
	var (
		db  *sql.DB
		err error
	)

	switch cfg.Driver {
	case DialectPostgres:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	case DialectSQLite:
		db, err = sql.Open("sqlite", cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		// SQLite has a single writer; one connection also keeps :memory:
		// databases shared across queries.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, Dialect: cfg.Driver}, nil
}

// Migrate applies any pending embedded migrations.
func (db *DB) Migrate() error {
	var (
		driver database.Driver
		dir    string
		err    error
	)

	switch db.Dialect {
	case DialectPostgres:
		driver, err = postgres.WithInstance(db.DB, &postgres.Config{})
		dir = "postgres"
	case DialectSQLite:
		driver, err = sqlite.WithInstance(db.DB, &sqlite.Config{})
		dir = "sqlite"
	default:
		return fmt.Errorf("unsupported database driver %q", db.Dialect)
	}
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	fs := migrations.SQLite
	if db.Dialect == DialectPostgres {
		fs = migrations.Postgres
	}
	source, err := iofs.New(fs, dir)
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, string(db.Dialect), driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

var placeholder = regexp.MustCompile(`\$(\d+)`)

// rebind rewrites $N placeholders to ?N for SQLite. Numbered parameters keep
// their position, so queries may reuse or reorder them.
func (db *DB) rebind(query string) string {
	if db.Dialect != DialectSQLite {
		return query
	}
	return placeholder.ReplaceAllString(query, "?${1}")
}

// Tx runs fn in a transaction, committing on success.
func Tx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// HasTable reports whether the named table exists.
func (db *DB) HasTable(ctx context.Context, name string) (bool, error) {
	query := `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1`
	if db.Dialect == DialectSQLite {
		query = `SELECT name FROM sqlite_master WHERE type = 'table' AND name = $1`
	}

	var found string
	err := db.QueryRowContext(ctx, db.rebind(query), name).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", name, err)
	}
	return true, nil
}
