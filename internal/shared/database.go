package shared

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

const (
	// DriverCGO is the mattn/go-sqlite3 driver name.
	DriverCGO = "sqlite3"
	// DriverPure is the modernc.org/sqlite driver name.
	DriverPure = "sqlite"
)

// NewDatabase opens a connection to a SQLite database at the specified path using the default driver.
// The path can be ":memory:" for an in-memory database.
func NewDatabase(path string) (*sql.DB, error) {
	return NewDatabaseWithDriver(DriverCGO, path)
}

// NewDatabaseWithDriver opens a SQLite database with the named driver and enables foreign keys.
//
// Parent directories of file-backed databases are created as needed.
func NewDatabaseWithDriver(driver, path string) (*sql.DB, error) {
	switch driver {
	case "":
		driver = DriverCGO
	case DriverCGO, DriverPure:
	default:
		return nil, fmt.Errorf("%w: unknown database driver %q", ErrInvalidConfig, driver)
	}

	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("%w: failed to create database directory: %v", ErrDatabase, err)
			}
		}
	}

	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %v", ErrDatabase, err)
	}

	// In-memory databases are per connection.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to ping database: %v", ErrDatabase, err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to enable foreign keys: %v", ErrDatabase, err)
	}

	return db, nil
}

// OpenDatabase opens the database described by cfg, applies pool settings and runs pending migrations.
func OpenDatabase(cfg DatabaseConfig) (*sql.DB, error) {
	db, err := NewDatabaseWithDriver(cfg.Driver, cfg.Path)
	if err != nil {
		return nil, err
	}

	if cfg.Path != ":memory:" {
		ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return db, nil
}

// ConfigureDatabase sets connection pool settings for the database.
//
// SQLite serialises writers, so a single open connection is the usual setting.
func ConfigureDatabase(db *sql.DB, maxOpenConns, maxIdleConns int) {
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}
}
