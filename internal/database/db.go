package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	pingTimeout = 5 * time.Second
)

var errClosed = errors.New("database handle is closed")

// DB is a reconnectable handle to the task store
type DB struct {
	mu      sync.RWMutex
	conn    *sql.DB
	driver  string
	dsn     string
	dialect dialect
}

// New opens a connection to the task store and verifies it with a ping
func New(driver, databaseURL string) (*DB, error) {
	db, err := Open(driver, databaseURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Open prepares a pool without contacting the store. Only an unknown driver
// fails; an unreachable store surfaces on the first query and is recovered
// with Reconnect.
func Open(driver, databaseURL string) (*DB, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	db := &DB{
		driver:  driver,
		dsn:     d.dsn(databaseURL),
		dialect: d,
	}

	conn, err := db.pool()
	if err != nil {
		return nil, err
	}
	db.conn = conn

	return db, nil
}

func (db *DB) pool() (*sql.DB, error) {
	conn, err := sql.Open(db.driver, db.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if db.driver == DriverSQLite {
		// SQLite only supports one writer at a time
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
	}
	return conn, nil
}

func (db *DB) open(ctx context.Context) (*sql.DB, error) {
	conn, err := db.pool()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return conn, nil
}

// Reconnect drops the current pool and opens a fresh one. On failure the old
// pool is kept so later queries can still succeed once the store is back.
// A SQLite store reached for the first time here also gets its schema.
func (db *DB) Reconnect(ctx context.Context) error {
	conn, err := db.open(ctx)
	if err != nil {
		return &StoreError{Op: "reconnect", Err: err}
	}

	db.mu.Lock()
	old := db.conn
	db.conn = conn
	db.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}

	if err := db.EnsureSchema(ctx); err != nil {
		return &StoreError{Op: "reconnect", Err: err}
	}
	return nil
}

func (db *DB) current() *sql.DB {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.conn
}

// Driver returns the database/sql driver name in use
func (db *DB) Driver() string {
	return db.driver
}

// QueryContext runs a query on the current pool
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	conn := db.current()
	if conn == nil {
		return nil, errClosed
	}
	return conn.QueryContext(ctx, query, args...)
}

// ExecContext runs a statement on the current pool
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	conn := db.current()
	if conn == nil {
		return nil, errClosed
	}
	return conn.ExecContext(ctx, query, args...)
}

// PingContext verifies the store is reachable
func (db *DB) PingContext(ctx context.Context) error {
	conn := db.current()
	if conn == nil {
		return errClosed
	}
	return conn.PingContext(ctx)
}

// Close closes the current pool
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.conn == nil {
		return nil
	}
	err := db.conn.Close()
	db.conn = nil
	return err
}

// EnsureSchema creates the tasks table on SQLite. Postgres schemas belong to the
// task backend and are left untouched.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if db.driver != DriverSQLite {
		return nil
	}
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		title       TEXT NOT NULL,
		description TEXT,
		due_date    DATETIME,
		status      TEXT NOT NULL DEFAULT 'pending',
		priority    TEXT NOT NULL DEFAULT 'normal'
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_status_due ON tasks(status, due_date);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create tasks schema: %w", err)
	}
	return nil
}

// sqliteDueInstant renders due_date as UTC text with millisecond precision so
// values stored with an offset, a T separator or as unix seconds compare as instants
const sqliteDueInstant = `(CASE WHEN typeof(due_date) = 'integer'
	THEN strftime('%Y-%m-%d %H:%M:%f', due_date, 'unixepoch')
	ELSE strftime('%Y-%m-%d %H:%M:%f', due_date) END)`

const sqliteInstantLayout = "2006-01-02 15:04:05.000"

// dialect captures the SQL differences between the supported drivers
type dialect struct {
	name string
	like string
	// due is the expression used to filter and order by due_date
	due string
	dsn func(string) string
}

// instant converts a time into the argument compared against the due expression
func (d dialect) instant(t time.Time) any {
	if d.name == DriverSQLite {
		return t.UTC().Format(sqliteInstantLayout)
	}
	return t.UTC()
}

func (d dialect) placeholder(n int) string {
	if d.name == DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverPostgres:
		return dialect{
			name: DriverPostgres,
			like: "ILIKE",
			due:  "due_date",
			dsn:  func(url string) string { return url },
		}, nil
	case DriverSQLite:
		return dialect{
			name: DriverSQLite,
			like: "LIKE",
			due:  sqliteDueInstant,
			dsn:  sqliteDSN,
		}, nil
	default:
		return dialect{}, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// sqliteDSN makes the driver write time.Time values in a layout strftime can parse
func sqliteDSN(url string) string {
	if strings.Contains(url, "_time_format=") {
		return url
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "_time_format=sqlite"
}
