package fetcher

import (
	"context"
	"database/sql"
	"sync"
	"time"

	// Drivers selected by connection string.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"

	"github.com/spec-kit/project-docs/internal/domain"
)

// Opener opens a database handle; sql.Open in production.
type Opener func(driverName, dsn string) (*sql.DB, error)

const (
	maxIdleConnsPerHandle = 2
	maxConnIdleTime       = 5 * time.Minute
)

// SQLFetcher runs view queries against relational origins. Handles are pooled
// per connection string and reused across fetches; a handle that cannot reach
// its database is closed and dropped.
type SQLFetcher struct {
	open    Opener
	timeout time.Duration
	now     func() time.Time

	mu  sync.Mutex
	dbs map[string]*sql.DB
}

// NewSQLFetcher builds a fetcher bounded by timeout per statement.
func NewSQLFetcher(timeout time.Duration, open Opener) *SQLFetcher {
	if open == nil {
		open = sql.Open
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SQLFetcher{open: open, timeout: timeout, now: time.Now, dbs: make(map[string]*sql.DB)}
}

// Fetch executes the origin's view or statement and materializes every row.
func (f *SQLFetcher) Fetch(ctx context.Context, o SQLOrigin) (*Payload, error) {
	d, key, db, err := f.handle(o)
	if err != nil {
		return nil, err
	}
	stmt, args, err := buildStatement(d, o.ViewName, o.Parameters)
	if err != nil {
		return nil, newError(domain.OriginSQLSource, KindInvalidConfig, err, "cannot build statement")
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		f.evict(key, db)
		return nil, newError(domain.OriginSQLSource, classify(ctx, err, KindConnection), err, "cannot reach %s database", d.name)
	}

	rows, err := db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, newError(domain.OriginSQLSource, classify(ctx, err, KindQuery), err, "cannot query %s", o.ViewName)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, newError(domain.OriginSQLSource, classify(ctx, err, KindQuery), err, "cannot read rows of %s", o.ViewName)
	}

	return &Payload{
		Source:    domain.OriginSQLSource,
		View:      o.ViewName,
		FetchedAt: f.now().UTC(),
		Rows:      records,
	}, nil
}

// ViewExists reports whether the origin's view is listed in the catalog.
// Validation runs on a short-lived handle so unsaved connection strings are
// never pooled.
func (f *SQLFetcher) ViewExists(ctx context.Context, o SQLOrigin) (bool, error) {
	d, dsn, err := detectDialect(o.ConnectionString)
	if err != nil {
		return false, newError(domain.OriginSQLSource, KindInvalidConfig, err, "invalid connection string")
	}
	db, err := f.open(d.driver, dsn)
	if err != nil {
		return false, newError(domain.OriginSQLSource, KindConnection, err, "cannot open %s database", d.name)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var count int
	err = db.QueryRowContext(ctx, viewExistsQuery(d), viewExistsArg(d, tableName(o.ViewName))).Scan(&count)
	if err != nil {
		return false, newError(domain.OriginSQLSource, classify(ctx, err, KindQuery), err, "cannot inspect catalog")
	}
	return count > 0, nil
}

// Close releases every pooled handle.
func (f *SQLFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var firstErr error
	for key, db := range f.dbs {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(f.dbs, key)
	}
	return firstErr
}

func (f *SQLFetcher) handle(o SQLOrigin) (dialect, string, *sql.DB, error) {
	d, dsn, err := detectDialect(o.ConnectionString)
	if err != nil {
		return dialect{}, "", nil, newError(domain.OriginSQLSource, KindInvalidConfig, err, "invalid connection string")
	}

	key := d.driver + "|" + dsn
	f.mu.Lock()
	defer f.mu.Unlock()
	if db, ok := f.dbs[key]; ok {
		return d, key, db, nil
	}
	db, err := f.open(d.driver, dsn)
	if err != nil {
		return dialect{}, "", nil, newError(domain.OriginSQLSource, KindConnection, err, "cannot open %s database", d.name)
	}
	db.SetMaxIdleConns(maxIdleConnsPerHandle)
	db.SetConnMaxIdleTime(maxConnIdleTime)
	f.dbs[key] = db
	return d, key, db, nil
}

// evict closes db and forgets it, unless key was already replaced.
func (f *SQLFetcher) evict(key string, db *sql.DB) {
	f.mu.Lock()
	if f.dbs[key] == db {
		delete(f.dbs, key)
	}
	f.mu.Unlock()
	_ = db.Close()
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0)
	for rows.Next() {
		raw := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		record := make(Record, len(columns))
		for i, name := range columns {
			record[i] = Field{Name: name, Value: ValueOf(raw[i])}
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
