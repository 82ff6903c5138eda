// Package corpus persists failing property test seeds so later runs can
// replay them before generating new cases.
//
// A corpus lives in a SQL database selected by URL scheme:
// sqlite://path/to/corpus.db, postgres://... or mysql://...
package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/shipq/propcheck/proptest"
)

const tableName = "propcheck_corpus"

// ErrNotFound is returned when an entry does not exist.
var ErrNotFound = errors.New("corpus entry not found")

// Entry is one recorded failure. Entries are unique per test name and
// counterexample fingerprint; recording the same failure again bumps Hits.
type Entry struct {
	ID             int64           `json:"id"`
	TestName       string          `json:"test_name"`
	Seed           int64           `json:"seed"`
	Fingerprint    string          `json:"fingerprint"`
	Kind           proptest.Kind   `json:"kind"`
	Message        string          `json:"message"`
	Counterexample json.RawMessage `json:"counterexample"`
	Hits           int             `json:"hits"`
	FirstSeen      time.Time       `json:"first_seen"`
	LastSeen       time.Time       `json:"last_seen"`
}

// Store is a failure corpus backed by a SQL database.
type Store struct {
	db      *sql.DB
	dialect string
	now     func() time.Time
}

// Open connects to the corpus at dbURL and creates its table if needed.
func Open(ctx context.Context, dbURL string) (*Store, error) {
	dialect, driver, dsn, err := driverSource(dbURL)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s corpus: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// modernc sqlite serializes writers; a single connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s corpus: %w", dialect, err)
	}

	s := &Store{db: db, dialect: dialect, now: time.Now}
	if err := s.ensureTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Dialect returns the database dialect of the store.
func (s *Store) Dialect() string { return s.dialect }

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) ensureTable(ctx context.Context) error {
	var createSQL string

	switch s.dialect {
	case DialectPostgres:
		createSQL = `
			CREATE TABLE IF NOT EXISTS propcheck_corpus (
				id             BIGSERIAL PRIMARY KEY,
				test_name      VARCHAR(255) NOT NULL,
				seed           BIGINT NOT NULL,
				fingerprint    CHAR(64) NOT NULL,
				kind           VARCHAR(64) NOT NULL,
				message        TEXT NOT NULL,
				counterexample TEXT NOT NULL,
				hits           INTEGER NOT NULL DEFAULT 1,
				first_seen     BIGINT NOT NULL,
				last_seen      BIGINT NOT NULL,
				UNIQUE (test_name, fingerprint)
			)`
	case DialectMySQL:
		createSQL = `
			CREATE TABLE IF NOT EXISTS propcheck_corpus (
				id             BIGINT AUTO_INCREMENT PRIMARY KEY,
				test_name      VARCHAR(255) NOT NULL,
				seed           BIGINT NOT NULL,
				fingerprint    CHAR(64) NOT NULL,
				kind           VARCHAR(64) NOT NULL,
				message        TEXT NOT NULL,
				counterexample MEDIUMTEXT NOT NULL,
				hits           INT NOT NULL DEFAULT 1,
				first_seen     BIGINT NOT NULL,
				last_seen      BIGINT NOT NULL,
				UNIQUE KEY test_fingerprint (test_name, fingerprint)
			)`
	case DialectSQLite:
		createSQL = `
			CREATE TABLE IF NOT EXISTS propcheck_corpus (
				id             INTEGER PRIMARY KEY AUTOINCREMENT,
				test_name      TEXT NOT NULL,
				seed           INTEGER NOT NULL,
				fingerprint    TEXT NOT NULL,
				kind           TEXT NOT NULL,
				message        TEXT NOT NULL,
				counterexample TEXT NOT NULL,
				hits           INTEGER NOT NULL DEFAULT 1,
				first_seen     INTEGER NOT NULL,
				last_seen      INTEGER NOT NULL,
				UNIQUE (test_name, fingerprint)
			)`
	default:
		return fmt.Errorf("%w: %s", ErrUnknownDialect, s.dialect)
	}

	if _, err := s.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to create %s table: %w", tableName, err)
	}
	return nil
}

// Record stores the counterexample of a failed result. The boolean reports
// whether anything was recorded; successful results are ignored.
func (s *Store) Record(ctx context.Context, res *proptest.Result) (Entry, bool, error) {
	if res == nil || res.Success {
		return Entry{}, false, nil
	}
	inputs, ok := res.Counterexample()
	if !ok {
		return Entry{}, false, nil
	}
	fingerprint, ok := proptest.Fingerprint(inputs)
	if !ok {
		return Entry{}, false, fmt.Errorf("counterexample of %q is not JSON encodable", res.TestName)
	}
	data, err := json.Marshal(inputs)
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to encode counterexample: %w", err)
	}

	var kind proptest.Kind
	var message string
	if f := res.FirstFailure(); f != nil && f.Error != nil {
		kind, message = f.Error.Kind(), f.Error.Message()
	}
	now := s.now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx,
		s.q("SELECT id FROM propcheck_corpus WHERE test_name = ? AND fingerprint = ?"),
		res.TestName, fingerprint).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id, err = s.insert(ctx, tx, res.TestName, res.Seed, fingerprint, string(kind), message, string(data), now)
		if err != nil {
			return Entry{}, false, err
		}
	case err != nil:
		return Entry{}, false, fmt.Errorf("failed to look up corpus entry: %w", err)
	default:
		_, err = tx.ExecContext(ctx,
			s.q("UPDATE propcheck_corpus SET hits = hits + 1, seed = ?, kind = ?, message = ?, last_seen = ? WHERE id = ?"),
			res.Seed, string(kind), message, now.UnixMilli(), id)
		if err != nil {
			return Entry{}, false, fmt.Errorf("failed to update corpus entry %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Entry{}, false, fmt.Errorf("failed to commit corpus entry: %w", err)
	}

	entry, err := s.Get(ctx, id)
	if err != nil {
		return Entry{}, false, err
	}
	return entry, true, nil
}

func (s *Store) insert(ctx context.Context, tx *sql.Tx, testName string, seed int64, fingerprint, kind, message, data string, now time.Time) (int64, error) {
	insertSQL := `INSERT INTO propcheck_corpus
		(test_name, seed, fingerprint, kind, message, counterexample, hits, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`
	args := []interface{}{testName, seed, fingerprint, kind, message, data, now.UnixMilli(), now.UnixMilli()}

	if s.dialect == DialectPostgres {
		var id int64
		if err := tx.QueryRowContext(ctx, s.q(insertSQL+" RETURNING id"), args...).Scan(&id); err != nil {
			return 0, fmt.Errorf("failed to insert corpus entry: %w", err)
		}
		return id, nil
	}

	result, err := tx.ExecContext(ctx, insertSQL, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert corpus entry: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read corpus entry id: %w", err)
	}
	return id, nil
}

// Seeds returns the recorded seeds for a test, oldest first, without
// duplicates.
func (s *Store) Seeds(ctx context.Context, testName string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q("SELECT seed FROM propcheck_corpus WHERE test_name = ? ORDER BY first_seen, id"), testName)
	if err != nil {
		return nil, fmt.Errorf("failed to query seeds: %w", err)
	}
	defer rows.Close()

	seen := make(map[int64]bool)
	var seeds []int64
	for rows.Next() {
		var seed int64
		if err := rows.Scan(&seed); err != nil {
			return nil, fmt.Errorf("failed to scan seed: %w", err)
		}
		if !seen[seed] {
			seen[seed] = true
			seeds = append(seeds, seed)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating seeds: %w", err)
	}
	return seeds, nil
}

const selectEntry = `SELECT id, test_name, seed, fingerprint, kind, message, counterexample, hits, first_seen, last_seen FROM propcheck_corpus`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var e Entry
	var kind, data string
	var first, last int64
	if err := row.Scan(&e.ID, &e.TestName, &e.Seed, &e.Fingerprint, &kind, &e.Message, &data, &e.Hits, &first, &last); err != nil {
		return Entry{}, err
	}
	e.Kind = proptest.Kind(kind)
	e.Counterexample = json.RawMessage(data)
	e.FirstSeen = time.UnixMilli(first).UTC()
	e.LastSeen = time.UnixMilli(last).UTC()
	return e, nil
}

// List returns entries ordered by test name and first sighting. An empty
// testName lists the whole corpus.
func (s *Store) List(ctx context.Context, testName string) ([]Entry, error) {
	query := selectEntry
	var args []interface{}
	if testName != "" {
		query += " WHERE test_name = ?"
		args = append(args, testName)
	}
	query += " ORDER BY test_name, first_seen, id"

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query corpus: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan corpus entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating corpus: %w", err)
	}
	return entries, nil
}

// Get returns the entry with the given id.
func (s *Store) Get(ctx context.Context, id int64) (Entry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx, s.q(selectEntry+" WHERE id = ?"), id))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to get corpus entry %d: %w", id, err)
	}
	return e, nil
}

// Delete removes the entry with the given id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.q("DELETE FROM propcheck_corpus WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete corpus entry %d: %w", id, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}

// DeleteSeed removes every entry recorded for testName under seed and
// returns how many were removed.
func (s *Store) DeleteSeed(ctx context.Context, testName string, seed int64) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		s.q("DELETE FROM propcheck_corpus WHERE test_name = ? AND seed = ?"), testName, seed)
	if err != nil {
		return 0, fmt.Errorf("failed to delete seed %d of %q: %w", seed, testName, err)
	}
	return result.RowsAffected()
}

// Prune removes entries last seen before cutoff and returns how many were
// removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		s.q("DELETE FROM propcheck_corpus WHERE last_seen < ?"), cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune corpus: %w", err)
	}
	return result.RowsAffected()
}

func (s *Store) q(query string) string {
	return rebind(s.dialect, query)
}
