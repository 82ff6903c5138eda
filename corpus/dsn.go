package corpus

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Supported database dialects
const (
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
	DialectSQLite   = "sqlite"
)

var (
	ErrUnknownDialect = errors.New("unknown database dialect")
	ErrInvalidURL     = errors.New("invalid database URL")
)

// InferDialect returns the dialect ("postgres", "mysql", or "sqlite")
// based on the URL scheme.
func InferDialect(dbURL string) (string, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	scheme := strings.ToLower(u.Scheme)
	switch scheme {
	case "postgres", "postgresql":
		return DialectPostgres, nil
	case "mysql":
		return DialectMySQL, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDialect, scheme)
	}
}

// BuildSQLiteURL constructs a SQLite connection URL.
// Format: sqlite:///path/to/file.db
func BuildSQLiteURL(path string) string {
	if strings.HasPrefix(path, "/") {
		return "sqlite://" + path
	}
	return "sqlite:" + path
}

// SQLiteURLToPath extracts the file path from a SQLite URL.
func SQLiteURLToPath(sqliteURL string) string {
	for _, prefix := range []string{"sqlite3://", "sqlite://", "sqlite3:", "sqlite:"} {
		if rest, ok := strings.CutPrefix(sqliteURL, prefix); ok {
			return rest
		}
	}
	return sqliteURL
}

// MySQLURLToDSN converts a mysql:// URL to a MySQL driver DSN.
// Format: user:password@tcp(host:port)/dbname?parseTime=true
func MySQLURLToDSN(mysqlURL string) (string, error) {
	u, err := url.Parse(mysqlURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.User == nil || u.User.Username() == "" {
		return "", fmt.Errorf("%w: mysql URL is missing a user", ErrInvalidURL)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: mysql URL is missing a host", ErrInvalidURL)
	}

	creds := u.User.Username()
	if pw, ok := u.User.Password(); ok {
		creds += ":" + pw
	}

	host := u.Host
	if u.Port() == "" {
		host += ":3306"
	}

	query := u.Query()
	query.Set("parseTime", "true")

	return fmt.Sprintf("%s@tcp(%s)/%s?%s", creds, host, strings.TrimPrefix(u.Path, "/"), query.Encode()), nil
}

// driverSource maps a corpus URL to a database/sql driver name and
// data source name.
func driverSource(dbURL string) (dialect, driver, dsn string, err error) {
	dialect, err = InferDialect(dbURL)
	if err != nil {
		return "", "", "", err
	}

	switch dialect {
	case DialectPostgres:
		return dialect, "pgx", dbURL, nil
	case DialectMySQL:
		dsn, err := MySQLURLToDSN(dbURL)
		if err != nil {
			return "", "", "", err
		}
		return dialect, "mysql", dsn, nil
	default:
		path := SQLiteURLToPath(dbURL)
		if path == "" {
			return "", "", "", fmt.Errorf("%w: sqlite URL has no path", ErrInvalidURL)
		}
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return "", "", "", fmt.Errorf("failed to create corpus directory: %w", err)
			}
		}
		return dialect, "sqlite", path, nil
	}
}

// rebind rewrites ? placeholders as $1, $2, ... for postgres.
func rebind(dialect, query string) string {
	if dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
