package sqlstore

import (
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	sqliteName   = "sqlite"
	postgresName = "postgres"
)

// Dialect captures the differences between the supported SQL engines.
type Dialect struct {
	name      string
	driver    string
	numbered  bool   // $1, $2 placeholders instead of ?
	forUpdate string // row lock clause for the delete guard
	forShare  string // row lock clause when referencing a category
}

var (
	SQLite = Dialect{name: sqliteName, driver: "sqlite"}
	// Postgres runs through pgx's database/sql adapter.
	Postgres = Dialect{name: postgresName, driver: "pgx", numbered: true, forUpdate: " FOR UPDATE", forShare: " FOR SHARE"}
)

// DialectFor maps a backend name to its dialect.
func DialectFor(backend string) (Dialect, bool) {
	switch strings.ToLower(backend) {
	case sqliteName, "sqlite3":
		return SQLite, true
	case postgresName, "postgresql", "pgx":
		return Postgres, true
	default:
		return Dialect{}, false
	}
}

func (d Dialect) Name() string { return d.name }

// connString adds the pragmas every sqlite connection needs. SQLite only
// enforces foreign keys when asked to, per connection.
func (d Dialect) connString(dsn string) string {
	if d.name != sqliteName {
		return dsn
	}
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// rebind rewrites ? placeholders for engines that number them.
func (d Dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
