// Package dialect renders the backend-specific pieces of the SQL issued by the model layer
// and classifies driver errors. Everything else about a statement is backend-agnostic.
package dialect

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the fixed-width RFC 3339 layout used wherever timestamps are stored as text.
// Fixed width keeps lexical order equal to chronological order for UTC values.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// Dialect abstracts the SQL differences between supported backends.
type Dialect interface {
	// Name returns the canonical backend name (postgres, sqlite, mysql, sqlserver).
	Name() string
	// Placeholder returns the bind marker for the n-th (1-based) argument.
	Placeholder(n int) string
	// Quote quotes an identifier.
	Quote(ident string) string
	// Insert renders an INSERT of cols into table with placeholders 1..len(cols).
	// When returning is true the statement yields one row holding pk; otherwise the
	// generated key must be read from sql.Result.LastInsertId.
	Insert(table string, cols []string, pk string) (query string, returning bool)
	// Paginate renders the row-limiting clause, binding limit and offset through args.
	Paginate(args *Args, limit, offset int64) string
	// TimeValue converts a timestamp to the value bound for a timestamp column.
	TimeValue(t time.Time) any
	// IsUniqueViolation reports whether err is a unique or primary key violation.
	IsUniqueViolation(err error) bool
}

// ByName resolves a dialect from a driver name as configured in DB_DRIVER.
func ByName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "pgx":
		return Postgres{}, nil
	case "sqlite", "sqlite3":
		return SQLite{}, nil
	case "mysql", "mariadb":
		return MySQL{}, nil
	case "sqlserver", "mssql":
		return SQLServer{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", name)
	}
}

// Args accumulates bind values and hands out matching placeholders in order.
type Args struct {
	d    Dialect
	vals []any
}

// NewArgs returns an empty accumulator for d.
func NewArgs(d Dialect) *Args {
	return &Args{d: d}
}

// Add appends v and returns its placeholder.
func (a *Args) Add(v any) string {
	a.vals = append(a.vals, v)
	return a.d.Placeholder(len(a.vals))
}

// Values returns the bound values in placeholder order.
func (a *Args) Values() []any {
	return a.vals
}

// Len returns the number of bound values.
func (a *Args) Len() int {
	return len(a.vals)
}

func quoteWith(ident, open, close string) string {
	return open + strings.ReplaceAll(ident, close, close+close) + close
}

func quoteAll(d Dialect, idents []string) []string {
	out := make([]string, len(idents))
	for i, id := range idents {
		out[i] = d.Quote(id)
	}
	return out
}

func placeholders(d Dialect, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = d.Placeholder(i + 1)
	}
	return out
}
