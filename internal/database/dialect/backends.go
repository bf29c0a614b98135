package dialect

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	mssql "github.com/denisenkom/go-mssqldb"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	pgUniqueViolation       = "23505"
	mysqlDupEntry           = 1062
	mssqlUniqueConstraint   = 2627
	mssqlUniqueIndexViolate = 2601
)

// Postgres targets PostgreSQL through the pgx stdlib driver.
type Postgres struct{}

func (Postgres) Name() string             { return "postgres" }
func (Postgres) Placeholder(n int) string { return "$" + strconv.Itoa(n) }
func (Postgres) Quote(ident string) string {
	return quoteWith(ident, `"`, `"`)
}

func (d Postgres) Insert(table string, cols []string, pk string) (string, bool) {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		d.Quote(table),
		strings.Join(quoteAll(d, cols), ", "),
		strings.Join(placeholders(d, len(cols)), ", "),
		d.Quote(pk),
	), true
}

func (Postgres) Paginate(args *Args, limit, offset int64) string {
	return "LIMIT " + args.Add(limit) + " OFFSET " + args.Add(offset)
}

func (Postgres) TimeValue(t time.Time) any { return t.UTC() }

func (Postgres) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// SQLite targets modernc.org/sqlite. Timestamps are stored as TimeLayout text.
type SQLite struct{}

func (SQLite) Name() string           { return "sqlite" }
func (SQLite) Placeholder(int) string { return "?" }
func (SQLite) Quote(ident string) string {
	return quoteWith(ident, `"`, `"`)
}

func (d SQLite) Insert(table string, cols []string, pk string) (string, bool) {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		d.Quote(table),
		strings.Join(quoteAll(d, cols), ", "),
		strings.Join(placeholders(d, len(cols)), ", "),
		d.Quote(pk),
	), true
}

func (SQLite) Paginate(args *Args, limit, offset int64) string {
	return "LIMIT " + args.Add(limit) + " OFFSET " + args.Add(offset)
}

func (SQLite) TimeValue(t time.Time) any { return t.UTC().Format(TimeLayout) }

func (SQLite) IsUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

// MySQL targets go-sql-driver/mysql. It has no RETURNING, so inserts report the key
// through LastInsertId.
type MySQL struct{}

func (MySQL) Name() string           { return "mysql" }
func (MySQL) Placeholder(int) string { return "?" }
func (MySQL) Quote(ident string) string {
	return quoteWith(ident, "`", "`")
}

func (d MySQL) Insert(table string, cols []string, _ string) (string, bool) {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.Quote(table),
		strings.Join(quoteAll(d, cols), ", "),
		strings.Join(placeholders(d, len(cols)), ", "),
	), false
}

func (MySQL) Paginate(args *Args, limit, offset int64) string {
	return "LIMIT " + args.Add(limit) + " OFFSET " + args.Add(offset)
}

func (MySQL) TimeValue(t time.Time) any { return t.UTC() }

func (MySQL) IsUniqueViolation(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDupEntry
}

// SQLServer targets denisenkom/go-mssqldb.
type SQLServer struct{}

func (SQLServer) Name() string             { return "sqlserver" }
func (SQLServer) Placeholder(n int) string { return "@p" + strconv.Itoa(n) }
func (SQLServer) Quote(ident string) string {
	return quoteWith(ident, "[", "]")
}

func (d SQLServer) Insert(table string, cols []string, pk string) (string, bool) {
	return fmt.Sprintf("INSERT INTO %s (%s) OUTPUT INSERTED.%s VALUES (%s)",
		d.Quote(table),
		strings.Join(quoteAll(d, cols), ", "),
		d.Quote(pk),
		strings.Join(placeholders(d, len(cols)), ", "),
	), true
}

// Paginate requires an ORDER BY in the enclosing statement, which the model always emits.
func (SQLServer) Paginate(args *Args, limit, offset int64) string {
	off := args.Add(offset)
	return "OFFSET " + off + " ROWS FETCH NEXT " + args.Add(limit) + " ROWS ONLY"
}

func (SQLServer) TimeValue(t time.Time) any { return t.UTC() }

func (SQLServer) IsUniqueViolation(err error) bool {
	var me mssql.Error
	if errors.As(err, &me) {
		return me.Number == mssqlUniqueConstraint || me.Number == mssqlUniqueIndexViolate
	}
	var mp *mssql.Error
	if errors.As(err, &mp) {
		return mp.Number == mssqlUniqueConstraint || mp.Number == mssqlUniqueIndexViolate
	}
	return false
}
