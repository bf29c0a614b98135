package model

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"itemapi/internal/database/dialect"
)

const (
	// ListLimitDefault applies when a list call sets no limit.
	ListLimitDefault int64 = 1000
	// ListLimitMax is the largest limit a list call may request.
	ListLimitMax int64 = 5000
)

// DB is the part of *sql.DB the model needs. *sql.Tx and *sql.Conn satisfy it too.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Observer receives one call per finished model operation.
type Observer interface {
	Observe(entity, op, result string, elapsed time.Duration)
}

// Manager carries what every model operation needs: the database handle, its dialect,
// the clock used for audit stamps, list limits and instrumentation.
type Manager struct {
	db       DB
	dialect  dialect.Dialect
	clock    func() time.Time
	limitDef int64
	limitMax int64
	observer Observer
	log      zerolog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now as the source of audit timestamps.
func WithClock(clock func() time.Time) Option {
	return func(mm *Manager) {
		if clock != nil {
			mm.clock = clock
		}
	}
}

// WithListLimits overrides the default and maximum list limits. Non-positive values
// keep the package defaults.
func WithListLimits(def, max int64) Option {
	return func(mm *Manager) {
		if def > 0 {
			mm.limitDef = def
		}
		if max > 0 {
			mm.limitMax = max
		}
	}
}

// WithObserver reports every operation to o.
func WithObserver(o Observer) Option {
	return func(mm *Manager) {
		mm.observer = o
	}
}

// WithLogger logs statements and outcomes at debug level.
func WithLogger(l zerolog.Logger) Option {
	return func(mm *Manager) {
		mm.log = l
	}
}

// NewManager binds the model layer to db.
func NewManager(db DB, d dialect.Dialect, opts ...Option) *Manager {
	mm := &Manager{
		db:       db,
		dialect:  d,
		clock:    time.Now,
		limitDef: ListLimitDefault,
		limitMax: ListLimitMax,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(mm)
	}
	if mm.limitDef > mm.limitMax {
		mm.limitDef = mm.limitMax
	}
	return mm
}

// DB returns the underlying handle.
func (mm *Manager) DB() DB {
	return mm.db
}

// Dialect returns the SQL dialect statements are rendered with.
func (mm *Manager) Dialect() dialect.Dialect {
	return mm.dialect
}

// now returns the audit timestamp: UTC, microsecond precision, so it survives a round
// trip through every supported backend unchanged.
func (mm *Manager) now() time.Time {
	return mm.clock().UTC().Truncate(time.Microsecond)
}

func (mm *Manager) statement(ent Entity, op, query string, args []any) {
	mm.log.Debug().
		Str("component", "model").
		Str("entity", ent.Name).
		Str("op", op).
		Str("sql", query).
		Int("args", len(args)).
		Msg("model_statement")
}

func (mm *Manager) observe(ent Entity, op string, start time.Time, err error) {
	elapsed := time.Since(start)
	kind := ErrorKind(err)
	if mm.observer != nil {
		mm.observer.Observe(ent.Name, op, kind, elapsed)
	}

	ev := mm.log.Debug()
	if kind == KindBackend || kind == KindMapping || kind == KindUnknown {
		ev = mm.log.Warn()
	}
	ev.Str("component", "model").
		Str("entity", ent.Name).
		Str("op", op).
		Str("result", kind).
		Dur("elapsed", elapsed).
		Err(err).
		Msg("model_op")
}

// backendErr classifies a driver error.
func (mm *Manager) backendErr(ent Entity, op string, err error) error {
	if mm.dialect.IsUniqueViolation(err) {
		return &DuplicateError{Entity: ent.Name, Err: err}
	}
	return &BackendError{Entity: ent.Name, Op: op, Err: err}
}
