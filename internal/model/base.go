package model

import (
	"context"
	"fmt"
	"strings"
	"time"

	"itemapi/internal/actor"
	"itemapi/internal/database/dialect"
	"itemapi/internal/model/field"
	"itemapi/internal/model/filter"
)

// ValueFunc converts a Go value into what the dialect binds for a column.
type ValueFunc func(d dialect.Dialect, v any) (any, error)

// Entity describes one table-backed entity to the generic operations below.
type Entity struct {
	// Name is used in errors, logs and metric labels.
	Name  string
	Table string
	PK    string
	// Convert holds per-column value hooks applied to written values and filter
	// operands. The audit timestamp columns always get TimeValue unless overridden here.
	Convert map[string]ValueFunc
}

func (ent Entity) valueFunc(column string) ValueFunc {
	if vf, ok := ent.Convert[column]; ok {
		return vf
	}
	switch column {
	case ColCTime, ColMTime:
		return TimeValue
	}
	return nil
}

func (ent Entity) converters(d dialect.Dialect, cols []string) field.Converters {
	out := make(field.Converters)
	for _, col := range cols {
		if vf := ent.valueFunc(col); vf != nil {
			out[col] = func(v any) (any, error) { return vf(d, v) }
		}
	}
	return out
}

func (ent Entity) filterConv(d dialect.Dialect) filter.ValueFunc {
	return func(column string, v any) (any, error) {
		if vf := ent.valueFunc(column); vf != nil {
			return vf(d, v)
		}
		return v, nil
	}
}

// TimeValue accepts a time.Time or an RFC 3339 string and returns the dialect's
// representation of it at microsecond precision.
func TimeValue(d dialect.Dialect, v any) (any, error) {
	var t time.Time
	switch x := v.(type) {
	case time.Time:
		t = x
	case *time.Time:
		if x == nil {
			return nil, fmt.Errorf("nil timestamp")
		}
		t = *x
	case string:
		parsed, err := field.ParseTime(x)
		if err != nil {
			return nil, err
		}
		t = parsed
	default:
		return nil, fmt.Errorf("expected timestamp, got %T", v)
	}
	return d.TimeValue(t.UTC().Truncate(time.Microsecond)), nil
}

// Record is satisfied by *T when T is a record type the engine can scan.
type Record[T any] interface {
	*T
	field.Target
}

// Create inserts the fields of data, stamped with the creator's audit columns, and
// returns the generated primary key.
func Create(ctx context.Context, c actor.Ctx, mm *Manager, ent Entity, data field.Provider) (id int64, err error) {
	const op = "create"
	defer func(start time.Time) { mm.observe(ent, op, start, err) }(time.Now())

	fs := data.Fields()
	if len(fs) == 0 {
		return 0, &ValidationError{Entity: ent.Name, Message: "no fields to create"}
	}
	fs = stampAudit(fs, c, mm.now(), true)

	fs, err = fs.Convert(ent.converters(mm.dialect, fs.Columns()))
	if err != nil {
		return 0, err
	}

	query, returning := mm.dialect.Insert(ent.Table, fs.Columns(), ent.PK)
	args := fs.Values()
	mm.statement(ent, op, query, args)

	if returning {
		if err := mm.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, mm.backendErr(ent, op, err)
		}
		return id, nil
	}

	res, err := mm.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mm.backendErr(ent, op, err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, mm.backendErr(ent, op, err)
	}
	return id, nil
}

// Get loads the record with primary key id. The caller context does not restrict
// visibility.
func Get[T any, PT Record[T]](ctx context.Context, c actor.Ctx, mm *Manager, ent Entity, id int64) (_ *T, err error) {
	const op = "get"
	defer func(start time.Time) { mm.observe(ent, op, start, err) }(time.Now())

	d := mm.dialect
	rec := new(T)
	args := dialect.NewArgs(d)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		selectList(d, PT(rec).Columns()),
		d.Quote(ent.Table),
		d.Quote(ent.PK),
		args.Add(id),
	)
	mm.statement(ent, op, query, args.Values())

	rows, err := mm.db.QueryContext(ctx, query, args.Values()...)
	if err != nil {
		return nil, mm.backendErr(ent, op, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, mm.backendErr(ent, op, err)
		}
		return nil, &NotFoundError{Entity: ent.Name, ID: id}
	}
	if err := field.Scan(rows, PT(rec)); err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns the records matching any of filters, paged and ordered by opts.
// No match yields an empty, non-nil slice.
func List[T any, PT Record[T], F filter.Spec](ctx context.Context, c actor.Ctx, mm *Manager, ent Entity, filters []F, opts *filter.ListOptions) (_ []T, err error) {
	const op = "list"
	defer func(start time.Time) { mm.observe(ent, op, start, err) }(time.Now())

	d := mm.dialect
	cols := PT(new(T)).Columns()

	limit, offset, err := mm.resolvePage(ent, opts)
	if err != nil {
		return nil, err
	}
	var obs filter.OrderBys
	if opts != nil {
		obs = opts.OrderBys
	}
	obs, err = resolveOrder(ent, cols, obs)
	if err != nil {
		return nil, err
	}
	pred, err := filter.Compile(filters, ent.filterConv(d))
	if err != nil {
		return nil, err
	}

	args := dialect.NewArgs(d)
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", selectList(d, cols), d.Quote(ent.Table))
	if pred != nil {
		b.WriteString(" WHERE ")
		b.WriteString(filter.Render(pred, d, args))
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(filter.RenderOrderBy(obs, d))
	b.WriteString(" ")
	b.WriteString(d.Paginate(args, limit, offset))

	query := b.String()
	mm.statement(ent, op, query, args.Values())

	rows, err := mm.db.QueryContext(ctx, query, args.Values()...)
	if err != nil {
		return nil, mm.backendErr(ent, op, err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		var rec T
		if err := field.Scan(rows, PT(&rec)); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, mm.backendErr(ent, op, err)
	}
	return out, nil
}

// Count returns how many records match any of filters.
func Count[F filter.Spec](ctx context.Context, c actor.Ctx, mm *Manager, ent Entity, filters []F) (n int64, err error) {
	const op = "count"
	defer func(start time.Time) { mm.observe(ent, op, start, err) }(time.Now())

	d := mm.dialect
	pred, err := filter.Compile(filters, ent.filterConv(d))
	if err != nil {
		return 0, err
	}

	args := dialect.NewArgs(d)
	query := "SELECT COUNT(*) FROM " + d.Quote(ent.Table)
	if pred != nil {
		query += " WHERE " + filter.Render(pred, d, args)
	}
	mm.statement(ent, op, query, args.Values())

	if err := mm.db.QueryRowContext(ctx, query, args.Values()...).Scan(&n); err != nil {
		return 0, mm.backendErr(ent, op, err)
	}
	return n, nil
}

// Update writes the present fields of data to the record with primary key id and
// restamps its modifier columns.
func Update(ctx context.Context, c actor.Ctx, mm *Manager, ent Entity, id int64, data field.Provider) (err error) {
	const op = "update"
	defer func(start time.Time) { mm.observe(ent, op, start, err) }(time.Now())

	fs := data.Fields()
	if len(fs) == 0 {
		return &ValidationError{Entity: ent.Name, Message: "no fields to update"}
	}
	fs = stampAudit(fs, c, mm.now(), false)

	fs, err = fs.Convert(ent.converters(mm.dialect, fs.Columns()))
	if err != nil {
		return err
	}

	d := mm.dialect
	args := dialect.NewArgs(d)
	sets := make([]string, len(fs))
	for i, f := range fs {
		sets[i] = d.Quote(f.Column) + " = " + args.Add(f.Value)
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		d.Quote(ent.Table),
		strings.Join(sets, ", "),
		d.Quote(ent.PK),
		args.Add(id),
	)

	return mm.execOne(ctx, ent, op, id, query, args.Values())
}

// Delete removes the record with primary key id.
func Delete(ctx context.Context, c actor.Ctx, mm *Manager, ent Entity, id int64) (err error) {
	const op = "delete"
	defer func(start time.Time) { mm.observe(ent, op, start, err) }(time.Now())

	d := mm.dialect
	args := dialect.NewArgs(d)
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		d.Quote(ent.Table),
		d.Quote(ent.PK),
		args.Add(id),
	)

	return mm.execOne(ctx, ent, op, id, query, args.Values())
}

// execOne runs a statement addressed by primary key and reports NotFoundError when it
// touched no row.
func (mm *Manager) execOne(ctx context.Context, ent Entity, op string, id int64, query string, args []any) error {
	mm.statement(ent, op, query, args)

	res, err := mm.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mm.backendErr(ent, op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mm.backendErr(ent, op, err)
	}
	if n == 0 {
		return &NotFoundError{Entity: ent.Name, ID: id}
	}
	return nil
}

func (mm *Manager) resolvePage(ent Entity, opts *filter.ListOptions) (limit, offset int64, err error) {
	limit = mm.limitDef
	if opts == nil {
		return limit, 0, nil
	}
	if opts.Limit != nil {
		limit = *opts.Limit
		switch {
		case limit < 0:
			return 0, 0, &ValidationError{Entity: ent.Name, Message: "limit must not be negative"}
		case limit > mm.limitMax:
			return 0, 0, &ValidationError{Entity: ent.Name, Message: fmt.Sprintf("limit %d is over the maximum of %d", limit, mm.limitMax)}
		}
	}
	if opts.Offset != nil {
		offset = *opts.Offset
		if offset < 0 {
			return 0, 0, &ValidationError{Entity: ent.Name, Message: "offset must not be negative"}
		}
	}
	return limit, offset, nil
}

// resolveOrder checks every sort column against the record's columns and appends the
// primary key as the final tiebreak so pages never overlap.
func resolveOrder(ent Entity, cols []string, obs filter.OrderBys) (filter.OrderBys, error) {
	known := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		known[c] = struct{}{}
	}

	out := make(filter.OrderBys, 0, len(obs)+1)
	hasPK := false
	for _, ob := range obs {
		if _, ok := known[ob.Column]; !ok {
			return nil, &filter.InvalidFilterError{Column: ob.Column, Reason: "unknown order column"}
		}
		if ob.Column == ent.PK {
			hasPK = true
		}
		out = append(out, ob)
	}
	if !hasPK {
		out = append(out, filter.OrderBy{Column: ent.PK})
	}
	return out, nil
}

func selectList(d dialect.Dialect, cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.Quote(c)
	}
	return strings.Join(quoted, ", ")
}
