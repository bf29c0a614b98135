package field

import (
	"errors"
	"fmt"
)

// ErrMapping is the sentinel matched by every MappingError.
var ErrMapping = errors.New("row mapping failed")

var (
	errMissingColumn    = errors.New("missing column")
	errUnexpectedColumn = errors.New("unexpected column")
)

// MappingError reports a row that cannot be reconstructed into a record.
type MappingError struct {
	Column string
	Err    error
}

func (e *MappingError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("map column %q: %v", e.Column, e.Err)
	}
	return fmt.Sprintf("map row: %v", e.Err)
}

func (e *MappingError) Is(target error) bool {
	return target == ErrMapping
}

func (e *MappingError) Unwrap() error {
	return e.Err
}

// Target is implemented by record pointers.
type Target interface {
	// Columns lists the columns the record is built from, in select order.
	Columns() []string
	// Ptr returns the scan destination for column, or nil if the record has no such column.
	Ptr(column string) any
}

// Rows is the subset of *sql.Rows needed to scan the current row.
type Rows interface {
	Columns() ([]string, error)
	Scan(dest ...any) error
}

// Scan fills t from the current row of rows.
func Scan(rows Rows, t Target) error {
	cols, err := rows.Columns()
	if err != nil {
		return &MappingError{Err: err}
	}

	seen := make(map[string]struct{}, len(cols))
	dests := make([]any, len(cols))
	for i, c := range cols {
		p := t.Ptr(c)
		if p == nil {
			return &MappingError{Column: c, Err: errUnexpectedColumn}
		}
		dests[i] = p
		seen[c] = struct{}{}
	}
	for _, c := range t.Columns() {
		if _, ok := seen[c]; !ok {
			return &MappingError{Column: c, Err: errMissingColumn}
		}
	}

	if err := rows.Scan(dests...); err != nil {
		return &MappingError{Err: err}
	}
	return nil
}
