package field

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"itemapi/internal/database/dialect"
)

// layouts accepted when reading timestamps stored as text. The second one is what
// modernc.org/sqlite writes for time.Time arguments.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
}

// FormatTime renders t in the fixed textual timestamp format.
func FormatTime(t time.Time) string {
	return t.UTC().Format(dialect.TimeLayout)
}

// ParseTime parses an RFC 3339 (or SQLite text) timestamp and returns it in UTC.
func ParseTime(s string) (time.Time, error) {
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

type timeDest struct {
	t *time.Time
}

// Time returns a scan destination that accepts native timestamps as well as text.
func Time(t *time.Time) sql.Scanner {
	return timeDest{t: t}
}

func (d timeDest) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d.t = v.UTC()
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	case nil:
		return errors.New("null timestamp")
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (d timeDest) parse(s string) error {
	t, err := ParseTime(s)
	if err != nil {
		return err
	}
	*d.t = t
	return nil
}
