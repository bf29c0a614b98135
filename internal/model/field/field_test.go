package field

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRecord struct {
	ID   int64
	Name string
	At   time.Time
}

func (r *testRecord) Columns() []string { return []string{"id", "name", "at"} }

func (r *testRecord) Ptr(column string) any {
	switch column {
	case "id":
		return &r.ID
	case "name":
		return &r.Name
	case "at":
		return Time(&r.At)
	}
	return nil
}

func TestFields_Push(t *testing.T) {
	var fs Fields
	fs.Push("name", "a")
	fs.Push("owner_id", int64(1))
	fs.Push("name", "b")

	assert.Equal(t, []string{"name", "owner_id"}, fs.Columns())
	assert.Equal(t, []any{"b", int64(1)}, fs.Values())

	v, ok := fs.Get("owner_id")
	assert.True(t, ok)
	assert.Equal(t, int64(1), v)

	_, ok = fs.Get("missing")
	assert.False(t, ok)
}

func TestOptional(t *testing.T) {
	name := "x"
	var owner *int64

	var fs Fields
	Optional(&fs, "name", &name)
	Optional(&fs, "owner_id", owner)

	assert.Equal(t, Fields{{Column: "name", Value: "x"}}, fs)
}

func TestFields_Convert(t *testing.T) {
	fs := Fields{{Column: "n", Value: 2}, {Column: "s", Value: "keep"}}
	conv := Converters{
		"n": func(v any) (any, error) { return v.(int) * 10, nil },
	}

	out, err := fs.Convert(conv)
	require.NoError(t, err)
	assert.Equal(t, []any{20, "keep"}, out.Values())
	assert.Equal(t, 2, fs[0].Value, "input must not be modified")

	t.Run("hook error", func(t *testing.T) {
		bad := Converters{"s": func(any) (any, error) { return nil, errors.New("nope") }}
		_, err := fs.Convert(bad)
		assert.ErrorIs(t, err, ErrMapping)

		var me *MappingError
		require.ErrorAs(t, err, &me)
		assert.Equal(t, "s", me.Column)
	})
}

func queryRows(t *testing.T, rows *sqlmock.Rows) (*sql.Rows, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectQuery("SELECT").WillReturnRows(rows)
	r, err := db.Query("SELECT")
	require.NoError(t, err)
	require.True(t, r.Next())

	return r, func() {
		r.Close()
		db.Close()
	}
}

func TestScan(t *testing.T) {
	at := time.Date(2024, 5, 6, 7, 8, 9, 123000, time.UTC)

	t.Run("text timestamp", func(t *testing.T) {
		r, done := queryRows(t, sqlmock.NewRows([]string{"id", "name", "at"}).
			AddRow(int64(1), "wine", "2024-05-06T07:08:09.000123Z"))
		defer done()

		var rec testRecord
		require.NoError(t, Scan(r, &rec))
		assert.Equal(t, testRecord{ID: 1, Name: "wine", At: at}, rec)
	})

	t.Run("native timestamp, any column order", func(t *testing.T) {
		r, done := queryRows(t, sqlmock.NewRows([]string{"at", "id", "name"}).
			AddRow(at, int64(2), "cheese"))
		defer done()

		var rec testRecord
		require.NoError(t, Scan(r, &rec))
		assert.Equal(t, int64(2), rec.ID)
		assert.True(t, at.Equal(rec.At))
	})

	t.Run("missing column", func(t *testing.T) {
		r, done := queryRows(t, sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "x"))
		defer done()

		err := Scan(r, &testRecord{})
		assert.ErrorIs(t, err, ErrMapping)
		var me *MappingError
		require.ErrorAs(t, err, &me)
		assert.Equal(t, "at", me.Column)
	})

	t.Run("unexpected column", func(t *testing.T) {
		r, done := queryRows(t, sqlmock.NewRows([]string{"id", "name", "at", "extra"}).
			AddRow(int64(1), "x", at, "y"))
		defer done()

		err := Scan(r, &testRecord{})
		var me *MappingError
		require.ErrorAs(t, err, &me)
		assert.Equal(t, "extra", me.Column)
	})

	t.Run("wrong shape", func(t *testing.T) {
		r, done := queryRows(t, sqlmock.NewRows([]string{"id", "name", "at"}).
			AddRow("not-a-number", "x", at))
		defer done()

		assert.ErrorIs(t, Scan(r, &testRecord{}), ErrMapping)
	})

	t.Run("bad timestamp", func(t *testing.T) {
		r, done := queryRows(t, sqlmock.NewRows([]string{"id", "name", "at"}).
			AddRow(int64(1), "x", "yesterday"))
		defer done()

		assert.ErrorIs(t, Scan(r, &testRecord{}), ErrMapping)
	})
}

func TestTimeFormatIdempotent(t *testing.T) {
	inputs := []time.Time{
		time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		time.Date(2024, 1, 2, 3, 4, 5, 120000, time.UTC),
		time.Date(1999, 12, 31, 23, 59, 59, 999999000, time.FixedZone("CET", 3600)),
	}

	for _, in := range inputs {
		first := FormatTime(in)
		parsed, err := ParseTime(first)
		require.NoError(t, err)
		assert.Equal(t, first, FormatTime(parsed))
		assert.True(t, in.Equal(parsed))
	}
}

func TestParseTime(t *testing.T) {
	got, err := ParseTime("2024-05-06 07:08:09.5+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 6, 5, 8, 9, 500000000, time.UTC), got)

	_, err = ParseTime("05/06/2024")
	assert.Error(t, err)
}
