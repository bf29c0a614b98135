// Package field projects typed records to and from ordered column/value pairs.
//
// DTOs implement Provider to produce the columns an INSERT or UPDATE writes; record
// pointers implement Target so Scan can rebuild them from a result row. Nothing here
// touches a database.
package field

// Field is one column/value pair.
type Field struct {
	Column string
	Value  any
}

// Fields is an ordered set of Field with unique column names.
type Fields []Field

// Provider is implemented by create and update DTOs.
type Provider interface {
	Fields() Fields
}

// Fields lets a ready-made field set be passed wherever a Provider is expected.
func (fs Fields) Fields() Fields {
	return fs
}

// Push sets column to v. An existing column keeps its position and takes the new value.
func (fs *Fields) Push(column string, v any) {
	for i := range *fs {
		if (*fs)[i].Column == column {
			(*fs)[i].Value = v
			return
		}
	}
	*fs = append(*fs, Field{Column: column, Value: v})
}

// Optional pushes *v when v is non-nil. A nil pointer marks the field absent.
func Optional[V any](fs *Fields, column string, v *V) {
	if v == nil {
		return
	}
	fs.Push(column, *v)
}

// Get returns the value of column.
func (fs Fields) Get(column string) (any, bool) {
	for _, f := range fs {
		if f.Column == column {
			return f.Value, true
		}
	}
	return nil, false
}

// Columns returns the column names in order.
func (fs Fields) Columns() []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Column
	}
	return out
}

// Values returns the values in column order.
func (fs Fields) Values() []any {
	out := make([]any, len(fs))
	for i, f := range fs {
		out[i] = f.Value
	}
	return out
}

// Converter turns a Go value into the value bound for a column.
type Converter func(v any) (any, error)

// Converters holds value-conversion hooks keyed by column name.
type Converters map[string]Converter

// Apply runs the hook registered for column, or returns v unchanged.
func (c Converters) Apply(column string, v any) (any, error) {
	if conv, ok := c[column]; ok && conv != nil {
		return conv(v)
	}
	return v, nil
}

// Convert returns a copy of fs with every value routed through its column's hook.
func (fs Fields) Convert(c Converters) (Fields, error) {
	out := make(Fields, len(fs))
	for i, f := range fs {
		v, err := c.Apply(f.Column, f.Value)
		if err != nil {
			return nil, &MappingError{Column: f.Column, Err: err}
		}
		out[i] = Field{Column: f.Column, Value: v}
	}
	return out, nil
}
