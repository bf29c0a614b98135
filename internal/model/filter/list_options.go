package filter

import (
	"encoding/json"
	"strings"

	"itemapi/internal/database/dialect"
)

// ListOptions controls paging and ordering of list queries. Nil fields take the
// model manager's defaults.
type ListOptions struct {
	Limit    *int64   `json:"limit,omitempty"`
	Offset   *int64   `json:"offset,omitempty"`
	OrderBys OrderBys `json:"order_bys,omitempty"`
}

// OrderBy orders by one column.
type OrderBy struct {
	Column string
	Desc   bool
}

// ParseOrderBy parses "name" (ascending) or "!name" (descending).
func ParseOrderBy(s string) OrderBy {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "!") {
		return OrderBy{Column: strings.TrimSpace(s[1:]), Desc: true}
	}
	return OrderBy{Column: s}
}

func (o OrderBy) String() string {
	if o.Desc {
		return "!" + o.Column
	}
	return o.Column
}

// OrderBys is an ordered list of sort keys.
type OrderBys []OrderBy

// ParseOrderBys parses each entry with ParseOrderBy, skipping blanks.
func ParseOrderBys(ss ...string) OrderBys {
	var out OrderBys
	for _, s := range ss {
		ob := ParseOrderBy(s)
		if ob.Column == "" {
			continue
		}
		out = append(out, ob)
	}
	return out
}

// UnmarshalJSON accepts either a single string or an array of strings.
func (o *OrderBys) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*o = ParseOrderBys(one)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return &InvalidFilterError{Reason: "order_bys must be a string or an array of strings"}
	}
	*o = ParseOrderBys(many...)
	return nil
}

func (o OrderBys) MarshalJSON() ([]byte, error) {
	out := make([]string, len(o))
	for i, ob := range o {
		out[i] = ob.String()
	}
	return json.Marshal(out)
}

// RenderOrderBy renders the column list of an ORDER BY clause.
func RenderOrderBy(obs OrderBys, d dialect.Dialect) string {
	parts := make([]string, len(obs))
	for i, ob := range obs {
		dir := " ASC"
		if ob.Desc {
			dir = " DESC"
		}
		parts[i] = d.Quote(ob.Column) + dir
	}
	return strings.Join(parts, ", ")
}
