package filter

import (
	"strings"

	"itemapi/internal/database/dialect"
)

const likeEscape = '!'

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_", "[", "![")

// Render emits e as a SQL predicate, binding operands through args.
// A nil expression renders as the empty string.
func Render(e Expr, d dialect.Dialect, args *dialect.Args) string {
	switch e := e.(type) {
	case nil:
		return ""
	case Cond:
		return renderCond(e, d, args)
	case And:
		return join(e, " AND ", d, args)
	case Or:
		return join(e, " OR ", d, args)
	}
	return ""
}

func join(children []Expr, sep string, d dialect.Dialect, args *dialect.Args) string {
	if len(children) == 1 {
		return Render(children[0], d, args)
	}
	parts := make([]string, 0, len(children))
	for _, c := range children {
		s := Render(c, d, args)
		if needsParens(c) {
			s = "(" + s + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, sep)
}

func needsParens(e Expr) bool {
	switch e := e.(type) {
	case And:
		return len(e) > 1
	case Or:
		return len(e) > 1
	}
	return false
}

func renderCond(c Cond, d dialect.Dialect, args *dialect.Args) string {
	col := d.Quote(c.Column)

	switch c.Op {
	case OpEq:
		return col + " = " + args.Add(c.Value)
	case OpNe:
		return col + " <> " + args.Add(c.Value)
	case OpGt:
		return col + " > " + args.Add(c.Value)
	case OpGte:
		return col + " >= " + args.Add(c.Value)
	case OpLt:
		return col + " < " + args.Add(c.Value)
	case OpLte:
		return col + " <= " + args.Add(c.Value)
	case OpIn, OpNotIn:
		list, _ := c.Value.([]any)
		if len(list) == 0 {
			if c.Op == OpIn {
				return "1=0"
			}
			return "1=1"
		}
		phs := make([]string, len(list))
		for i, v := range list {
			phs[i] = args.Add(v)
		}
		kw := " IN ("
		if c.Op == OpNotIn {
			kw = " NOT IN ("
		}
		return col + kw + strings.Join(phs, ", ") + ")"
	case OpNull:
		if isNull, _ := c.Value.(bool); isNull {
			return col + " IS NULL"
		}
		return col + " IS NOT NULL"
	}

	s, _ := c.Value.(string)
	s = likeEscaper.Replace(s)
	var pattern, kw string
	switch c.Op {
	case OpContains, OpNotContains:
		pattern = "%" + s + "%"
	case OpStartsWith, OpNotStartsWith:
		pattern = s + "%"
	case OpEndsWith, OpNotEndsWith:
		pattern = "%" + s
	}
	switch c.Op {
	case OpNotContains, OpNotStartsWith, OpNotEndsWith:
		kw = " NOT LIKE "
	default:
		kw = " LIKE "
	}
	return col + kw + args.Add(pattern) + " ESCAPE '" + string(likeEscape) + "'"
}
