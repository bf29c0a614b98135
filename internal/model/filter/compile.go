package filter

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrInvalidFilter is the sentinel matched by every InvalidFilterError.
var ErrInvalidFilter = errors.New("invalid filter")

// InvalidFilterError reports an operator or operand a column cannot accept.
type InvalidFilterError struct {
	Column string
	Op     Op
	Reason string
}

func (e *InvalidFilterError) Error() string {
	switch {
	case e.Column != "" && e.Op != "":
		return fmt.Sprintf("invalid filter on %q (%s): %s", e.Column, e.Op, e.Reason)
	case e.Column != "":
		return fmt.Sprintf("invalid filter on %q: %s", e.Column, e.Reason)
	case e.Op != "":
		return fmt.Sprintf("invalid filter (%s): %s", e.Op, e.Reason)
	}
	return "invalid filter: " + e.Reason
}

func (e *InvalidFilterError) Is(target error) bool {
	return target == ErrInvalidFilter
}

// Node binds a column to the operator-value set constraining it.
type Node struct {
	Column string
	Vals   OpVals
}

// Col is shorthand for building a Node.
func Col(column string, vals OpVals) Node {
	return Node{Column: column, Vals: vals}
}

// Spec is implemented by per-entity filter structs.
type Spec interface {
	// FilterNodes returns one node per filterable field, in declaration order.
	FilterNodes() []Node
}

// Expr is a node of the predicate tree.
type Expr interface {
	isExpr()
}

// Cond compares one column with an operand.
type Cond struct {
	Column string
	Op     Op
	Value  any
}

// And holds predicates that must all match.
type And []Expr

// Or holds predicates of which at least one must match.
type Or []Expr

func (Cond) isExpr() {}
func (And) isExpr()  {}
func (Or) isExpr()   {}

// ValueFunc converts an operand for column before it is bound.
type ValueFunc func(column string, v any) (any, error)

// Compile turns a list of specs into one predicate. A nil result matches every row:
// that is the case for an empty list and for a list containing a spec with no
// present field.
func Compile[S Spec](specs []S, conv ValueFunc) (Expr, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	var (
		or            Or
		unconstrained bool
	)
	for _, s := range specs {
		and, err := compileSpec(s, conv)
		if err != nil {
			return nil, err
		}
		if len(and) == 0 {
			unconstrained = true
			continue
		}
		or = append(or, and)
	}

	switch {
	case unconstrained:
		return nil, nil
	case len(or) == 1:
		return or[0], nil
	default:
		return or, nil
	}
}

func compileSpec(s Spec, conv ValueFunc) (And, error) {
	var and And
	for _, n := range s.FilterNodes() {
		if n.Vals == nil {
			continue
		}
		fam := n.Vals.Family()
		for _, ov := range n.Vals.OpVals() {
			c, err := compileOpVal(n.Column, fam, ov, conv)
			if err != nil {
				return nil, err
			}
			and = append(and, c)
		}
	}
	return and, nil
}

func compileOpVal(column string, fam Family, ov OpVal, conv ValueFunc) (Cond, error) {
	fail := func(reason string) (Cond, error) {
		return Cond{}, &InvalidFilterError{Column: column, Op: ov.Op, Reason: reason}
	}

	if !ov.Op.known() {
		return fail("unknown operator")
	}
	if !fam.Supports(ov.Op) {
		return fail("operator not supported for " + fam.String())
	}

	switch {
	case ov.Op == OpNull:
		b, ok := ov.Value.(bool)
		if !ok {
			return fail("expected boolean")
		}
		return Cond{Column: column, Op: ov.Op, Value: b}, nil

	case ov.Op.isPattern():
		s, ok := ov.Value.(string)
		if !ok {
			return fail("expected string")
		}
		return Cond{Column: column, Op: ov.Op, Value: s}, nil

	case ov.Op.isList():
		list, ok := ov.Value.([]any)
		if !ok {
			return fail("expected list")
		}
		out := make([]any, len(list))
		for i, v := range list {
			nv, err := operand(column, fam, v, conv)
			if err != nil {
				return fail(err.Error())
			}
			out[i] = nv
		}
		return Cond{Column: column, Op: ov.Op, Value: out}, nil

	default:
		nv, err := operand(column, fam, ov.Value, conv)
		if err != nil {
			return fail(err.Error())
		}
		return Cond{Column: column, Op: ov.Op, Value: nv}, nil
	}
}

// operand normalizes a scalar for the family and runs the column's conversion hook.
func operand(column string, fam Family, v any, conv ValueFunc) (any, error) {
	if v == nil {
		return nil, errors.New("null operand, use $null")
	}

	var (
		nv  any
		err error
	)
	switch fam {
	case FamilyInt64:
		nv, err = toInt64(v)
	case FamilyString:
		s, ok := v.(string)
		if !ok {
			err = fmt.Errorf("expected string, got %T", v)
		}
		nv = s
	default:
		nv = v
	}
	if err != nil {
		return nil, err
	}

	if conv != nil {
		return conv(column, nv)
	}
	return nv, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case json.Number:
		return n.Int64()
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt64 || n < math.MinInt64 {
			return 0, fmt.Errorf("expected integer, got %v", n)
		}
		return int64(n), nil
	}
	return 0, fmt.Errorf("expected integer, got %T", v)
}
