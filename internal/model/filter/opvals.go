// Package filter compiles per-entity filter specs into a backend-agnostic predicate tree
// and renders that tree as parameterized SQL.
//
// A spec is a struct whose fields are operator-value sets. Operators on one field are
// ANDed, present fields of one spec are ANDed, and the specs of a list are ORed.
package filter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Op names a comparison. The string form is the one accepted in JSON filters.
type Op string

const (
	OpEq            Op = "$eq"
	OpNe            Op = "$ne"
	OpGt            Op = "$gt"
	OpGte           Op = "$gte"
	OpLt            Op = "$lt"
	OpLte           Op = "$lte"
	OpIn            Op = "$in"
	OpNotIn         Op = "$notIn"
	OpNull          Op = "$null"
	OpContains      Op = "$contains"
	OpNotContains   Op = "$notContains"
	OpStartsWith    Op = "$startsWith"
	OpNotStartsWith Op = "$notStartsWith"
	OpEndsWith      Op = "$endsWith"
	OpNotEndsWith   Op = "$notEndsWith"
)

// opOrder is the canonical operator order, used when decoding JSON objects so the
// generated SQL does not depend on map iteration.
var opOrder = []Op{
	OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpIn, OpNotIn, OpNull,
	OpContains, OpNotContains, OpStartsWith, OpNotStartsWith, OpEndsWith, OpNotEndsWith,
}

func (o Op) isPattern() bool {
	switch o {
	case OpContains, OpNotContains, OpStartsWith, OpNotStartsWith, OpEndsWith, OpNotEndsWith:
		return true
	}
	return false
}

func (o Op) isList() bool {
	return o == OpIn || o == OpNotIn
}

func (o Op) known() bool {
	for _, k := range opOrder {
		if k == o {
			return true
		}
	}
	return false
}

// Family is the operator family of a filterable field.
type Family int

const (
	// FamilyInt64 supports equality, comparison, lists and null checks on integers.
	FamilyInt64 Family = iota + 1
	// FamilyString additionally supports the pattern operators.
	FamilyString
	// FamilyValue supports equality, comparison, lists and null checks on values that go
	// through the column's conversion hook (timestamps).
	FamilyValue
)

func (f Family) String() string {
	switch f {
	case FamilyInt64:
		return "int64"
	case FamilyString:
		return "string"
	case FamilyValue:
		return "value"
	}
	return "unknown"
}

// Supports reports whether op is valid for the family.
func (f Family) Supports(op Op) bool {
	if !op.known() {
		return false
	}
	if op.isPattern() {
		return f == FamilyString
	}
	return f == FamilyInt64 || f == FamilyString || f == FamilyValue
}

// OpVal is one operator with its operand.
type OpVal struct {
	Op    Op
	Value any
}

func Eq(v any) OpVal               { return OpVal{Op: OpEq, Value: v} }
func Ne(v any) OpVal               { return OpVal{Op: OpNe, Value: v} }
func Gt(v any) OpVal               { return OpVal{Op: OpGt, Value: v} }
func Gte(v any) OpVal              { return OpVal{Op: OpGte, Value: v} }
func Lt(v any) OpVal               { return OpVal{Op: OpLt, Value: v} }
func Lte(v any) OpVal              { return OpVal{Op: OpLte, Value: v} }
func In(vs ...any) OpVal           { return OpVal{Op: OpIn, Value: vs} }
func NotIn(vs ...any) OpVal        { return OpVal{Op: OpNotIn, Value: vs} }
func Null(isNull bool) OpVal       { return OpVal{Op: OpNull, Value: isNull} }
func Contains(s string) OpVal      { return OpVal{Op: OpContains, Value: s} }
func NotContains(s string) OpVal   { return OpVal{Op: OpNotContains, Value: s} }
func StartsWith(s string) OpVal    { return OpVal{Op: OpStartsWith, Value: s} }
func NotStartsWith(s string) OpVal { return OpVal{Op: OpNotStartsWith, Value: s} }
func EndsWith(s string) OpVal      { return OpVal{Op: OpEndsWith, Value: s} }
func NotEndsWith(s string) OpVal   { return OpVal{Op: OpNotEndsWith, Value: s} }

// OpVals is implemented by the typed operator-value sets.
type OpVals interface {
	Family() Family
	OpVals() []OpVal
}

// OpValsInt64 constrains an integer column.
type OpValsInt64 []OpVal

// OpValsString constrains a text column.
type OpValsString []OpVal

// OpValsValue constrains a column whose operands need conversion, such as timestamps.
type OpValsValue []OpVal

func (OpValsInt64) Family() Family    { return FamilyInt64 }
func (v OpValsInt64) OpVals() []OpVal { return v }

func (OpValsString) Family() Family    { return FamilyString }
func (v OpValsString) OpVals() []OpVal { return v }

func (OpValsValue) Family() Family    { return FamilyValue }
func (v OpValsValue) OpVals() []OpVal { return v }

func (v *OpValsInt64) UnmarshalJSON(data []byte) error {
	ovs, err := decodeOpVals(data, FamilyInt64)
	*v = ovs
	return err
}

func (v *OpValsString) UnmarshalJSON(data []byte) error {
	ovs, err := decodeOpVals(data, FamilyString)
	*v = ovs
	return err
}

func (v *OpValsValue) UnmarshalJSON(data []byte) error {
	ovs, err := decodeOpVals(data, FamilyValue)
	*v = ovs
	return err
}

// decodeOpVals accepts either a bare operand (shorthand for $eq) or an object of
// operator keys.
func decodeOpVals(data []byte, fam Family) ([]OpVal, error) {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	if len(data) == 0 || data[0] != '{' {
		v, err := decodeValue(data)
		if err != nil {
			return nil, &InvalidFilterError{Op: OpEq, Reason: err.Error()}
		}
		return []OpVal{{Op: OpEq, Value: v}}, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &InvalidFilterError{Reason: err.Error()}
	}
	for k := range raw {
		op := Op(k)
		if !op.known() {
			return nil, &InvalidFilterError{Op: op, Reason: "unknown operator"}
		}
		if !fam.Supports(op) {
			return nil, &InvalidFilterError{Op: op, Reason: "operator not supported for " + fam.String()}
		}
	}

	out := make([]OpVal, 0, len(raw))
	for _, op := range opOrder {
		msg, ok := raw[string(op)]
		if !ok {
			continue
		}
		v, err := decodeOperand(op, msg)
		if err != nil {
			return nil, &InvalidFilterError{Op: op, Reason: err.Error()}
		}
		out = append(out, OpVal{Op: op, Value: v})
	}
	return out, nil
}

func decodeOperand(op Op, msg json.RawMessage) (any, error) {
	switch {
	case op == OpNull:
		var b bool
		if err := json.Unmarshal(msg, &b); err != nil {
			return nil, errors.New("expected boolean")
		}
		return b, nil
	case op.isList():
		v, err := decodeValue(msg)
		if err != nil {
			return nil, err
		}
		list, ok := v.([]any)
		if !ok {
			return nil, errors.New("expected array")
		}
		return list, nil
	case op.isPattern():
		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			return nil, errors.New("expected string")
		}
		return s, nil
	default:
		return decodeValue(msg)
	}
}

func decodeValue(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid operand: %w", err)
	}
	return v, nil
}
