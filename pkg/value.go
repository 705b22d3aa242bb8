package riff

import (
	"fmt"
	"math"
	"strconv"
)

// ValueTag enumerates the runtime kinds a Value may hold.
type ValueTag int

const (
	// TagNone marks the zero Value, which carries nothing. It is what a bare
	// return and a body that falls off its end produce.
	TagNone ValueTag = iota
	TagInt
	TagReal
	TagBool
)

// Value is the tagged runtime carrier. Only the field matching Tag is valid.
type Value struct {
	Tag ValueTag
	I   int64
	R   float64
	B   bool
}

func Int(n int64) Value    { return Value{Tag: TagInt, I: n} }
func Real(f float64) Value { return Value{Tag: TagReal, R: f} }
func Bool(b bool) Value    { return Value{Tag: TagBool, B: b} }

func (v Value) String() string {
	switch v.Tag {
	case TagInt:
		return strconv.FormatInt(v.I, 10)
	case TagReal:
		return strconv.FormatFloat(v.R, 'g', -1, 64)
	case TagBool:
		return strconv.FormatBool(v.B)
	default:
		return "<no value>"
	}
}

func (v Value) isNumeric() bool {
	return v.Tag == TagInt || v.Tag == TagReal
}

// asReal widens a numeric value to float64.
func (v Value) asReal() float64 {
	if v.Tag == TagInt {
		return float64(v.I)
	}

	return v.R
}

type ErrorKind string

const (
	KindType       ErrorKind = "type error"
	KindIndex      ErrorKind = "index error"
	KindArithmetic ErrorKind = "arithmetic error"
	KindName       ErrorKind = "name error"
	KindLimit      ErrorKind = "limit error"
)

// RuntimeError aborts a run at the failing statement. Loc is the executing
// statement's location where one is known.
type RuntimeError struct {
	Kind ErrorKind
	Msg  string
	Loc  *Location
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Loc, e.Kind, e.Msg)
}

func typeErrorf(loc *Location, format string, args ...interface{}) error {
	return &RuntimeError{Kind: KindType, Msg: fmt.Sprintf(format, args...), Loc: loc}
}

// intDivTruncatesTowardZero pins the integer-division policy: the quotient of
// two integers truncates toward zero, so 7/2 == 3 and -7/2 == -3.
const intDivTruncatesTowardZero = true

// applyBinary evaluates every binary operator except the short-circuiting
// 'and'/'or', which the interpreter handles before operand evaluation.
func applyBinary(op BinaryOp, a, b Value, loc *Location) (Value, error) {
	switch op {
	case BinaryAddition, BinarySubtraction, BinaryMultiplication, BinaryDivision:
		return applyArithmetic(op, a, b, loc)
	case BinaryLess, BinaryLessEqual, BinaryGreater, BinaryGreaterEqual:
		return applyRelational(op, a, b, loc)
	case BinaryEquals, BinaryNotEquals:
		return applyEquality(op, a, b, loc)
	default:
		return Value{}, typeErrorf(loc, "unknown operator '%s'", op)
	}
}

func applyArithmetic(op BinaryOp, a, b Value, loc *Location) (Value, error) {
	if !a.isNumeric() || !b.isNumeric() {
		return Value{}, typeErrorf(loc, "operator '%s' requires numeric operands, got %s and %s", op, a, b)
	}

	// Two integers stay in integer arithmetic; anything else promotes to real.
	if a.Tag == TagInt && b.Tag == TagInt {
		switch op {
		case BinaryAddition:
			return Int(a.I + b.I), nil
		case BinarySubtraction:
			return Int(a.I - b.I), nil
		case BinaryMultiplication:
			return Int(a.I * b.I), nil
		case BinaryDivision:
			if b.I == 0 {
				return Value{}, &RuntimeError{Kind: KindArithmetic, Msg: "division by zero", Loc: loc}
			}

			return Int(a.I / b.I), nil
		}
	}

	x, y := a.asReal(), b.asReal()
	switch op {
	case BinaryAddition:
		return Real(x + y), nil
	case BinarySubtraction:
		return Real(x - y), nil
	case BinaryMultiplication:
		return Real(x * y), nil
	default:
		if y == 0 {
			return Value{}, &RuntimeError{Kind: KindArithmetic, Msg: "division by zero", Loc: loc}
		}

		return Real(x / y), nil
	}
}

func applyRelational(op BinaryOp, a, b Value, loc *Location) (Value, error) {
	if !a.isNumeric() || !b.isNumeric() {
		return Value{}, typeErrorf(loc, "operator '%s' requires numeric operands, got %s and %s", op, a, b)
	}

	x, y := a.asReal(), b.asReal()
	switch op {
	case BinaryLess:
		return Bool(x < y), nil
	case BinaryLessEqual:
		return Bool(x <= y), nil
	case BinaryGreater:
		return Bool(x > y), nil
	default:
		return Bool(x >= y), nil
	}
}

func applyEquality(op BinaryOp, a, b Value, loc *Location) (Value, error) {
	var eq bool
	switch {
	case a.Tag == TagBool && b.Tag == TagBool:
		eq = a.B == b.B
	case a.isNumeric() && b.isNumeric():
		eq = a.asReal() == b.asReal()
	default:
		return Value{}, typeErrorf(loc, "operator '%s' cannot compare %s and %s", op, a, b)
	}

	if op == BinaryNotEquals {
		eq = !eq
	}

	return Bool(eq), nil
}

func applyUnary(op UnaryOp, v Value, loc *Location) (Value, error) {
	switch op {
	case UnaryNegative:
		switch v.Tag {
		case TagInt:
			return Int(-v.I), nil
		case TagReal:
			return Real(-v.R), nil
		default:
			return Value{}, typeErrorf(loc, "cannot negate %s", v)
		}
	case UnaryNot:
		if v.Tag != TagBool {
			return Value{}, typeErrorf(loc, "'not' requires a boolean operand, got %s", v)
		}

		return Bool(!v.B), nil
	case UnaryAbs:
		// abs preserves the operand's numeric kind.
		switch v.Tag {
		case TagInt:
			if v.I < 0 {
				return Int(-v.I), nil
			}

			return v, nil
		case TagReal:
			return Real(math.Abs(v.R)), nil
		default:
			return Value{}, typeErrorf(loc, "'abs' requires a numeric operand, got %s", v)
		}
	case UnaryRound:
		// round always yields an integer, half away from zero.
		switch v.Tag {
		case TagInt:
			return v, nil
		case TagReal:
			return Int(roundHalfAway(v.R)), nil
		default:
			return Value{}, typeErrorf(loc, "'round' requires a numeric operand, got %s", v)
		}
	default:
		return Value{}, typeErrorf(loc, "unknown operator '%s'", op)
	}
}

func roundHalfAway(x float64) int64 {
	if x < 0 {
		return int64(math.Ceil(x - 0.5))
	}

	return int64(math.Floor(x + 0.5))
}
