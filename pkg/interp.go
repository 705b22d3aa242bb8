package riff

import (
	"fmt"
	"io"
	"strconv"
)

// maxCallDepth caps user-function recursion so a runaway program fails with
// a diagnostic instead of exhausting the Go stack.
const maxCallDepth = 1000

// Interpreter walks a resolved Program's statements against the shared
// buffer. One Interpreter serves a whole run; each function invocation gets
// its own frame, so the walker itself is re-entrant across calls.
type Interpreter struct {
	prog  *Program
	ir    *ImpulseResponse
	out   io.Writer // print destination, nil discards
	depth int
}

func NewInterpreter(prog *Program, ir *ImpulseResponse) *Interpreter {
	return &Interpreter{
		prog: prog,
		ir:   ir,
	}
}

// frame is one function invocation's binding set. It is created on call
// entry and discarded on return.
type frame struct {
	vars map[string]Value
}

// InvokeEntry runs the entry function once for the given sample index, bound
// as the implicit index variable.
func (in *Interpreter) InvokeEntry(idx int) error {
	f := &frame{vars: map[string]Value{IndexVar: Int(int64(idx))}}

	_, _, err := in.execBlock(f, in.prog.Entry.Body)
	return err
}

func (in *Interpreter) call(fn *FuncDecl, args []Value, loc *Location) (Value, bool, error) {
	if in.depth >= maxCallDepth {
		return Value{}, false, &RuntimeError{
			Kind: KindLimit,
			Msg:  fmt.Sprintf("call depth exceeds %d", maxCallDepth),
			Loc:  loc,
		}
	}

	in.depth++
	defer func() { in.depth-- }()

	f := &frame{vars: make(map[string]Value, len(fn.Params))}
	for i, param := range fn.Params {
		f.vars[param] = args[i]
	}

	return in.execBlock(f, fn.Body)
}

// execBlock runs statements in order. The boolean result reports that a
// return statement ended the invocation; the Value is its operand, or the
// TagNone zero Value when the return was bare.
func (in *Interpreter) execBlock(f *frame, stmts []Expr) (Value, bool, error) {
	for _, stmt := range stmts {
		switch e := stmt.(type) {
		case *Assignment:
			v, err := in.eval(f, e.Value)
			if err != nil {
				return Value{}, false, locate(err, e.Loc)
			}

			f.vars[e.Name] = v
		case *SampleAssign:
			if err := in.execSampleAssign(f, e); err != nil {
				return Value{}, false, err
			}
		case *IfStmt:
			cond, err := in.eval(f, e.Cond)
			if err != nil {
				return Value{}, false, locate(err, e.Loc)
			}

			if cond.Tag != TagBool {
				return Value{}, false, typeErrorf(e.Loc, "if condition must be boolean, got %s", cond)
			}

			branch := e.Then
			if !cond.B {
				branch = e.Else
			}

			if v, returned, err := in.execBlock(f, branch); returned || err != nil {
				return v, returned, err
			}
		case *ForStmt:
			if v, returned, err := in.execFor(f, e); returned || err != nil {
				return v, returned, err
			}
		case *ReturnStmt:
			if e.Value == nil {
				return Value{}, true, nil
			}

			v, err := in.eval(f, e.Value)
			if err != nil {
				return Value{}, false, locate(err, e.Loc)
			}

			return v, true, nil
		case *CallExpr:
			if err := in.execCall(f, e); err != nil {
				return Value{}, false, err
			}
		}
	}

	return Value{}, false, nil
}

func (in *Interpreter) execSampleAssign(f *frame, e *SampleAssign) error {
	idx, err := in.evalIndex(f, e.Index, e.Loc)
	if err != nil {
		return err
	}

	v, err := in.eval(f, e.Value)
	if err != nil {
		return locate(err, e.Loc)
	}

	if !v.isNumeric() {
		return typeErrorf(e.Loc, "sample amplitude must be numeric, got %s", v)
	}

	return locate(in.ir.Write(idx, v.asReal()), e.Loc)
}

func (in *Interpreter) execFor(f *frame, e *ForStmt) (Value, bool, error) {
	// Bounds and step are evaluated exactly once, at loop entry.
	start, err := in.evalLoopBound(f, e.Start, e.Loc, "start")
	if err != nil {
		return Value{}, false, err
	}

	end, err := in.evalLoopBound(f, e.End, e.Loc, "end")
	if err != nil {
		return Value{}, false, err
	}

	step := int64(1)
	if e.Step != nil {
		step, err = in.evalLoopBound(f, e.Step, e.Loc, "step")
		if err != nil {
			return Value{}, false, err
		}
	}

	if step == 0 {
		return Value{}, false, &RuntimeError{Kind: KindArithmetic, Msg: "loop step is zero", Loc: e.Loc}
	}

	defer delete(f.vars, e.Var) // The loop variable does not outlive its loop

	for v := start; (step > 0 && v <= end) || (step < 0 && v >= end); v += step {
		f.vars[e.Var] = Int(v)

		if ret, returned, err := in.execBlock(f, e.Body); returned || err != nil {
			return ret, returned, err
		}
	}

	return Value{}, false, nil
}

func (in *Interpreter) evalLoopBound(f *frame, expr Expr, loc *Location, what string) (int64, error) {
	v, err := in.eval(f, expr)
	if err != nil {
		return 0, locate(err, loc)
	}

	if v.Tag != TagInt {
		return 0, typeErrorf(loc, "loop %s must be an integer, got %s", what, v)
	}

	return v.I, nil
}

// execCall runs a call in statement position, where builtins are allowed and
// any result is discarded.
func (in *Interpreter) execCall(f *frame, e *CallExpr) error {
	if _, isBuiltin := builtinArity[e.Name]; isBuiltin {
		v, err := in.eval(f, e.Args[0])
		if err != nil {
			return locate(err, e.Loc)
		}

		if in.out != nil {
			fmt.Fprintln(in.out, v)
		}

		return nil
	}

	args, err := in.evalArgs(f, e)
	if err != nil {
		return err
	}

	_, _, err = in.call(in.prog.Functions[e.Name], args, e.Loc)
	return err
}

func (in *Interpreter) evalArgs(f *frame, e *CallExpr) ([]Value, error) {
	args := make([]Value, len(e.Args))
	for i, arg := range e.Args {
		v, err := in.eval(f, arg)
		if err != nil {
			return nil, locate(err, e.Loc)
		}

		args[i] = v
	}

	return args, nil
}

func (in *Interpreter) eval(f *frame, expr Expr) (Value, error) {
	switch e := expr.(type) {
	case *LiteralExpr:
		return evalLiteral(e)
	case *Identifier:
		v, bound := f.vars[e.Name]
		if !bound {
			return Value{}, &RuntimeError{
				Kind: KindName,
				Msg:  fmt.Sprintf("variable %s has no value on this path", e.Name),
				Loc:  e.Loc,
			}
		}

		return v, nil
	case *SampleExpr:
		idx, err := in.evalIndex(f, e.Index, e.Loc)
		if err != nil {
			return Value{}, err
		}

		amp, err := in.ir.Read(idx)
		if err != nil {
			return Value{}, locate(err, e.Loc)
		}

		return Real(amp), nil
	case *BinaryExpr:
		return in.evalBinary(f, e)
	case *UnaryExpr:
		v, err := in.eval(f, e.Operand)
		if err != nil {
			return Value{}, err
		}

		return applyUnary(e.Operation, v, e.Loc)
	case *CallExpr:
		args, err := in.evalArgs(f, e)
		if err != nil {
			return Value{}, err
		}

		v, returned, err := in.call(in.prog.Functions[e.Name], args, e.Loc)
		if err != nil {
			return Value{}, err
		}

		if !returned || v.Tag == TagNone {
			return Value{}, typeErrorf(e.Loc, "function %s returned no value", e.Name)
		}

		return v, nil
	default:
		return Value{}, typeErrorf(nil, "cannot evaluate %T", expr)
	}
}

func (in *Interpreter) evalBinary(f *frame, e *BinaryExpr) (Value, error) {
	// and/or short-circuit: the right operand only runs when it can still
	// change the result.
	if e.Operation == BinaryAnd || e.Operation == BinaryOr {
		lhs, err := in.eval(f, e.Op1)
		if err != nil {
			return Value{}, err
		}

		if lhs.Tag != TagBool {
			return Value{}, typeErrorf(e.Loc, "operator '%s' requires boolean operands, got %s", e.Operation, lhs)
		}

		if (e.Operation == BinaryAnd && !lhs.B) || (e.Operation == BinaryOr && lhs.B) {
			return lhs, nil
		}

		rhs, err := in.eval(f, e.Op2)
		if err != nil {
			return Value{}, err
		}

		if rhs.Tag != TagBool {
			return Value{}, typeErrorf(e.Loc, "operator '%s' requires boolean operands, got %s", e.Operation, rhs)
		}

		return rhs, nil
	}

	lhs, err := in.eval(f, e.Op1)
	if err != nil {
		return Value{}, err
	}

	rhs, err := in.eval(f, e.Op2)
	if err != nil {
		return Value{}, err
	}

	return applyBinary(e.Operation, lhs, rhs, e.Loc)
}

func (in *Interpreter) evalIndex(f *frame, expr Expr, loc *Location) (int64, error) {
	v, err := in.eval(f, expr)
	if err != nil {
		return 0, locate(err, loc)
	}

	if v.Tag != TagInt {
		return 0, typeErrorf(loc, "sample index must be an integer, got %s", v)
	}

	return v.I, nil
}

func evalLiteral(e *LiteralExpr) (Value, error) {
	switch e.Typ {
	case LiteralInteger:
		n, err := strconv.ParseInt(e.Value, 10, 64)
		if err != nil {
			return Value{}, &RuntimeError{Kind: KindArithmetic, Msg: fmt.Sprintf("integer literal %s out of range", e.Value)}
		}

		return Int(n), nil
	default:
		r, err := strconv.ParseFloat(e.Value, 64)
		if err != nil {
			return Value{}, &RuntimeError{Kind: KindArithmetic, Msg: fmt.Sprintf("bad real literal %s", e.Value)}
		}

		return Real(r), nil
	}
}

// locate attaches a statement location to runtime errors raised without one,
// such as buffer bounds failures.
func locate(err error, loc *Location) error {
	if err == nil {
		return nil
	}

	if re, ok := err.(*RuntimeError); ok && re.Loc == nil {
		re.Loc = loc
	}

	return err
}
