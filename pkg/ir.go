package riff

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// ValueLookup maps source names to their stack slots within one function.
type ValueLookup struct {
	vals map[string]value.Value
}

func NewValueLookup() *ValueLookup {
	return &ValueLookup{
		vals: make(map[string]value.Value),
	}
}

func (l *ValueLookup) Has(id string) bool {
	_, ok := l.vals[id]
	return ok
}

func (l *ValueLookup) Get(id string) value.Value {
	if val, ok := l.vals[id]; ok {
		return val
	}

	// The semantic analyser guarantees every reference binds.
	panic("undefined identifier: " + id)
}

func (l *ValueLookup) Set(id string, val value.Value) {
	l.vals[id] = val
}

type IRGenerator interface {
	Do() IR
}

type IR interface {
	fmt.Stringer
}

// LLVMIRBuilder lowers a resolved Program to an LLVM IR module for
// inspection. Every numeric value lowers as a double and buffer access
// becomes calls into riff_read/riff_write externs; truncating integer
// division is not preserved. The tree-walking interpreter remains the only
// execution engine.
type LLVMIRBuilder struct {
	prog   *Program
	mod    *ir.Module
	fn     *ir.Func
	block  *ir.Block
	values *ValueLookup
	funcs  map[string]*ir.Func

	bufRead  *ir.Func
	bufWrite *ir.Func
	printVal *ir.Func
	fabs     *ir.Func
	round    *ir.Func

	blocks int
}

func NewLLVMIRBuilder(prog *Program) *LLVMIRBuilder {
	builder := &LLVMIRBuilder{
		prog:  prog,
		mod:   ir.NewModule(),
		funcs: make(map[string]*ir.Func),
	}

	declareRuntime(builder)
	return builder
}

func (b *LLVMIRBuilder) name(prefix string) string {
	b.blocks++
	return prefix + "." + strconv.Itoa(b.blocks)
}

func (b *LLVMIRBuilder) declare(fn *FuncDecl) {
	params := make([]*ir.Param, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = ir.NewParam(p, types.Double)
	}

	if fn == b.prog.Entry {
		params = append(params, ir.NewParam(IndexVar, types.Double))
	}

	b.funcs[fn.Name] = b.mod.NewFunc(fn.Name, types.Double, params...)
}

func (b *LLVMIRBuilder) function(fn *FuncDecl) {
	f := b.funcs[fn.Name]

	b.fn = f
	b.block = f.NewBlock("entry")
	b.values = NewValueLookup()

	// Parameters get stack slots so the body can treat every name alike.
	for _, param := range f.Params {
		slot := b.block.NewAlloca(types.Double)
		b.block.NewStore(param, slot)
		b.values.Set(param.Name(), slot)
	}

	for _, stmt := range fn.Body {
		if b.block.Term != nil {
			break // Unreachable after return
		}

		b.stmt(stmt)
	}

	if b.block.Term == nil {
		b.block.NewRet(constant.NewFloat(types.Double, 0))
	}
}

func (b *LLVMIRBuilder) stmt(expr Expr) {
	switch e := expr.(type) {
	case *Assignment:
		v := b.expr(e.Value)
		b.block.NewStore(v, b.local(e.Name))
	case *SampleAssign:
		idx := b.block.NewFPToSI(b.expr(e.Index), types.I64)
		b.block.NewCall(b.bufWrite, idx, b.expr(e.Value))
	case *IfStmt:
		b.ifStmt(e)
	case *ForStmt:
		b.forStmt(e)
	case *ReturnStmt:
		if e.Value == nil {
			b.block.NewRet(constant.NewFloat(types.Double, 0))
			return
		}

		b.block.NewRet(b.expr(e.Value))
	case *CallExpr:
		if _, isBuiltin := builtinArity[e.Name]; isBuiltin {
			b.block.NewCall(b.printVal, b.expr(e.Args[0]))
			return
		}

		b.block.NewCall(b.funcs[e.Name], b.args(e)...)
	}
}

func (b *LLVMIRBuilder) ifStmt(e *IfStmt) {
	cond := b.cond(e.Cond)

	thenB := b.fn.NewBlock(b.name("if.then"))
	elseB := b.fn.NewBlock(b.name("if.else"))
	endB := b.fn.NewBlock(b.name("if.end"))

	b.block.NewCondBr(cond, thenB, elseB)

	b.block = thenB
	b.stmts(e.Then)
	if b.block.Term == nil {
		b.block.NewBr(endB)
	}

	b.block = elseB
	b.stmts(e.Else)
	if b.block.Term == nil {
		b.block.NewBr(endB)
	}

	b.block = endB
}

func (b *LLVMIRBuilder) forStmt(e *ForStmt) {
	slot := b.local(e.Var)
	b.block.NewStore(b.expr(e.Start), slot)

	end := b.expr(e.End)

	var step value.Value = constant.NewFloat(types.Double, 1)
	if e.Step != nil {
		step = b.expr(e.Step)
	}

	condB := b.fn.NewBlock(b.name("for.cond"))
	bodyB := b.fn.NewBlock(b.name("for.body"))
	endB := b.fn.NewBlock(b.name("for.end"))

	b.block.NewBr(condB)

	// The bound check depends on the step's sign: v <= end for ascending
	// loops, v >= end for descending ones.
	v := condB.NewLoad(types.Double, slot)
	ascending := condB.NewFCmp(enum.FPredOGT, step, constant.NewFloat(types.Double, 0))
	le := condB.NewFCmp(enum.FPredOLE, v, end)
	ge := condB.NewFCmp(enum.FPredOGE, v, end)
	condB.NewCondBr(condB.NewSelect(ascending, le, ge), bodyB, endB)

	b.block = bodyB
	b.stmts(e.Body)
	if b.block.Term == nil {
		cur := b.block.NewLoad(types.Double, slot)
		b.block.NewStore(b.block.NewFAdd(cur, step), slot)
		b.block.NewBr(condB)
	}

	b.block = endB
}

func (b *LLVMIRBuilder) stmts(stmts []Expr) {
	for _, stmt := range stmts {
		if b.block.Term != nil {
			break
		}

		b.stmt(stmt)
	}
}

func (b *LLVMIRBuilder) local(id string) value.Value {
	if b.values.Has(id) {
		return b.values.Get(id)
	}

	slot := b.block.NewAlloca(types.Double)
	b.values.Set(id, slot)

	return slot
}

func (b *LLVMIRBuilder) args(e *CallExpr) []value.Value {
	vals := make([]value.Value, len(e.Args))
	for i, arg := range e.Args {
		vals[i] = b.expr(arg)
	}

	return vals
}

// expr lowers an expression to a double. Boolean-valued forms widen from i1.
func (b *LLVMIRBuilder) expr(expr Expr) value.Value {
	switch e := expr.(type) {
	case *LiteralExpr:
		f, err := strconv.ParseFloat(e.Value, 64)
		if err != nil {
			panic("bad literal: " + e.Value)
		}

		return constant.NewFloat(types.Double, f)
	case *Identifier:
		return b.block.NewLoad(types.Double, b.values.Get(e.Name))
	case *SampleExpr:
		idx := b.block.NewFPToSI(b.expr(e.Index), types.I64)
		return b.block.NewCall(b.bufRead, idx)
	case *CallExpr:
		return b.block.NewCall(b.funcs[e.Name], b.args(e)...)
	case *UnaryExpr:
		switch e.Operation {
		case UnaryNegative:
			return b.block.NewFNeg(b.expr(e.Operand))
		case UnaryAbs:
			return b.block.NewCall(b.fabs, b.expr(e.Operand))
		case UnaryRound:
			return b.block.NewCall(b.round, b.expr(e.Operand))
		default: // not
			return b.block.NewUIToFP(b.cond(expr), types.Double)
		}
	case *BinaryExpr:
		switch e.Operation {
		case BinaryAddition:
			return b.block.NewFAdd(b.expr(e.Op1), b.expr(e.Op2))
		case BinarySubtraction:
			return b.block.NewFSub(b.expr(e.Op1), b.expr(e.Op2))
		case BinaryMultiplication:
			return b.block.NewFMul(b.expr(e.Op1), b.expr(e.Op2))
		case BinaryDivision:
			return b.block.NewFDiv(b.expr(e.Op1), b.expr(e.Op2))
		default: // comparison or logical
			return b.block.NewUIToFP(b.cond(expr), types.Double)
		}
	default:
		panic(fmt.Sprintf("cannot lower %T", expr))
	}
}

var fpredTable = map[BinaryOp]enum.FPred{
	BinaryLess:         enum.FPredOLT,
	BinaryLessEqual:    enum.FPredOLE,
	BinaryGreater:      enum.FPredOGT,
	BinaryGreaterEqual: enum.FPredOGE,
	BinaryEquals:       enum.FPredOEQ,
	BinaryNotEquals:    enum.FPredONE,
}

// cond lowers an expression to an i1. Numeric forms compare against zero.
func (b *LLVMIRBuilder) cond(expr Expr) value.Value {
	switch e := expr.(type) {
	case *BinaryExpr:
		if pred, isCmp := fpredTable[e.Operation]; isCmp {
			return b.block.NewFCmp(pred, b.expr(e.Op1), b.expr(e.Op2))
		}

		if e.Operation == BinaryAnd {
			return b.block.NewAnd(b.cond(e.Op1), b.cond(e.Op2))
		}

		if e.Operation == BinaryOr {
			return b.block.NewOr(b.cond(e.Op1), b.cond(e.Op2))
		}
	case *UnaryExpr:
		if e.Operation == UnaryNot {
			return b.block.NewXor(b.cond(e.Operand), constant.True)
		}
	}

	return b.block.NewFCmp(enum.FPredONE, b.expr(expr), constant.NewFloat(types.Double, 0))
}

// LLVMGenerator drives the builder over a whole resolved program.
type LLVMGenerator struct {
	prog *Program
}

func NewLLVMGenerator(prog *Program) *LLVMGenerator {
	return &LLVMGenerator{
		prog: prog,
	}
}

func (g LLVMGenerator) Do() IR {
	builder := NewLLVMIRBuilder(g.prog)

	names := make([]string, 0, len(g.prog.Functions))
	for name := range g.prog.Functions {
		names = append(names, name)
	}
	sort.Strings(names)

	// Declare everything first so mutually recursive calls resolve.
	for _, name := range names {
		builder.declare(g.prog.Functions[name])
	}

	for _, name := range names {
		builder.function(g.prog.Functions[name])
	}

	return builder.mod
}
