package riff

import "fmt"

// IndexVar is the implicit current-sample-index binding available inside the
// entry function.
const IndexVar = "i"

// EntryFunc drives the per-sample iteration; a program must declare it with
// no parameters.
const EntryFunc = "main"

// builtinArity lists callables provided by the runtime rather than the
// program. They may only appear in statement position.
var builtinArity = map[string]int{
	"print": 1,
}

type SemanticAnalyser interface {
	Do() *Program
}

// Program is the resolved, immutable output of the semantic pass. A Program
// with a non-empty Errors slice must not be executed.
type Program struct {
	Filename  string
	Functions map[string]*FuncDecl
	Entry     *FuncDecl
	Errors    []CompileError
}

type ContextAnalyzer struct {
	filename string
	parser   SyntacticAnalyzer

	cache   []Expr
	live    bool
	started bool
	index   int
}

func NewContextAnalyser(parser SyntacticAnalyzer) *ContextAnalyzer {
	return &ContextAnalyzer{
		filename: parser.GetFilename(),
		parser:   parser,
		live:     true,
	}
}

// Do resolves the parser's declaration stream: it registers every function,
// checks the entry point, and verifies that all calls and variable references
// bind. The interpreter relies on a clean Program; nothing is executed when
// Errors is non-empty.
func (c *ContextAnalyzer) Do() *Program {
	prog := &Program{
		Filename:  c.filename,
		Functions: make(map[string]*FuncDecl),
	}

	c.reset()
	for {
		expr := c.get()
		if expr == nil {
			break
		}

		switch e := expr.(type) {
		case *BadExpr:
			prog.Errors = append(prog.Errors, &BadExprError{Loc: e.Location, Expr: e})
		case *FuncDecl:
			c.register(prog, e)
		}
	}

	if entry, ok := prog.Functions[EntryFunc]; ok {
		prog.Entry = entry
		if len(entry.Params) != 0 {
			prog.Errors = append(prog.Errors, &ArityError{
				Loc:  entry.Loc,
				Name: EntryFunc,
				Want: 0,
				Got:  len(entry.Params),
			})
		}
	} else {
		prog.Errors = append(prog.Errors, &NoEntryError{Filename: c.filename})
	}

	c.reset()
	for {
		expr := c.get()
		if expr == nil {
			break
		}

		if e, isFuncDecl := expr.(*FuncDecl); isFuncDecl {
			c.checkFunc(prog, e)
		}
	}

	return prog
}

func (c *ContextAnalyzer) register(prog *Program, fn *FuncDecl) {
	if _, isBuiltin := builtinArity[fn.Name]; isBuiltin {
		prog.Errors = append(prog.Errors, &RedeclaredError{Loc: fn.Loc, Name: fn.Name})
		return
	}

	if _, exists := prog.Functions[fn.Name]; exists {
		prog.Errors = append(prog.Errors, &RedeclaredError{Loc: fn.Loc, Name: fn.Name})
		return
	}

	prog.Functions[fn.Name] = fn
}

type varKind int

const (
	kindParam varKind = iota
	kindLocal
	kindLoopVar
	kindIndex
)

func (c *ContextAnalyzer) checkFunc(prog *Program, fn *FuncDecl) {
	scope := make(map[string]varKind)
	for _, param := range fn.Params {
		if _, dup := scope[param]; dup {
			prog.Errors = append(prog.Errors, &RedeclaredError{Loc: fn.Loc, Name: param})
			continue
		}

		scope[param] = kindParam
	}

	if fn == prog.Entry {
		scope[IndexVar] = kindIndex
	}

	c.checkBlock(prog, fn, fn.Body, scope)
}

func (c *ContextAnalyzer) checkBlock(prog *Program, fn *FuncDecl, stmts []Expr, scope map[string]varKind) {
	for _, stmt := range stmts {
		switch e := stmt.(type) {
		case *BadExpr:
			prog.Errors = append(prog.Errors, &BadExprError{Loc: e.Location, Expr: e})
		case *Assignment:
			c.checkExpr(prog, e.Value, scope)

			if kind, exists := scope[e.Name]; exists && kind != kindLocal {
				prog.Errors = append(prog.Errors, &ShadowError{Loc: e.Loc, Name: e.Name})
				continue
			}

			scope[e.Name] = kindLocal
		case *SampleAssign:
			c.checkExpr(prog, e.Index, scope)
			c.checkExpr(prog, e.Value, scope)
		case *IfStmt:
			c.checkExpr(prog, e.Cond, scope)
			c.checkBlock(prog, fn, e.Then, scope)
			c.checkBlock(prog, fn, e.Else, scope)
		case *ForStmt:
			c.checkExpr(prog, e.Start, scope)
			c.checkExpr(prog, e.End, scope)
			if e.Step != nil {
				c.checkExpr(prog, e.Step, scope)
			}

			if _, exists := scope[e.Var]; exists {
				prog.Errors = append(prog.Errors, &ShadowError{Loc: e.Loc, Name: e.Var})
				c.checkBlock(prog, fn, e.Body, scope)
				continue
			}

			scope[e.Var] = kindLoopVar
			c.checkBlock(prog, fn, e.Body, scope)
			delete(scope, e.Var) // The loop variable does not outlive its loop

		case *ReturnStmt:
			if e.Value != nil {
				c.checkExpr(prog, e.Value, scope)
			}
		case *CallExpr:
			c.checkCall(prog, e, scope, true)
		}
	}
}

func (c *ContextAnalyzer) checkExpr(prog *Program, expr Expr, scope map[string]varKind) {
	switch e := expr.(type) {
	case *BadExpr:
		prog.Errors = append(prog.Errors, &BadExprError{Loc: e.Location, Expr: e})
	case *Identifier:
		if _, exists := scope[e.Name]; !exists {
			prog.Errors = append(prog.Errors, &UndefinedError{Loc: e.Loc, Name: e.Name, Kind: "variable"})
		}
	case *SampleExpr:
		c.checkExpr(prog, e.Index, scope)
	case *BinaryExpr:
		c.checkExpr(prog, e.Op1, scope)
		c.checkExpr(prog, e.Op2, scope)
	case *UnaryExpr:
		c.checkExpr(prog, e.Operand, scope)
	case *CallExpr:
		c.checkCall(prog, e, scope, false)
	}
}

func (c *ContextAnalyzer) checkCall(prog *Program, call *CallExpr, scope map[string]varKind, asStmt bool) {
	for _, arg := range call.Args {
		c.checkExpr(prog, arg, scope)
	}

	if want, isBuiltin := builtinArity[call.Name]; isBuiltin {
		if !asStmt {
			prog.Errors = append(prog.Errors, &VoidCallError{Loc: call.Loc, Name: call.Name})
			return
		}

		if len(call.Args) != want {
			prog.Errors = append(prog.Errors, &ArityError{
				Loc:  call.Loc,
				Name: call.Name,
				Want: want,
				Got:  len(call.Args),
			})
		}

		return
	}

	fn, exists := prog.Functions[call.Name]
	if !exists {
		prog.Errors = append(prog.Errors, &UndefinedError{Loc: call.Loc, Name: call.Name, Kind: "function"})
		return
	}

	if len(call.Args) != len(fn.Params) {
		prog.Errors = append(prog.Errors, &ArityError{
			Loc:  call.Loc,
			Name: call.Name,
			Want: len(fn.Params),
			Got:  len(call.Args),
		})
	}
}

func (c *ContextAnalyzer) get() Expr {
	if c.live {
		if !c.started {
			go c.parser.Do()
			c.started = true
		}

		expr := c.parser.Get()
		_, ok := expr.(*EOS)
		if ok {
			c.live = false
			return nil
		}

		c.cache = append(c.cache, expr)
		return expr
	}

	if c.index >= len(c.cache) {
		return nil
	}

	expr := c.cache[c.index]
	c.index++
	return expr
}

func (c *ContextAnalyzer) reset() {
	c.index = 0
}

type CompileError interface {
	fmt.Stringer
}

// SyntaxError is a lexical failure: an unrecognized character or a malformed
// literal. It doubles as a Go error so the lexer can surface it directly.
type SyntaxError struct {
	Loc    *Location
	Reason string
}

func (e *SyntaxError) String() string {
	return fmt.Sprintf("%s syntax error: %s", e.Loc, e.Reason)
}

func (e *SyntaxError) Error() string {
	return e.String()
}

type BadExprError struct {
	Loc  *Location
	Expr *BadExpr
}

func (e BadExprError) String() string {
	return fmt.Sprintf("%s bad expression: %s", e.Loc, e.Expr.Error)
}

type UndefinedError struct {
	Loc  *Location
	Name string
	Kind string
}

func (e UndefinedError) String() string {
	return fmt.Sprintf("%s undefined %s: %s", e.Loc, e.Kind, e.Name)
}

type ArityError struct {
	Loc  *Location
	Name string
	Want int
	Got  int
}

func (e ArityError) String() string {
	return fmt.Sprintf("%s wrong argument count for %s: want %d, got %d", e.Loc, e.Name, e.Want, e.Got)
}

type RedeclaredError struct {
	Loc  *Location
	Name string
}

func (e RedeclaredError) String() string {
	return fmt.Sprintf("%s redeclared: %s", e.Loc, e.Name)
}

type ShadowError struct {
	Loc  *Location
	Name string
}

func (e ShadowError) String() string {
	return fmt.Sprintf("%s cannot shadow: %s", e.Loc, e.Name)
}

type VoidCallError struct {
	Loc  *Location
	Name string
}

func (e VoidCallError) String() string {
	return fmt.Sprintf("%s %s returns no value and cannot be used in an expression", e.Loc, e.Name)
}

type NoEntryError struct {
	Filename string
}

func (e NoEntryError) String() string {
	return fmt.Sprintf("%s: no entry function '%s' declared", e.Filename, EntryFunc)
}
