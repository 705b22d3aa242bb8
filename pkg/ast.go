package riff

// AST is the parsed form of one source file. Statements holds the top-level
// function declarations, in source order.
type AST struct {
	Filename   string
	Statements []Expr
}

type Expr interface{}

// EOS marks the end of a parser stream.
type EOS struct{}

type BadExpr struct {
	Location *Location
	Error    string
}

func (e *BadExpr) GetLocation() *Location {
	return e.Location
}

type FuncDecl struct {
	Name   string
	Params []string
	Body   []Expr
	Loc    *Location
}

// Assignment stores an evaluated expression into a local binding.
type Assignment struct {
	Name  string
	Value Expr
	Loc   *Location
}

// SampleAssign stores an evaluated expression into the impulse-response
// buffer at an evaluated index.
type SampleAssign struct {
	Index Expr
	Value Expr
	Loc   *Location
}

type IfStmt struct {
	Cond Expr
	Then []Expr
	Else []Expr
	Loc  *Location
}

// ForStmt is the counted loop. Step is nil when the program leaves it
// implicit; start, end and step are evaluated once at loop entry.
type ForStmt struct {
	Var   string
	Start Expr
	End   Expr
	Step  Expr
	Body  []Expr
	Loc   *Location
}

type ReturnStmt struct {
	Value Expr // nil for a bare return
	Loc   *Location
}

type Identifier struct {
	Name string
	Loc  *Location
}

// SampleExpr reads the impulse-response buffer at an evaluated index.
type SampleExpr struct {
	Index Expr
	Loc   *Location
}

type CallExpr struct {
	Name string
	Args []Expr
	Loc  *Location
}

type BinaryOp string

const (
	BinaryAddition       BinaryOp = "+"
	BinarySubtraction    BinaryOp = "-"
	BinaryMultiplication BinaryOp = "*"
	BinaryDivision       BinaryOp = "/"
	BinaryLess           BinaryOp = "<"
	BinaryLessEqual      BinaryOp = "<="
	BinaryGreater        BinaryOp = ">"
	BinaryGreaterEqual   BinaryOp = ">="
	BinaryEquals         BinaryOp = "=="
	BinaryNotEquals      BinaryOp = "!="
	BinaryAnd            BinaryOp = "and"
	BinaryOr             BinaryOp = "or"
)

type BinaryExpr struct {
	Operation BinaryOp
	Op1       Expr
	Op2       Expr
	Loc       *Location
}

type UnaryOp string

const (
	UnaryNegative UnaryOp = "-"
	UnaryNot      UnaryOp = "not"
	UnaryAbs      UnaryOp = "abs"
	UnaryRound    UnaryOp = "round"
)

type UnaryExpr struct {
	Operation UnaryOp
	Operand   Expr
	Loc       *Location
}

type LiteralType int

const (
	LiteralInteger LiteralType = iota
	LiteralReal
)

type LiteralExpr struct {
	Typ   LiteralType
	Value string
}
