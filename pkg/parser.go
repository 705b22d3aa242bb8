package riff

import "fmt"

type SyntacticAnalyzer interface {
	Do()
	Get() Expr
	GetFilename() string
}

type Parser struct {
	filename  string
	tokenizer Tokenizer
	output    chan Expr
	buf       *Token
}

func NewParser(tokenizer Tokenizer) *Parser {
	return &Parser{
		tokenizer: tokenizer,
		filename:  tokenizer.GetFilename(),
		output:    make(chan Expr, 2),
	}
}

func (p *Parser) Get() Expr {
	return <-p.Chan()
}

func (p *Parser) Chan() chan Expr {
	return p.output
}

func (p *Parser) GetFilename() string {
	return p.filename
}

func (p *Parser) Do() {
	go p.tokenizer.Do()

	for tok := p.peek(); tok.Typ != TokenEOF; tok = p.peek() {
		if tok.Typ == TokenError {
			// The lexer stops after an error, so this is the last form
			p.output <- p.errorf(tok.Loc, "%s", tok.Value)
			break
		}

		p.output <- p.declaration()
	}

	p.output <- &EOS{}
	close(p.output)
}

func (p *Parser) Run() *AST {
	go p.tokenizer.Do()

	ast := &AST{Filename: p.filename}

	for tok := p.peek(); tok.Typ != TokenEOF; tok = p.peek() {
		if tok.Typ == TokenError {
			ast.Statements = append(ast.Statements, p.errorf(tok.Loc, "%s", tok.Value))
			break
		}

		ast.Statements = append(ast.Statements, p.declaration())
	}

	return ast
}

func (p *Parser) peek() Token {
	if p.buf == nil {
		temp := p.next()
		p.buf = &temp
	}

	return *p.buf
}

func (p *Parser) next() Token {
	if p.buf != nil {
		if !p.buf.isValid() {
			// If an invalid token is buffered, don't try to get more tokens
			return *p.buf
		}

		temp := p.buf
		p.buf = nil

		return *temp
	}

	tok := p.tokenizer.Get()
	if !tok.isValid() {
		// If a token is invalid (such as Error or EOF) keep it buffered since no more valid tokens are expected
		p.buf = &tok
	}

	return tok
}

func (p *Parser) expect(typ TokenType) *Token {
	tok := p.next()
	if tok.Typ != typ {
		return nil
	}

	return &tok
}

func (p *Parser) check(typ TokenType) bool {
	return p.peek().Typ == typ
}

func (p *Parser) consume(typ TokenType) bool {
	tok := p.next()
	if tok.Typ != typ {
		return false
	}

	return true
}

func (p *Parser) errorf(l *Location, format string, args ...interface{}) Expr {
	return &BadExpr{l, fmt.Sprintf(format, args...)}
}

// declaration parses one top-level form. Only function declarations are
// allowed at the top level.
func (p *Parser) declaration() Expr {
	switch tok := p.peek(); tok.Typ {
	case TokenFunction:
		return p.funcDecl()
	default:
		p.next() // Skip so parsing can make progress
		return p.errorf(tok.Loc, "expected function declaration, found '%s'", tok.Value)
	}
}

func (p *Parser) funcDecl() Expr {
	start := p.next().Loc // function keyword

	name := p.expect(TokenIdentifier)
	if name == nil {
		return p.errorf(start, "expected function name")
	}

	if !p.consume(TokenOpenParentheses) {
		return p.errorf(start, "expected '(' after function name")
	}

	var params []string
	for p.check(TokenIdentifier) {
		params = append(params, p.next().Value)

		if !p.check(TokenComma) {
			break
		}

		p.next() // Skip the comma
	}

	if !p.consume(TokenCloseParentheses) {
		return p.errorf(start, "bad parameter list")
	}

	return &FuncDecl{
		Name:   name.Value,
		Params: params,
		Body:   p.blockStmt(),
		Loc:    start,
	}
}

func (p *Parser) blockStmt() []Expr {
	if tok := p.expect(TokenOpenCurly); tok == nil {
		return []Expr{p.errorf(nil, "invalid block statement")}
	}

	var stmts []Expr
	for tok := p.peek(); tok.isValid() && tok.Typ != TokenCloseCurly; tok = p.peek() {
		stmts = append(stmts, p.stmt())
	}

	switch closer := p.next(); closer.Typ {
	case TokenCloseCurly:
		return stmts
	case TokenError:
		return append(stmts, p.errorf(closer.Loc, "%s", closer.Value))
	case TokenEOF:
		return append(stmts, p.errorf(closer.Loc, "unclosed block statement"))
	default:
		return append(stmts, p.errorf(closer.Loc, "unexpected token in block statement"))
	}
}

func (p *Parser) stmt() Expr {
	switch tok := p.peek(); tok.Typ {
	case TokenIf:
		return p.ifStmt()
	case TokenFor:
		return p.forStmt()
	case TokenReturn:
		return p.returnStmt()
	case TokenSample:
		return p.sampleAssign()
	case TokenIdentifier:
		return p.identStmt()
	default:
		p.next() // Skip so parsing can make progress
		return p.errorf(tok.Loc, "unexpected token '%s'", tok.Value)
	}
}

// identStmt disambiguates `x = expr;` from `f(args);` after one identifier.
func (p *Parser) identStmt() Expr {
	id := p.next()

	switch tok := p.peek(); tok.Typ {
	case TokenAssign:
		p.next() // Skip =

		value := p.expr()
		if !p.consume(TokenSemicolon) {
			return p.errorf(id.Loc, "expected ';' after assignment")
		}

		return &Assignment{Name: id.Value, Value: value, Loc: id.Loc}
	case TokenOpenParentheses:
		call := p.funcCall(id)
		if !p.consume(TokenSemicolon) {
			return p.errorf(id.Loc, "expected ';' after call")
		}

		return call
	default:
		return p.errorf(id.Loc, "expected '=' or '(' after '%s'", id.Value)
	}
}

func (p *Parser) sampleAssign() Expr {
	start := p.next().Loc // sample keyword

	if !p.consume(TokenOpenSquare) {
		return p.errorf(start, "expected '[' after 'sample'")
	}

	index := p.expr()
	if !p.consume(TokenCloseSquare) {
		return p.errorf(start, "expected ']' after sample index")
	}

	if !p.consume(TokenAssign) {
		return p.errorf(start, "expected '=' after sample reference")
	}

	value := p.expr()
	if !p.consume(TokenSemicolon) {
		return p.errorf(start, "expected ';' after sample assignment")
	}

	return &SampleAssign{Index: index, Value: value, Loc: start}
}

func (p *Parser) ifStmt() Expr {
	start := p.next().Loc // if keyword

	if !p.consume(TokenOpenParentheses) {
		return p.errorf(start, "expected '(' after 'if'")
	}

	cond := p.expr()
	if !p.consume(TokenCloseParentheses) {
		return p.errorf(start, "expected ')' after condition")
	}

	then := p.blockStmt()

	var elseBody []Expr
	if p.check(TokenElse) {
		p.next() // Skip else
		elseBody = p.blockStmt()
	}

	return &IfStmt{Cond: cond, Then: then, Else: elseBody, Loc: start}
}

func (p *Parser) forStmt() Expr {
	start := p.next().Loc // for keyword

	v := p.expect(TokenIdentifier)
	if v == nil {
		return p.errorf(start, "expected loop variable")
	}

	if !p.consume(TokenAssign) {
		return p.errorf(start, "expected '=' after loop variable")
	}

	from := p.expr()

	if !p.consume(TokenTo) {
		return p.errorf(start, "expected 'to' in loop bounds")
	}

	until := p.expr()

	var step Expr
	if p.check(TokenStep) {
		p.next() // Skip step
		step = p.expr()
	}

	return &ForStmt{
		Var:   v.Value,
		Start: from,
		End:   until,
		Step:  step,
		Body:  p.blockStmt(),
		Loc:   start,
	}
}

func (p *Parser) returnStmt() Expr {
	start := p.next().Loc // return keyword

	if p.check(TokenSemicolon) {
		p.next()
		return &ReturnStmt{Loc: start}
	}

	value := p.expr()
	if !p.consume(TokenSemicolon) {
		return p.errorf(start, "expected ';' after return value")
	}

	return &ReturnStmt{Value: value, Loc: start}
}

func (p *Parser) expr() Expr {
	return p.logicalOrExpr()
}

func (p *Parser) logicalOrExpr() Expr {
	lhs := p.logicalAndExpr()

	for p.check(TokenOr) {
		tok := p.next()
		lhs = &BinaryExpr{
			Operation: BinaryOr,
			Op1:       lhs,
			Op2:       p.logicalAndExpr(),
			Loc:       tok.Loc,
		}
	}

	return lhs
}

func (p *Parser) logicalAndExpr() Expr {
	lhs := p.comparisonExpr()

	for p.check(TokenAnd) {
		tok := p.next()
		lhs = &BinaryExpr{
			Operation: BinaryAnd,
			Op1:       lhs,
			Op2:       p.comparisonExpr(),
			Loc:       tok.Loc,
		}
	}

	return lhs
}

func isComparison(typ TokenType) bool {
	switch typ {
	case TokenLess, TokenLessEqual, TokenGreater, TokenGreaterEqual, TokenEquals, TokenNotEquals:
		return true
	default:
		return false
	}
}

func (p *Parser) comparisonExpr() Expr {
	lhs := p.additiveExpr()

	for isComparison(p.peek().Typ) {
		tok := p.next()
		lhs = &BinaryExpr{
			Operation: BinaryOp(tok.Value),
			Op1:       lhs,
			Op2:       p.additiveExpr(),
			Loc:       tok.Loc,
		}
	}

	return lhs
}

func (p *Parser) additiveExpr() Expr {
	lhs := p.multiplicativeExpr()

	for {
		if tok := p.peek(); tok.Typ == TokenPlus || tok.Typ == TokenMinus {
			// Chained operands (for example 1 - 3 + 1). Go over the operand and nest
			p.next()

			lhs = &BinaryExpr{
				Operation: BinaryOp(tok.Value),
				Op1:       lhs,
				Op2:       p.multiplicativeExpr(),
				Loc:       tok.Loc,
			}

			continue
		}

		return lhs
	}
}

func (p *Parser) multiplicativeExpr() Expr {
	lhs := p.unaryExpr()

	for {
		if tok := p.peek(); tok.Typ == TokenMulti || tok.Typ == TokenDiv {
			// Chained operands (for example 1 / 3 * 1). Go over the operand and nest
			p.next()

			lhs = &BinaryExpr{
				Operation: BinaryOp(tok.Value),
				Op1:       lhs,
				Op2:       p.unaryExpr(),
				Loc:       tok.Loc,
			}

			continue
		}

		return lhs
	}
}

func (p *Parser) unaryExpr() Expr {
	switch tok := p.peek(); tok.Typ {
	case TokenMinus, TokenNot, TokenAbs, TokenRound:
		p.next()

		return &UnaryExpr{
			Operation: UnaryOp(tok.Value),
			Operand:   p.unaryExpr(),
			Loc:       tok.Loc,
		}
	default:
		return p.primary()
	}
}

func (p *Parser) primary() Expr {
	switch tok := p.peek(); tok.Typ {
	case TokenOpenParentheses:
		return p.parenthesisedExpression()
	case TokenSample:
		return p.sampleExpr()
	case TokenIdentifier:
		return p.identifierOrCall()
	}

	return p.literal()
}

func (p *Parser) parenthesisedExpression() Expr {
	if tok := p.next(); tok.Typ != TokenOpenParentheses {
		return p.errorf(tok.Loc, "expected opening parenthesis")
	}

	exp := p.expr()

	if tok := p.next(); tok.Typ != TokenCloseParentheses {
		return p.errorf(tok.Loc, "expected closing parenthesis")
	}

	return exp
}

func (p *Parser) sampleExpr() Expr {
	start := p.next().Loc // sample keyword

	if !p.consume(TokenOpenSquare) {
		return p.errorf(start, "expected '[' after 'sample'")
	}

	index := p.expr()
	if !p.consume(TokenCloseSquare) {
		return p.errorf(start, "expected ']' after sample index")
	}

	return &SampleExpr{Index: index, Loc: start}
}

func (p *Parser) identifierOrCall() Expr {
	tok := p.next()
	if tok.Typ != TokenIdentifier {
		return p.errorf(tok.Loc, "expected an identifier")
	}

	if p.check(TokenOpenParentheses) {
		return p.funcCall(tok)
	}

	return &Identifier{
		Name: tok.Value,
		Loc:  tok.Loc,
	}
}

func (p *Parser) funcCall(id Token) Expr {
	if !p.consume(TokenOpenParentheses) {
		return p.errorf(id.Loc, "bad function call")
	}

	var args []Expr
	for tok := p.peek(); tok.isValid() && tok.Typ != TokenCloseParentheses; tok = p.peek() {
		args = append(args, p.expr())

		if !p.check(TokenComma) {
			break
		}

		p.next() // Skip the comma
	}

	if !p.consume(TokenCloseParentheses) {
		return p.errorf(id.Loc, "bad function call")
	}

	return &CallExpr{
		Name: id.Value,
		Args: args,
		Loc:  id.Loc,
	}
}

func (p *Parser) literal() Expr {
	switch tok := p.peek(); tok.Typ {
	case TokenInteger:
		return &LiteralExpr{
			Typ:   LiteralInteger,
			Value: p.next().Value,
		}
	case TokenReal:
		return &LiteralExpr{
			Typ:   LiteralReal,
			Value: p.next().Value,
		}
	default:
		p.next() // Skip errored token
		return p.errorf(tok.Loc, "invalid symbol '%s'", tok.Value)
	}
}
