package riff

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"
)

type TokenType uint64
type stateFunc func(l *Lexer) stateFunc

const (
	EOF rune = 0

	TokenError TokenType = iota
	TokenEOF
	TokenInteger
	TokenReal

	TokenIdentifier
	TokenFunction
	TokenIf
	TokenElse
	TokenFor
	TokenTo
	TokenStep
	TokenReturn
	TokenAnd
	TokenOr
	TokenNot
	TokenAbs
	TokenRound
	TokenSample

	TokenPlus
	TokenMinus
	TokenMulti
	TokenDiv
	TokenLess
	TokenLessEqual
	TokenGreater
	TokenGreaterEqual
	TokenEquals
	TokenNotEquals
	TokenAssign
	TokenComma
	TokenSemicolon
	TokenLineComment
	TokenOpenParentheses
	TokenCloseParentheses
	TokenOpenCurly
	TokenCloseCurly
	TokenOpenSquare
	TokenCloseSquare
)

var keywordTable = map[string]TokenType{
	"function": TokenFunction,
	"if":       TokenIf,
	"else":     TokenElse,
	"for":      TokenFor,
	"to":       TokenTo,
	"step":     TokenStep,
	"return":   TokenReturn,
	"and":      TokenAnd,
	"or":       TokenOr,
	"not":      TokenNot,
	"abs":      TokenAbs,
	"round":    TokenRound,
	"sample":   TokenSample,
}

var operatorTable = map[string]TokenType{
	"+":  TokenPlus,
	"-":  TokenMinus,
	"*":  TokenMulti,
	"/":  TokenDiv,
	"<":  TokenLess,
	"<=": TokenLessEqual,
	">":  TokenGreater,
	">=": TokenGreaterEqual,
	"==": TokenEquals,
	"!=": TokenNotEquals,
	"=":  TokenAssign,
	",":  TokenComma,
	";":  TokenSemicolon,
	"//": TokenLineComment,
	"(":  TokenOpenParentheses,
	")":  TokenCloseParentheses,
	"{":  TokenOpenCurly,
	"}":  TokenCloseCurly,
	"[":  TokenOpenSquare,
	"]":  TokenCloseSquare,
}

// Location points at a rune in the source, 1-based.
type Location struct {
	File string
	Line int
	Col  int
}

func (l *Location) String() string {
	if l == nil {
		return "?:?"
	}

	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Col)
	}

	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Col)
}

type Token struct {
	Typ   TokenType
	Value string
	Loc   *Location
}

func (t Token) isValid() bool {
	return t.Typ != TokenError && t.Typ != TokenEOF
}

// Tokenizer is the lexical stage the parser consumes. Do starts production,
// Get blocks until the next token is available.
type Tokenizer interface {
	Do()
	Get() Token
	GetFilename() string
}

type Lexer struct {
	filename string
	reader   *bufio.Reader
	done     chan Token

	line int
	col  int
}

func NewLexer(filename string) (*Lexer, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	l := NewLexerFromReader(f)
	l.filename = filename

	return l, nil
}

func NewLexerFromReader(reader io.Reader) *Lexer {
	return &Lexer{
		reader: bufio.NewReader(reader),
		done:   make(chan Token),
		line:   1,
		col:    1,
	}
}

func (l *Lexer) GetFilename() string {
	return l.filename
}

func (l *Lexer) Chan() chan Token {
	return l.done
}

func (l *Lexer) Get() Token {
	return <-l.done
}

func (l *Lexer) Do() {
	for state := defaultState; state != nil; {
		state = state(l)
	}

	close(l.done)
}

// RunBlocking drives the lexer to completion and collects every token. A
// TokenError is surfaced as a *SyntaxError carrying the offending location.
func (l *Lexer) RunBlocking() ([]Token, error) {
	go l.Do()

	var tokens []Token
	for t := range l.Chan() {
		if t.Typ == TokenEOF {
			return tokens, nil
		}

		if t.Typ == TokenError {
			return nil, &SyntaxError{Loc: t.Loc, Reason: t.Value}
		}

		tokens = append(tokens, t)
	}

	return tokens, nil
}

func defaultState(l *Lexer) stateFunc {
	for {
		switch r := l.peek(); {
		case r == EOF:
			l.done <- Token{Typ: TokenEOF, Loc: l.loc()}
			return nil
		case unicode.IsSpace(r):
			l.next()
			continue
		case '0' <= r && r <= '9':
			return numberState
		case unicode.IsLetter(r):
			return identifierState
		default:
			return operatorState
		}
	}
}

func numberState(l *Lexer) stateFunc {
	start := l.loc()

	var num strings.Builder
	for r := l.peek(); '0' <= r && r <= '9'; r = l.peek() {
		num.WriteRune(l.next())
	}

	if l.peek() != '.' {
		return l.emit(TokenInteger, num.String(), start)
	}

	num.WriteRune(l.next())
	for r := l.peek(); '0' <= r && r <= '9'; r = l.peek() {
		num.WriteRune(l.next())
	}

	return l.emit(TokenReal, num.String(), start)
}

func identifierState(l *Lexer) stateFunc {
	start := l.loc()

	var id strings.Builder
	for r := l.peek(); unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'; r = l.peek() {
		id.WriteRune(l.next())
	}

	if t, ok := keywordTable[id.String()]; ok {
		return l.emit(t, id.String(), start)
	}

	return l.emit(TokenIdentifier, id.String(), start)
}

func operatorState(l *Lexer) stateFunc {
	start := l.loc()

	r := l.next()
	if r == '<' || r == '>' || r == '=' || r == '!' || r == '/' { // Some operators can be two runes
		op := string(r) + string(l.peek())
		if tok, ok := operatorTable[op]; ok {
			l.next() // Skip

			if tok == TokenLineComment {
				return lineCommentState
			}

			return l.emit(tok, op, start)
		}
	}

	if tok, ok := operatorTable[string(r)]; ok {
		return l.emit(tok, string(r), start)
	}

	return l.errorf(start, "invalid symbol '%c'", r)
}

func lineCommentState(l *Lexer) stateFunc {
	for r := l.peek(); r != '\n' && r != EOF; r = l.peek() {
		l.next()
	}

	return defaultState
}

func (l *Lexer) errorf(loc *Location, format string, args ...interface{}) stateFunc {
	l.done <- Token{
		Typ:   TokenError,
		Value: fmt.Sprintf(format, args...),
		Loc:   loc,
	}

	return nil
}

func (l *Lexer) emit(t TokenType, val string, loc *Location) stateFunc {
	l.done <- Token{
		Typ:   t,
		Value: val,
		Loc:   loc,
	}

	return defaultState
}

func (l *Lexer) loc() *Location {
	return &Location{
		File: l.filename,
		Line: l.line,
		Col:  l.col,
	}
}

func (l *Lexer) peek() rune {
	r, _, err := l.reader.ReadRune()
	if err != nil {
		if err == io.EOF {
			return EOF
		}

		return utf8.RuneError
	}

	_ = l.reader.UnreadRune()
	return r
}

func (l *Lexer) next() rune {
	r, _, err := l.reader.ReadRune()
	if err != nil {
		if err == io.EOF {
			return EOF
		}

		return utf8.RuneError
	}

	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}

	return r
}
