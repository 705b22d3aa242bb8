package riff

import (
	"io"
	"strings"
)

// ErrorList is the compile-failure form returned by the Compiler: every
// diagnostic the front-end produced, in discovery order.
type ErrorList []CompileError

func (l ErrorList) Error() string {
	var str strings.Builder
	for i, err := range l {
		if i > 0 {
			str.WriteByte('\n')
		}

		str.WriteString(err.String())
	}

	return str.String()
}

// Compiler runs the front-end: lexing, parsing and resolution. It produces a
// Program ready for an Engine, or an ErrorList when the source is rejected.
type Compiler struct{}

func NewCompiler() *Compiler {
	return &Compiler{}
}

func (c *Compiler) Compile(filename string) (*Program, error) {
	lexer, err := NewLexer(filename)
	if err != nil {
		return nil, err
	}

	return c.compile(NewParser(lexer))
}

func (c *Compiler) CompileFromReader(reader io.Reader) (*Program, error) {
	lexer := NewLexerFromReader(reader)
	return c.compile(NewParser(lexer))
}

func (c *Compiler) compile(p *Parser) (*Program, error) {
	analyzer := NewContextAnalyser(p)

	prog := analyzer.Do()
	if len(prog.Errors) != 0 {
		return nil, ErrorList(prog.Errors)
	}

	return prog, nil
}

// Synthesize compiles source text and runs it under cfg in one step.
func Synthesize(reader io.Reader, cfg Config) (*ImpulseResponse, error) {
	prog, err := NewCompiler().CompileFromReader(reader)
	if err != nil {
		return nil, err
	}

	return NewEngine(prog, cfg).Run()
}
