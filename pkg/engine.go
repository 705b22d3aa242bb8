package riff

import (
	"fmt"
	"io"
)

// RunState tracks a single synthesis run: Ready until Run is called, then
// Running, then Completed or Failed. A failed run yields no buffer.
type RunState int

const (
	StateReady RunState = iota
	StateRunning
	StateCompleted
	StateFailed
)

func (s RunState) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Config is the boundary bundle handed in next to the source text. Buffer
// length is round(SampleRate * Duration) samples.
type Config struct {
	SampleRate int
	Duration   float64
	Init       InitPolicy
}

// Engine is the per-sample driver. It owns the iteration contract: the entry
// function runs once per index over [0, N) in strictly increasing order, so
// delay taps that read earlier samples observe already-written reflections.
// The statement interpreter knows nothing about this ordering.
type Engine struct {
	prog  *Program
	cfg   Config
	out   io.Writer
	state RunState
	err   error
}

func NewEngine(prog *Program, cfg Config) *Engine {
	return &Engine{
		prog: prog,
		cfg:  cfg,
	}
}

// SetOutput directs the program's print statements. The default discards.
func (e *Engine) SetOutput(w io.Writer) {
	e.out = w
}

func (e *Engine) State() RunState {
	return e.state
}

// Err returns the failure that ended the run, if any.
func (e *Engine) Err() error {
	return e.err
}

// Run executes the whole program and returns the finished buffer. Any
// runtime error aborts the remaining sample iterations; no partial buffer is
// ever returned.
func (e *Engine) Run() (*ImpulseResponse, error) {
	if e.state != StateReady {
		return nil, fmt.Errorf("run already started (state %s)", e.state)
	}

	if len(e.prog.Errors) != 0 {
		return nil, e.fail(fmt.Errorf("program has %d unresolved compile errors", len(e.prog.Errors)))
	}

	ir, err := NewImpulseResponse(e.cfg.SampleRate, e.cfg.Duration, e.cfg.Init)
	if err != nil {
		return nil, e.fail(err)
	}

	e.state = StateRunning

	in := NewInterpreter(e.prog, ir)
	in.out = e.out

	for idx := 0; idx < ir.Len(); idx++ {
		if err := in.InvokeEntry(idx); err != nil {
			return nil, e.fail(err)
		}
	}

	e.state = StateCompleted
	return ir, nil
}

func (e *Engine) fail(err error) error {
	e.state = StateFailed
	e.err = err
	return err
}
