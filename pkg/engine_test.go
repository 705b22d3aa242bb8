package riff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func compileString(t *testing.T, src string) *Program {
	t.Helper()

	prog, err := NewCompiler().CompileFromReader(strings.NewReader(src))
	assert.NoError(t, err)

	return prog
}

func TestRunEcho(t *testing.T) {
	src := `
		function main() {
			if (i >= 2) {
				sample[i] = sample[i] + 0.5 * sample[i - 2];
			}
		}
	`

	ir, err := Synthesize(strings.NewReader(src), Config{SampleRate: 4, Duration: 1})
	assert.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 0.5, 0}, ir.Samples())
}

func TestRunDeterminism(t *testing.T) {
	src := `
		function tail(n, g) {
			if (n == 0) {
				return g;
			}
			return tail(n - 1, g * 0.5);
		}

		function main() {
			sample[i] = sample[i] + tail(3, 0.8);
		}
	`
	cfg := Config{SampleRate: 8, Duration: 1}

	first, err := Synthesize(strings.NewReader(src), cfg)
	assert.NoError(t, err)

	second, err := Synthesize(strings.NewReader(src), cfg)
	assert.NoError(t, err)

	assert.Equal(t, first.Samples(), second.Samples())
}

func TestRunForwardDelayTap(t *testing.T) {
	// A forward write at i == 0 must be visible to the later invocation
	// that reads it back.
	src := `
		function main() {
			if (i == 0) {
				sample[2] = sample[0] * 0.25;
			}
			if (i == 3) {
				sample[3] = sample[2] * 2.0;
			}
		}
	`

	ir, err := Synthesize(strings.NewReader(src), Config{SampleRate: 4, Duration: 1})
	assert.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 0.25, 0.5}, ir.Samples())
}

func TestRunIntegerDivision(t *testing.T) {
	src := `
		function main() {
			if (i == 0) {
				sample[0] = 7 / 2;
				sample[1] = -7 / 2;
				sample[2] = 7 / 2.0;
			}
		}
	`

	ir, err := Synthesize(strings.NewReader(src), Config{SampleRate: 4, Duration: 1, Init: InitSilence})
	assert.NoError(t, err)
	assert.Equal(t, []float64{3, -3, 3.5, 0}, ir.Samples())
}

func TestRunLoop(t *testing.T) {
	src := `
		function main() {
			if (i == 0) {
				acc = 0;
				for t = 1 to 4 {
					acc = acc + t;
				}
				sample[0] = acc * 0.5;

				down = 0;
				for t = 3 to 0 step -1 {
					down = down + 1;
				}
				sample[1] = down * 1.0;
			}
		}
	`

	ir, err := Synthesize(strings.NewReader(src), Config{SampleRate: 4, Duration: 1, Init: InitSilence})
	assert.NoError(t, err)
	assert.Equal(t, []float64{5, 4, 0, 0}, ir.Samples())
}

func TestRunRecursion(t *testing.T) {
	src := `
		function fib(n) {
			if (n < 2) {
				return n;
			}
			return fib(n - 1) + fib(n - 2);
		}

		function main() {
			if (i == 0) {
				sample[0] = fib(10) * 0.01;
			}
		}
	`

	ir, err := Synthesize(strings.NewReader(src), Config{SampleRate: 2, Duration: 1, Init: InitSilence})
	assert.NoError(t, err)
	assert.InDelta(t, 0.55, ir.Samples()[0], 1e-12)
}

func TestRunRecursionLimit(t *testing.T) {
	src := `
		function rec() {
			return rec();
		}

		function main() {
			x = rec();
			sample[0] = x;
		}
	`

	_, err := Synthesize(strings.NewReader(src), Config{SampleRate: 4, Duration: 1})
	var rtErr *RuntimeError
	assert.ErrorAs(t, err, &rtErr)
	assert.Equal(t, KindLimit, rtErr.Kind)
}

func TestRunZeroStep(t *testing.T) {
	src := `
		function main() {
			for t = 0 to 3 step 0 {
				sample[t] = 0.0;
			}
		}
	`

	prog := compileString(t, src)
	engine := NewEngine(prog, Config{SampleRate: 4, Duration: 1})

	ir, err := engine.Run()
	assert.Nil(t, ir)

	var rtErr *RuntimeError
	assert.ErrorAs(t, err, &rtErr)
	assert.Equal(t, KindArithmetic, rtErr.Kind)
	assert.Equal(t, StateFailed, engine.State())
}

func TestRunOutOfRange(t *testing.T) {
	// The read at i + 1 only fails on the last invocation, proving the
	// run aborts exactly where the bounds are exceeded.
	src := `
		function main() {
			x = sample[i + 1];
			sample[i] = x;
		}
	`

	prog := compileString(t, src)
	engine := NewEngine(prog, Config{SampleRate: 4, Duration: 1})

	ir, err := engine.Run()
	assert.Nil(t, ir)

	var rtErr *RuntimeError
	assert.ErrorAs(t, err, &rtErr)
	assert.Equal(t, KindIndex, rtErr.Kind)
	assert.Equal(t, StateFailed, engine.State())
}

func TestRunTypeErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{
			"non-boolean condition",
			`function main() { if (i) { sample[0] = 1.0; } }`,
		},
		{
			"boolean in arithmetic",
			`function main() { sample[0] = 1 + (1 == 1); }`,
		},
		{
			"real sample index",
			`function main() { sample[0.5] = 1.0; }`,
		},
		{
			"real loop bound",
			`function main() { for t = 0 to 1.5 { sample[t] = 0.0; } }`,
		},
		{
			"call without return in expression",
			`function noop() { return; } function main() { x = noop(); sample[0] = x; }`,
		},
	}

	for _, c := range cases {
		_, err := Synthesize(strings.NewReader(c.src), Config{SampleRate: 4, Duration: 1})

		var rtErr *RuntimeError
		assert.ErrorAs(t, err, &rtErr, c.name)
		assert.Equal(t, KindType, rtErr.Kind, c.name)
	}
}

func TestRunDivisionByZero(t *testing.T) {
	src := `
		function main() {
			sample[0] = 1 / (i - i);
		}
	`

	_, err := Synthesize(strings.NewReader(src), Config{SampleRate: 4, Duration: 1})

	var rtErr *RuntimeError
	assert.ErrorAs(t, err, &rtErr)
	assert.Equal(t, KindArithmetic, rtErr.Kind)
}

func TestRunShortCircuit(t *testing.T) {
	// The right operand would divide by zero; short-circuiting must skip it.
	src := `
		function main() {
			if (i == 0 or 1 / (i - i) > 0) {
				sample[0] = 0.5;
			}
			return;
		}
	`

	ir, err := Synthesize(strings.NewReader(src), Config{SampleRate: 1, Duration: 1, Init: InitSilence})
	assert.NoError(t, err)
	assert.Equal(t, []float64{0.5}, ir.Samples())
}

func TestRunPrint(t *testing.T) {
	src := `
		function main() {
			print(i);
			print(0.5);
		}
	`

	prog := compileString(t, src)
	engine := NewEngine(prog, Config{SampleRate: 2, Duration: 1})

	var out strings.Builder
	engine.SetOutput(&out)

	_, err := engine.Run()
	assert.NoError(t, err)
	assert.Equal(t, "0\n0.5\n1\n0.5\n", out.String())
}

func TestRunStates(t *testing.T) {
	prog := compileString(t, `function main() { sample[i] = 0.0; }`)
	engine := NewEngine(prog, Config{SampleRate: 4, Duration: 1})
	assert.Equal(t, StateReady, engine.State())

	_, err := engine.Run()
	assert.NoError(t, err)
	assert.Equal(t, StateCompleted, engine.State())
	assert.NoError(t, engine.Err())

	_, err = engine.Run()
	assert.Error(t, err)
}

func TestRunRefusesUnresolvedProgram(t *testing.T) {
	prog := &Program{
		Functions: map[string]*FuncDecl{},
		Errors:    []CompileError{&NoEntryError{Filename: "testing"}},
	}

	engine := NewEngine(prog, Config{SampleRate: 4, Duration: 1})

	ir, err := engine.Run()
	assert.Nil(t, ir)
	assert.Error(t, err)
	assert.Equal(t, StateFailed, engine.State())
}

func TestCompileRejectsUndeclaredCall(t *testing.T) {
	src := `
		function main() {
			shimmer(i);
		}
	`

	_, err := NewCompiler().CompileFromReader(strings.NewReader(src))

	var list ErrorList
	assert.ErrorAs(t, err, &list)
	assert.Len(t, list, 1)
	assert.IsType(t, &UndefinedError{}, list[0])
}

func TestCompileReportsLexFailure(t *testing.T) {
	_, err := NewCompiler().CompileFromReader(strings.NewReader("function main() { $ }"))

	var list ErrorList
	assert.ErrorAs(t, err, &list)
	assert.NotEmpty(t, list)
}
