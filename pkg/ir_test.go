package riff

import (
	"strings"
	"testing"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/stretchr/testify/assert"
)

func TestValueLookup(t *testing.T) {
	vals := NewValueLookup()

	val1 := constant.NewFloat(types.Double, 1)
	val2 := constant.NewFloat(types.Double, 2)

	vals.Set("gain", val1)
	vals.Set("delay", val2)

	assert.True(t, vals.Has("gain"))
	assert.False(t, vals.Has("mix"))
	assert.Equal(t, val1, vals.Get("gain"))
	assert.Equal(t, val2, vals.Get("delay"))
}

func TestValueLookupPanicsOnMissing(t *testing.T) {
	vals := NewValueLookup()

	assert.Panics(t, func() {
		vals.Get("mix")
	})
}

func TestLLVMGenerator(t *testing.T) {
	src := `
		function decay(g) {
			return g * 0.5;
		}

		function main() {
			x = decay(1.0);
			if (i > 0 and i < 3) {
				sample[i] = sample[i] + x;
			}
			for t = 0 to 2 {
				print(t);
			}
		}
	`

	prog, err := NewCompiler().CompileFromReader(strings.NewReader(src))
	assert.NoError(t, err)

	out := NewLLVMGenerator(prog).Do().String()

	// One definition per function, the entry carrying the index parameter.
	assert.Contains(t, out, "define double @decay(double %g)")
	assert.Contains(t, out, "define double @main(double %i)")

	// Buffer and print access lower to runtime externs.
	assert.Contains(t, out, "declare double @riff_read(i64 %i)")
	assert.Contains(t, out, "declare void @riff_write(i64 %i, double %v)")
	assert.Contains(t, out, "call double @riff_read")
	assert.Contains(t, out, "call void @riff_write")
	assert.Contains(t, out, "call void @riff_print")

	// Control flow gets its own blocks.
	assert.Contains(t, out, "if.then")
	assert.Contains(t, out, "for.cond")
	assert.Contains(t, out, "for.body")
}

func TestLLVMGeneratorReturnless(t *testing.T) {
	prog, err := NewCompiler().CompileFromReader(strings.NewReader(
		`function main() { sample[0] = 0.5; }`,
	))
	assert.NoError(t, err)

	out := NewLLVMGenerator(prog).Do().String()

	// A body without an explicit return still terminates.
	assert.Contains(t, out, "ret double 0.0")
}
