package riff

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
)

// declareRuntime declares the externs the lowering calls into: buffer access,
// print, and the libm helpers behind abs and round. Declarations only; a
// host linking the module supplies the definitions.
func declareRuntime(b *LLVMIRBuilder) {
	b.bufRead = b.mod.NewFunc("riff_read", types.Double,
		ir.NewParam("i", types.I64))
	b.bufWrite = b.mod.NewFunc("riff_write", types.Void,
		ir.NewParam("i", types.I64), ir.NewParam("v", types.Double))
	b.printVal = b.mod.NewFunc("riff_print", types.Void,
		ir.NewParam("v", types.Double))
	b.fabs = b.mod.NewFunc("fabs", types.Double,
		ir.NewParam("x", types.Double))
	b.round = b.mod.NewFunc("round", types.Double,
		ir.NewParam("x", types.Double))
}
