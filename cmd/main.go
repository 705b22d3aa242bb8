package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/xyproto/env/v2"
	riff "go.riff.dev/pkg"
)

func main() {
	rate := flag.Int("rate", env.Int("RIFF_RATE", 44100), "sample rate in Hz")
	duration := flag.Float64("duration", env.Float64("RIFF_DURATION", 1.0), "impulse response length in seconds")
	out := flag.String("o", env.Str("RIFF_OUT", "out.wav"), "output WAV path")
	silent := flag.Bool("silent-init", false, "start from silence instead of a unit impulse")
	emitIR := flag.Bool("emit-ir", false, "print the LLVM IR lowering and exit")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: riff [flags] <program.riff>")
		os.Exit(2)
	}

	prog, err := riff.NewCompiler().Compile(flag.Arg(0))
	if err != nil {
		if list, isList := err.(riff.ErrorList); isList {
			printErrors(list)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}

		os.Exit(1)
	}

	if *emitIR {
		fmt.Print(riff.NewLLVMGenerator(prog).Do())
		return
	}

	cfg := riff.Config{
		SampleRate: *rate,
		Duration:   *duration,
	}
	if *silent {
		cfg.Init = riff.InitSilence
	}

	engine := riff.NewEngine(prog, cfg)
	engine.SetOutput(os.Stderr)

	ir, err := engine.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := riff.ExportWAV(*out, ir); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printErrors(errors riff.ErrorList) {
	for _, err := range errors {
		switch e := err.(type) {
		case *riff.BadExprError:
			fmt.Fprintln(os.Stderr, "Bad expression:", e.Expr.Error, "at", e.Loc)
		case *riff.UndefinedError:
			fmt.Fprintln(os.Stderr, "Undefined", e.Kind+":", e.Name, "at", e.Loc)
		case *riff.ArityError:
			fmt.Fprintf(os.Stderr, "Wrong argument count for %s: want %d, got %d at %s\n", e.Name, e.Want, e.Got, e.Loc)
		case *riff.RedeclaredError:
			fmt.Fprintln(os.Stderr, "Redeclared:", e.Name, "at", e.Loc)
		case *riff.ShadowError:
			fmt.Fprintln(os.Stderr, "Cannot shadow:", e.Name, "at", e.Loc)
		default:
			fmt.Fprintln(os.Stderr, err.String())
		}
	}
}
