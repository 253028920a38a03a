// Package backend drives the full lowering pipeline: liveness, zero-page
// allocation, instruction selection, code-size optimization, crash-safety
// validation, and emission. Any fatal diagnostic stops the pipeline before
// a single byte of assembly is written.
package backend

import (
	"fmt"
	"io"

	"t65/internal/atari"
	"t65/internal/diag"
	"t65/internal/emit"
	"t65/internal/ir"
	"t65/internal/isel"
	"t65/internal/mos"
	"t65/internal/opt"
	"t65/internal/safety"
	"t65/internal/zpalloc"
)

// Config selects the output dialect and the pipeline's safety and
// optimization behavior. Zero values mean native output, permissive
// validation, optimization on, and the default load address.
type Config struct {
	Dialect  emit.Dialect
	NoCrash  bool // promote safety findings to fatal
	OptLevel int  // 0 disables the optimizer
	Org      uint16
}

// Result carries the pipeline's products for inspection: the final
// instruction stream, the storage assignment, and every diagnostic raised
// along the way.
type Result struct {
	Stream     *mos.Stream
	Assignment zpalloc.Assignment
	Diags      *diag.Bag
}

// Compile lowers prog and writes the assembly to w. On any fatal
// diagnostic it returns an error and writes nothing; the Result still
// carries the diagnostics and whatever stages completed.
func Compile(prog *ir.Program, cfg Config, w io.Writer) (*Result, error) {
	res := &Result{Diags: &diag.Bag{}}

	dialect := cfg.Dialect
	if dialect == nil {
		dialect = emit.Native{}
	}
	target := atari.Default()
	if cfg.Org != 0 {
		target.Org = cfg.Org
	}

	prog.Liveness()
	res.Assignment = zpalloc.Allocate(prog, zpalloc.Window{
		Base:      atari.VarBase,
		Top:       atari.ZeroPageTop,
		SpillBase: atari.SpillBase,
	})

	res.Stream = isel.Select(prog, res.Assignment, res.Diags)
	if res.Diags.HasFatal() {
		return res, fmt.Errorf("instruction selection failed: %s", summarize(res.Diags))
	}

	res.Stream = opt.Optimize(res.Stream, cfg.OptLevel)

	safety.Validate(res.Stream, target, cfg.NoCrash, res.Diags)
	if res.Diags.HasFatal() {
		return res, fmt.Errorf("validation failed: %s", summarize(res.Diags))
	}

	if err := emit.Emit(res.Stream, res.Assignment, target, dialect, w, res.Diags); err != nil {
		return res, err
	}
	return res, nil
}

func summarize(bag *diag.Bag) string {
	fatals := 0
	var first string
	for _, d := range bag.All() {
		if d.Severity != diag.Fatal {
			continue
		}
		if fatals == 0 {
			first = d.Message
		}
		fatals++
	}
	if fatals <= 1 {
		return first
	}
	return fmt.Sprintf("%s (and %d more)", first, fatals-1)
}
