package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tebeka/atexit"

	"t65/internal/backend"
	"t65/internal/emit"
	"t65/internal/irtext"
)

var (
	asmStyle = flag.String("asm-style", "mads", "output dialect: mads, native, debug, att, att-like-debug")
	noCrash  = flag.Bool("nocrash", false, "treat crash-safety findings as errors")
	optLevel = flag.Int("O", 1, "optimization level: 0 off, 1 size")
	org      = flag.Uint("org", 0, "load address, 0 for the target default")
	outPath  = flag.String("o", "", "output file, stdout when empty")
)

func main() {
	flag.Parse()

	input := "output.asm"
	if flag.NArg() > 0 {
		input = flag.Arg(0)
	}

	dialect, ok := emit.ByName(*asmStyle)
	if !ok {
		fail("unknown asm style %q", *asmStyle)
	}

	src, err := os.Open(input)
	if err != nil {
		fail("%v", err)
	}
	defer src.Close()

	fmt.Fprintln(os.Stderr, "Parsing input file...")
	reader := irtext.New()
	prog := reader.Read(src)
	if errs := reader.Errors(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "%s: %s\n", input, e)
		}
		atexit.Exit(1)
	}

	var out io.Writer = os.Stdout
	var outFile *os.File
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			fail("%v", err)
		}
		outFile = f
		out = f
	}

	fmt.Fprintln(os.Stderr, "Generating 6502 assembly...")
	res, err := backend.Compile(prog, backend.Config{
		Dialect:  dialect,
		NoCrash:  *noCrash,
		OptLevel: *optLevel,
		Org:      uint16(*org),
	}, out)
	if res != nil {
		res.Diags.Print(os.Stderr)
	}
	if err != nil {
		if outFile != nil {
			outFile.Close()
		}
		fail("%v", err)
	}
	if outFile != nil {
		if err := outFile.Close(); err != nil {
			fail("%v", err)
		}
	}
	fmt.Fprintf(os.Stderr, "Done, %d bytes of code.\n", res.Stream.ByteSize())
	atexit.Exit(0)
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "t65: "+format+"\n", args...)
	atexit.Exit(1)
}
