package emit

import (
	"fmt"
	"io"
	"strings"

	"t65/internal/atari"
	"t65/internal/mos"
)

// ByName resolves an assembly style name from the command line.
func ByName(name string) (Dialect, bool) {
	switch strings.ToLower(name) {
	case "mads", "native":
		return Native{}, true
	case "debug", "att", "att-like-debug":
		return Debug{}, true
	}
	return nil, false
}

func equAddr(addr uint16) string {
	if addr < 0x0100 {
		return fmt.Sprintf("$%02X", addr)
	}
	return fmt.Sprintf("$%04X", addr)
}

// Native emits MADS assembly: labels in column zero without a colon,
// instructions tab indented, and the runtime stubs appended so the output
// assembles stand-alone.
type Native struct{}

func (Native) Prologue(w io.Writer, t atari.Target, equates []Equate) error {
	if _, err := fmt.Fprintf(w, "\torg $%04X\n\n", t.Org); err != nil {
		return err
	}
	for _, eq := range equates {
		if _, err := fmt.Fprintf(w, "%-10s = %s\n", eq.Name, equAddr(eq.Addr)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

func (Native) Instruction(w io.Writer, in *mos.Instruction) error {
	_, err := fmt.Fprintf(w, "\t%s\n", in)
	return err
}

func (Native) LabelDef(w io.Writer, name string) error {
	_, err := fmt.Fprintf(w, "%s\n", name)
	return err
}

func (Native) Comment(w io.Writer, text string) error {
	_, err := fmt.Fprintf(w, "; %s\n", text)
	return err
}

func (Native) Epilogue(w io.Writer) error {
	_, err := io.WriteString(w, atari.RuntimeStubs)
	return err
}

// Debug emits a readable listing for diffing and inspection: lowercase
// mnemonics, colon labels, hash comments, no runtime stubs.
type Debug struct{}

func (Debug) Prologue(w io.Writer, t atari.Target, equates []Equate) error {
	if _, err := fmt.Fprintf(w, "# org $%04X\n", t.Org); err != nil {
		return err
	}
	for _, eq := range equates {
		if _, err := fmt.Fprintf(w, "# %s = %s\n", eq.Name, equAddr(eq.Addr)); err != nil {
			return err
		}
	}
	return nil
}

func (Debug) Instruction(w io.Writer, in *mos.Instruction) error {
	_, err := fmt.Fprintf(w, "\t%s\n", strings.ToLower(in.String()))
	return err
}

func (Debug) LabelDef(w io.Writer, name string) error {
	_, err := fmt.Fprintf(w, "%s:\n", name)
	return err
}

func (Debug) Comment(w io.Writer, text string) error {
	_, err := fmt.Fprintf(w, "# %s\n", text)
	return err
}

func (Debug) Epilogue(io.Writer) error {
	return nil
}
