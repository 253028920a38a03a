// Package emit renders an instruction stream as assembly text. A Dialect
// decides the surface syntax; Emit walks the stream in order, so output is
// deterministic for a given stream and assignment.
package emit

import (
	"fmt"
	"io"
	"sort"

	"t65/internal/atari"
	"t65/internal/diag"
	"t65/internal/mos"
	"t65/internal/zpalloc"
)

//go:generate mockgen -source=emit.go -destination=mock_dialect_test.go -package=emit

// Equate binds a symbolic operand name to its resolved address.
type Equate struct {
	Name string
	Addr uint16
}

// Dialect renders the pieces of an assembly file. Implementations write
// complete lines including any indentation their assembler expects.
type Dialect interface {
	Prologue(w io.Writer, t atari.Target, equates []Equate) error
	Instruction(w io.Writer, in *mos.Instruction) error
	LabelDef(w io.Writer, name string) error
	Comment(w io.Writer, text string) error
	Epilogue(w io.Writer) error
}

// Equates builds the equate table for an assignment: the runtime scratch
// locations followed by every program symbol, sorted by address with name
// as tiebreaker.
func Equates(asn zpalloc.Assignment) []Equate {
	eqs := []Equate{
		{Name: atari.TmpWordName, Addr: uint16(atari.TmpWordAddr)},
		{Name: atari.LastCmpName, Addr: uint16(atari.LastCmpAddr)},
	}
	for name, slot := range asn.Slots {
		eqs = append(eqs, Equate{Name: zpalloc.EquateName(name), Addr: slot.Addr})
	}
	sort.Slice(eqs, func(i, j int) bool {
		if eqs[i].Addr != eqs[j].Addr {
			return eqs[i].Addr < eqs[j].Addr
		}
		return eqs[i].Name < eqs[j].Name
	})
	return eqs
}

// Emit writes the stream to w in the given dialect. Undefined branch
// targets and duplicate labels are fatal and nothing is written.
func Emit(s *mos.Stream, asn zpalloc.Assignment, t atari.Target, d Dialect, w io.Writer, bag *diag.Bag) error {
	if missing := s.UnresolvedTargets(); len(missing) > 0 {
		for _, name := range missing {
			bag.Fatal("branch to undefined label", name, 0)
		}
		return fmt.Errorf("%d unresolved labels", len(missing))
	}
	if _, dups := s.Labels(); len(dups) > 0 {
		for _, name := range dups {
			bag.Fatal("duplicate label definition", name, 0)
		}
		return fmt.Errorf("%d duplicate labels", len(dups))
	}

	if err := d.Prologue(w, t, Equates(asn)); err != nil {
		return err
	}
	for _, it := range s.Items {
		var err error
		switch {
		case it.Label != "":
			err = d.LabelDef(w, it.Label)
		case it.Comment != "":
			err = d.Comment(w, it.Comment)
		default:
			err = d.Instruction(w, it.Inst)
		}
		if err != nil {
			return err
		}
	}
	return d.Epilogue(w)
}
