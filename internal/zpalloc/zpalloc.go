// Package zpalloc assigns storage slots to program symbols: zero-page
// offsets while the window lasts, absolute spill addresses afterwards.
package zpalloc

import (
	"sort"
	"strings"

	"t65/internal/ir"
)

// EquateName is the assembly-level name of a program symbol's slot. The
// emitter defines one equate per symbol under this name.
func EquateName(sym string) string {
	return "VREG_" + strings.ToUpper(sym)
}

// SlotKind distinguishes fast zero-page storage from general memory.
type SlotKind int

const (
	ZeroPage SlotKind = iota
	Absolute
)

func (k SlotKind) String() string {
	if k == ZeroPage {
		return "zeropage"
	}
	return "absolute"
}

// Slot is the storage location assigned to a symbol for its live range.
type Slot struct {
	Kind SlotKind
	Addr uint16
}

// Window describes the allocatable zero-page span and where spilled
// symbols land.
type Window struct {
	Base      byte
	Top       byte
	SpillBase uint16
}

// Assignment maps each symbol name to its slot.
type Assignment struct {
	Slots   map[string]Slot
	Spilled []string // declaration order
}

// Slot returns the slot for name; ok=false for undeclared symbols.
func (a Assignment) Slot(name string) (Slot, bool) {
	s, ok := a.Slots[name]
	return s, ok
}

// InZeroPage reports whether name was assigned a zero-page slot.
func (a Assignment) InZeroPage(name string) bool {
	s, ok := a.Slots[name]
	return ok && s.Kind == ZeroPage
}

type active struct {
	end  int
	addr byte
	size int
}

// Allocate colors the symbols' live intervals onto the zero-page window.
// Symbols are visited in liveness-start order (ties: more-used first, then
// name, so runs are deterministic); a symbol whose predecessors' intervals
// have ended reuses their offsets. Exhaustion degrades to absolute storage
// in declaration order and is never an error.
//
// The caller must have run prog.Liveness first.
func Allocate(prog *ir.Program, w Window) Assignment {
	out := Assignment{Slots: make(map[string]Slot, len(prog.Symbols))}

	order := make([]*ir.Symbol, len(prog.Symbols))
	copy(order, prog.Symbols)
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].LiveStart != order[j].LiveStart {
			return order[i].LiveStart < order[j].LiveStart
		}
		if order[i].Uses != order[j].Uses {
			return order[i].Uses > order[j].Uses
		}
		return order[i].Name < order[j].Name
	})

	used := make([]bool, int(w.Top)-int(w.Base)+1)
	var actives []active
	spilled := make(map[string]bool)

	for _, sym := range order {
		// Release offsets whose occupant is no longer live.
		kept := actives[:0]
		for _, a := range actives {
			if a.end < sym.LiveStart {
				for i := 0; i < a.size; i++ {
					used[int(a.addr)-int(w.Base)+i] = false
				}
				continue
			}
			kept = append(kept, a)
		}
		actives = kept

		size := sym.Size.Bytes()
		if off, ok := lowestRun(used, size); ok {
			for i := 0; i < size; i++ {
				used[off+i] = true
			}
			addr := w.Base + byte(off)
			out.Slots[sym.Name] = Slot{Kind: ZeroPage, Addr: uint16(addr)}
			actives = append(actives, active{end: sym.LiveEnd, addr: addr, size: size})
			continue
		}
		spilled[sym.Name] = true
	}

	// Spill addresses follow declaration order regardless of liveness.
	next := w.SpillBase
	for _, sym := range prog.Symbols {
		if !spilled[sym.Name] {
			continue
		}
		out.Slots[sym.Name] = Slot{Kind: Absolute, Addr: next}
		out.Spilled = append(out.Spilled, sym.Name)
		next += uint16(sym.Size.Bytes())
	}
	return out
}

// lowestRun finds the lowest offset of size consecutive free bytes.
func lowestRun(used []bool, size int) (int, bool) {
	run := 0
	for i := range used {
		if used[i] {
			run = 0
			continue
		}
		run++
		if run == size {
			return i - size + 1, true
		}
	}
	return 0, false
}
