// Package safety vets an instruction stream against the hardware before
// emission: encodings the CPU does not have, blind writes into custom-chip
// registers, stack imbalance, and the 6502's indirect-jump page-wrap bug.
// Findings are warnings by default; strict mode promotes them to fatal so
// the pipeline refuses to emit a program that could hang the machine.
package safety

import (
	"fmt"

	"t65/internal/atari"
	"t65/internal/diag"
	"t65/internal/mos"
)

// reporter records one finding. in may be nil for stream-level findings.
type reporter func(msg string, in *mos.Instruction)

// Rule is one validation check over a whole stream.
type Rule func(s *mos.Stream, t atari.Target, report reporter)

// Rules returns the default rule set in the order it runs.
func Rules() []Rule {
	return []Rule{
		checkReservedWrites,
		checkIndexedPageCross,
		checkStackBalance,
		checkIndirectJumpBug,
		checkBrk,
	}
}

// Validate runs every rule plus the encoding check and records findings in
// bag. Rule findings are Warning severity, or Fatal when strict is set.
// Illegal encodings are fatal regardless: they cannot be emitted at all.
func Validate(s *mos.Stream, t atari.Target, strict bool, bag *diag.Bag) {
	checkEncodings(s, bag)

	sev := diag.Warning
	if strict {
		sev = diag.Fatal
	}
	for _, rule := range Rules() {
		rule(s, t, func(msg string, in *mos.Instruction) {
			d := diag.Diagnostic{Severity: sev, Message: msg}
			if in != nil {
				d.Context = in.String()
				d.Line = in.Line
			}
			bag.Add(d)
		})
	}
}

func checkEncodings(s *mos.Stream, bag *diag.Bag) {
	for _, it := range s.Items {
		in := it.Inst
		if in == nil {
			continue
		}
		if !mos.HasMode(in.Mn, in.Mode) {
			bag.Fatal(
				fmt.Sprintf("%s does not support %s addressing", in.Mn, in.Mode),
				in.String(), in.Line)
		}
	}
}

// writesMemory reports whether the instruction stores to its operand
// address. Accumulator-mode shifts touch no memory.
func writesMemory(in *mos.Instruction) bool {
	if in.Mode == mos.Accumulator || in.Mode == mos.Implied {
		return false
	}
	switch in.Mn {
	case mos.STA, mos.STX, mos.STY, mos.INC, mos.DEC,
		mos.ASL, mos.LSR, mos.ROL, mos.ROR:
		return true
	}
	return false
}

// numericBase returns the literal base address of the operand. Symbolic
// operands and label targets resolve at assembly time and are out of reach.
func numericBase(in *mos.Instruction) (uint16, bool) {
	if in.Arg.Sym != "" || in.Target != "" {
		return 0, false
	}
	switch in.Mode {
	case mos.ZeroPage, mos.Absolute, mos.ZeroPageX, mos.ZeroPageY,
		mos.AbsoluteX, mos.AbsoluteY:
		return in.Arg.Value, true
	}
	return 0, false
}

// checkReservedWrites flags stores whose base address lands inside a
// custom-chip range without being whitelisted. Indexed stores are judged
// by their base; the index only moves the address further in.
func checkReservedWrites(s *mos.Stream, t atari.Target, report reporter) {
	for _, it := range s.Items {
		in := it.Inst
		if in == nil || !writesMemory(in) {
			continue
		}
		base, ok := numericBase(in)
		if !ok {
			continue
		}
		if r, unsafe := t.UnsafeWrite(base); unsafe {
			report(fmt.Sprintf("write to $%04X inside %s register range", base, r.Name), in)
		}
	}
}

// checkIndexedPageCross flags indexed stores whose index span can run off
// the end of the base page into a reserved range the base itself avoids.
func checkIndexedPageCross(s *mos.Stream, t atari.Target, report reporter) {
	for _, it := range s.Items {
		in := it.Inst
		if in == nil || !writesMemory(in) {
			continue
		}
		if in.Mode != mos.AbsoluteX && in.Mode != mos.AbsoluteY {
			continue
		}
		base, ok := numericBase(in)
		if !ok {
			continue
		}
		if _, unsafe := t.UnsafeWrite(base); unsafe {
			continue // already reported by the base check
		}
		for _, r := range t.Reserved {
			if base < r.Start && base+0xFF >= r.Start {
				report(fmt.Sprintf(
					"indexed write from $%04X can reach the %s register range", base, r.Name), in)
				break
			}
		}
	}
}

// checkStackBalance compares push and pull counts over the whole stream
// and flags pulls that underflow on the straight-line path. Labels are
// join points with unknown incoming depth, so underflow tracking stops at
// each one. Generated code brackets every spill, so a finding here signals
// a lowering bug.
func checkStackBalance(s *mos.Stream, _ atari.Target, report reporter) {
	pushes, pulls := 0, 0
	depth, known := 0, true
	for _, it := range s.Items {
		if it.Label != "" {
			known = false
			continue
		}
		in := it.Inst
		if in == nil {
			continue
		}
		switch in.Mn {
		case mos.PHA, mos.PHP:
			pushes++
			depth++
		case mos.PLA, mos.PLP:
			pulls++
			if known && depth == 0 {
				report("pull with no prior push on this path", in)
				known = false
			}
			depth--
		case mos.JMP, mos.JSR, mos.RTS:
			known = false
		}
	}
	if pushes != pulls {
		report(fmt.Sprintf("stack imbalance: %d pushes against %d pulls", pushes, pulls), nil)
	}
}

// checkIndirectJumpBug flags JMP ($xxFF): the NMOS 6502 fetches the high
// vector byte from $xx00 instead of crossing the page.
func checkIndirectJumpBug(s *mos.Stream, _ atari.Target, report reporter) {
	for _, it := range s.Items {
		in := it.Inst
		if in == nil || in.Mn != mos.JMP || in.Mode != mos.Indirect {
			continue
		}
		if in.Arg.Sym == "" && in.Target == "" && in.Arg.Value&0x00FF == 0x00FF {
			report(fmt.Sprintf("indirect jump through $%04X hits the page-wrap vector bug", in.Arg.Value), in)
		}
	}
}

// checkBrk flags BRK: emitted programs have no break handler installed, so
// execution falls into whatever the OS vector points at.
func checkBrk(s *mos.Stream, _ atari.Target, report reporter) {
	for _, it := range s.Items {
		in := it.Inst
		if in == nil || in.Mn != mos.BRK {
			continue
		}
		report("BRK executes with no break handler installed", in)
	}
}
