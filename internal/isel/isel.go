// Package isel lowers IR operations to 6502 instruction sequences. Each
// operation kind expands through a fixed template; templates address their
// operands through the cheapest mode the storage slot allows, and prefer
// accumulator forms over index-register forms. Operand combinations the
// hardware cannot encode produce Fatal diagnostics naming the operation.
package isel

import (
	"fmt"

	"t65/internal/atari"
	"t65/internal/diag"
	"t65/internal/ir"
	"t65/internal/mos"
	"t65/internal/zpalloc"
)

type selector struct {
	prog       *ir.Program
	asn        zpalloc.Assignment
	bag        *diag.Bag
	out        *mos.Stream
	labelCount int
}

// Select lowers the program into an instruction stream, recording Fatal
// diagnostics for operations it cannot encode. The returned stream is only
// emittable when the bag stays free of fatal diagnostics.
func Select(prog *ir.Program, asn zpalloc.Assignment, bag *diag.Bag) *mos.Stream {
	s := &selector{prog: prog, asn: asn, bag: bag, out: &mos.Stream{}}
	for _, op := range prog.Ops {
		s.out.PushComment(op.String())
		s.lower(op)
	}
	return s.out
}

func (s *selector) lower(op ir.Op) {
	switch op.Kind {
	case ir.OpLabel:
		s.out.PushLabel(op.Name)
	case ir.OpJump:
		s.inst(op, mos.JMP, mos.Absolute, mos.Arg{}, op.Name)
	case ir.OpCall:
		s.inst(op, mos.JSR, mos.Absolute, mos.Arg{}, op.Name)
	case ir.OpBranch:
		s.lowerBranch(op)
	case ir.OpMove:
		s.lowerMove(op)
	case ir.OpMoveZeroExtend:
		s.lowerMoveZX(op)
	case ir.OpConditionalMove:
		s.lowerCMove(op)
	case ir.OpAdd:
		s.lowerAdd(op)
	case ir.OpSub:
		s.lowerSub(op)
	case ir.OpXor:
		s.lowerXor(op)
	case ir.OpInc:
		s.lowerInc(op)
	case ir.OpDec:
		s.lowerDec(op)
	case ir.OpCompare:
		s.lowerCompare(op)
	case ir.OpPush:
		s.lowerPush(op)
	default:
		s.fatal(op, "unknown IR operation kind %d", op.Kind)
	}
}

// inst appends one instruction carrying the op's source line.
func (s *selector) inst(op ir.Op, mn mos.Mnemonic, mode mos.Mode, arg mos.Arg, target string) {
	s.out.PushInst(mos.Instruction{Mn: mn, Mode: mode, Arg: arg, Target: target, Line: op.Line})
}

func (s *selector) fatal(op ir.Op, format string, args ...interface{}) {
	s.bag.Fatalf(op.String(), op.Line, format, args...)
}

func (s *selector) newLabel() string {
	l := fmt.Sprintf("T65_%d", s.labelCount)
	s.labelCount++
	return l
}

// memArg resolves a symbol operand to its slot's argument and the cheapest
// addressing mode that reaches it. disp selects the byte within a word.
func (s *selector) memArg(name string, disp int) (mos.Arg, mos.Mode, bool) {
	slot, ok := s.asn.Slot(name)
	if !ok {
		return mos.Arg{}, 0, false
	}
	arg := mos.Arg{Sym: zpalloc.EquateName(name), Disp: disp}
	if slot.Kind == zpalloc.ZeroPage {
		return arg, mos.ZeroPage, true
	}
	return arg, mos.Absolute, true
}

// addrArg picks zero-page addressing for absolute addresses that happen to
// live in page zero; always the smallest legal encoding.
func addrArg(addr uint16) (mos.Arg, mos.Mode) {
	if addr < 0x0100 {
		return mos.Arg{Value: addr}, mos.ZeroPage
	}
	return mos.Arg{Value: addr}, mos.Absolute
}

func (s *selector) symbolOf(op ir.Op, name string) *ir.Symbol {
	sym := s.prog.SymbolNamed(name)
	if sym == nil {
		s.fatal(op, "undeclared symbol %q", name)
	}
	return sym
}

// loadSym / storeSym move one byte between A and a symbol slot.
func (s *selector) loadSym(op ir.Op, name string, disp int) bool {
	arg, mode, ok := s.memArg(name, disp)
	if !ok {
		s.fatal(op, "symbol %q has no storage slot", name)
		return false
	}
	s.inst(op, mos.LDA, mode, arg, "")
	return true
}

func (s *selector) storeSym(op ir.Op, name string, disp int) bool {
	arg, mode, ok := s.memArg(name, disp)
	if !ok {
		s.fatal(op, "symbol %q has no storage slot", name)
		return false
	}
	s.inst(op, mos.STA, mode, arg, "")
	return true
}

func (s *selector) pha(op ir.Op) { s.inst(op, mos.PHA, mos.Implied, mos.Arg{}, "") }
func (s *selector) pla(op ir.Op) { s.inst(op, mos.PLA, mos.Implied, mos.Arg{}, "") }

func (s *selector) lowerBranch(op ir.Op) {
	var mn mos.Mnemonic
	switch op.Cond {
	case ir.CondEq:
		mn = mos.BEQ
	case ir.CondNe:
		mn = mos.BNE
	case ir.CondLt:
		mn = mos.BCC
	case ir.CondGe:
		mn = mos.BCS
	default:
		s.fatal(op, "branch without condition")
		return
	}
	s.inst(op, mn, mos.Relative, mos.Arg{}, op.Name)
}

func (s *selector) lowerCompare(op ir.Op) {
	if _, ok := op.Dst.(ir.Acc); !ok {
		s.fatal(op, "compare supports only the accumulator on the left")
		return
	}
	switch src := op.Src.(type) {
	case ir.Imm:
		s.inst(op, mos.CMP, mos.Immediate, mos.Arg{Value: uint16(src.Value)}, "")
	case ir.Sym:
		sym := s.symbolOf(op, src.Name)
		if sym == nil {
			return
		}
		if sym.Size != ir.Byte {
			s.fatal(op, "compare against %s symbol %q is not encodable", sym.Size, sym.Name)
			return
		}
		arg, mode, _ := s.memArg(src.Name, 0)
		s.inst(op, mos.CMP, mode, arg, "")
	case ir.Addr:
		arg, mode := addrArg(src.Value)
		s.inst(op, mos.CMP, mode, arg, "")
	default:
		s.fatal(op, "unsupported compare operand %s", op.Src)
	}
}

func (s *selector) lowerMove(op ir.Op) {
	switch dst := op.Dst.(type) {
	case ir.Acc:
		switch src := op.Src.(type) {
		case ir.Imm:
			s.inst(op, mos.LDA, mos.Immediate, mos.Arg{Value: uint16(src.Value)}, "")
		case ir.Addr:
			arg, mode := addrArg(src.Value)
			s.inst(op, mos.LDA, mode, arg, "")
		case ir.Sym:
			s.loadSym(op, src.Name, 0)
		default:
			s.fatal(op, "unsupported move into accumulator from %s", op.Src)
		}
	case ir.Addr:
		darg, dmode := addrArg(dst.Value)
		switch src := op.Src.(type) {
		case ir.Acc:
			s.inst(op, mos.STA, dmode, darg, "")
		case ir.Imm:
			s.pha(op)
			s.inst(op, mos.LDA, mos.Immediate, mos.Arg{Value: uint16(src.Value)}, "")
			s.inst(op, mos.STA, dmode, darg, "")
			s.pla(op)
		case ir.Sym:
			s.pha(op)
			if s.loadSym(op, src.Name, 0) {
				s.inst(op, mos.STA, dmode, darg, "")
			}
			s.pla(op)
		default:
			s.fatal(op, "unsupported move to address from %s", op.Src)
		}
	case ir.Sym:
		sym := s.symbolOf(op, dst.Name)
		if sym == nil {
			return
		}
		switch src := op.Src.(type) {
		case ir.Imm:
			s.pha(op)
			if sym.Size == ir.Byte {
				s.inst(op, mos.LDA, mos.Immediate, mos.Arg{Value: uint16(src.Value)}, "")
				s.storeSym(op, dst.Name, 0)
			} else {
				s.inst(op, mos.LDA, mos.Immediate, mos.Arg{Value: uint16(src.Value), Part: mos.PartLo}, "")
				s.storeSym(op, dst.Name, 0)
				s.inst(op, mos.LDA, mos.Immediate, mos.Arg{Value: uint16(src.Value), Part: mos.PartHi}, "")
				s.storeSym(op, dst.Name, 1)
			}
			s.pla(op)
		case ir.Acc:
			s.storeSym(op, dst.Name, 0)
			if sym.Size != ir.Byte {
				s.pha(op)
				s.inst(op, mos.LDA, mos.Immediate, mos.Arg{Value: 0}, "")
				s.storeSym(op, dst.Name, 1)
				s.pla(op)
			}
		case ir.Addr:
			arg, mode := addrArg(src.Value)
			s.pha(op)
			s.inst(op, mos.LDA, mode, arg, "")
			s.storeSym(op, dst.Name, 0)
			s.pla(op)
		case ir.Sym:
			s.pha(op)
			width := 1
			if ssym := s.symbolOf(op, src.Name); ssym != nil && ssym.Size != ir.Byte && sym.Size != ir.Byte {
				width = 2
			}
			for i := 0; i < width; i++ {
				if !s.loadSym(op, src.Name, i) || !s.storeSym(op, dst.Name, i) {
					break
				}
			}
			s.pla(op)
		default:
			s.fatal(op, "unsupported move to symbol from %s", op.Src)
		}
	case ir.SumAddr:
		s.lowerStoreSum(op, dst)
	default:
		s.fatal(op, "unsupported move destination %s", op.Dst)
	}
}

// lowerStoreSum stores a value through the runtime sum of two pointer
// symbols: the sum is formed in TMPW and the store goes through (TMPW),Y.
// Indirect-indexed addressing reads its pointer from zero page, so both
// components must hold zero-page slots.
func (s *selector) lowerStoreSum(op ir.Op, dst ir.SumAddr) {
	for _, name := range []string{dst.A, dst.B} {
		if s.symbolOf(op, name) == nil {
			return
		}
		if !s.asn.InZeroPage(name) {
			s.fatal(op, "indirect addressing requires zero-page operand, but %q is in absolute storage", name)
			return
		}
	}
	imm, ok := op.Src.(ir.Imm)
	if !ok {
		s.fatal(op, "unsupported indirect store source %s", op.Src)
		return
	}

	tmp := func(disp int) mos.Arg { return mos.Arg{Sym: atari.TmpWordName, Disp: disp} }
	aArg := func(name string, disp int) mos.Arg {
		return mos.Arg{Sym: zpalloc.EquateName(name), Disp: disp}
	}

	s.pha(op)
	s.inst(op, mos.TYA, mos.Implied, mos.Arg{}, "")
	s.pha(op)
	s.inst(op, mos.LDA, mos.ZeroPage, aArg(dst.A, 0), "")
	s.inst(op, mos.STA, mos.ZeroPage, tmp(0), "")
	s.inst(op, mos.LDA, mos.ZeroPage, aArg(dst.A, 1), "")
	s.inst(op, mos.STA, mos.ZeroPage, tmp(1), "")
	s.inst(op, mos.CLC, mos.Implied, mos.Arg{}, "")
	s.inst(op, mos.LDA, mos.ZeroPage, tmp(0), "")
	s.inst(op, mos.ADC, mos.ZeroPage, aArg(dst.B, 0), "")
	s.inst(op, mos.STA, mos.ZeroPage, tmp(0), "")
	s.inst(op, mos.LDA, mos.ZeroPage, tmp(1), "")
	s.inst(op, mos.ADC, mos.ZeroPage, aArg(dst.B, 1), "")
	s.inst(op, mos.STA, mos.ZeroPage, tmp(1), "")
	s.inst(op, mos.LDY, mos.Immediate, mos.Arg{Value: 0}, "")
	s.inst(op, mos.LDA, mos.Immediate, mos.Arg{Value: uint16(imm.Value)}, "")
	s.inst(op, mos.STA, mos.IndirectY, tmp(0), "")
	s.pla(op)
	s.inst(op, mos.TAY, mos.Implied, mos.Arg{}, "")
	s.pla(op)
}

func (s *selector) lowerMoveZX(op ir.Op) {
	switch dst := op.Dst.(type) {
	case ir.Sym:
		if src, ok := op.Src.(ir.Sym); ok && src.Name == dst.Name {
			return // zero-extend in place: nothing to do
		}
		sym := s.symbolOf(op, dst.Name)
		if sym == nil {
			return
		}
		if _, ok := op.Src.(ir.Acc); !ok {
			s.fatal(op, "unsupported zero-extend source %s", op.Src)
			return
		}
		s.storeSym(op, dst.Name, 0)
		if sym.Size != ir.Byte {
			s.pha(op)
			s.inst(op, mos.LDA, mos.Immediate, mos.Arg{Value: 0}, "")
			s.storeSym(op, dst.Name, 1)
			s.pla(op)
		}
	case ir.Acc:
		if src, ok := op.Src.(ir.Sym); ok {
			s.loadSym(op, src.Name, 0)
			return
		}
		s.fatal(op, "unsupported zero-extend source %s", op.Src)
	default:
		s.fatal(op, "unsupported zero-extend destination %s", op.Dst)
	}
}

// lowerCMove branches over a plain move on the flags the preceding compare
// left behind, the way the front end pairs them. The branch fires while the
// flags are still live; the guarded move may then clobber them freely.
func (s *selector) lowerCMove(op ir.Op) {
	var branchAway mos.Mnemonic
	switch op.Cond {
	case ir.CondEq:
		branchAway = mos.BNE
	case ir.CondNe:
		branchAway = mos.BEQ
	case ir.CondLt:
		branchAway = mos.BCS
	case ir.CondGe:
		branchAway = mos.BCC
	default:
		s.fatal(op, "conditional move without condition")
		return
	}

	imm, ok := op.Src.(ir.Imm)
	if !ok {
		s.fatal(op, "unsupported conditional move source %s", op.Src)
		return
	}

	skip := s.newLabel()
	switch dst := op.Dst.(type) {
	case ir.Acc:
		s.inst(op, branchAway, mos.Relative, mos.Arg{}, skip)
		s.inst(op, mos.LDA, mos.Immediate, mos.Arg{Value: uint16(imm.Value)}, "")
		s.out.PushLabel(skip)
	case ir.Sym:
		sym := s.symbolOf(op, dst.Name)
		if sym == nil {
			return
		}
		s.inst(op, branchAway, mos.Relative, mos.Arg{}, skip)
		s.pha(op)
		if sym.Size == ir.Byte {
			s.inst(op, mos.LDA, mos.Immediate, mos.Arg{Value: uint16(imm.Value)}, "")
			s.storeSym(op, dst.Name, 0)
		} else {
			s.inst(op, mos.LDA, mos.Immediate, mos.Arg{Value: uint16(imm.Value), Part: mos.PartLo}, "")
			s.storeSym(op, dst.Name, 0)
			s.inst(op, mos.LDA, mos.Immediate, mos.Arg{Value: uint16(imm.Value), Part: mos.PartHi}, "")
			s.storeSym(op, dst.Name, 1)
		}
		s.pla(op)
		s.out.PushLabel(skip)
	default:
		s.fatal(op, "unsupported conditional move destination %s", op.Dst)
	}
}

func (s *selector) lowerAdd(op ir.Op) {
	s.lowerAddSub(op, false)
}

func (s *selector) lowerSub(op ir.Op) {
	s.lowerAddSub(op, true)
}

// lowerAddSub implements dst = dst ± src with carry propagation for word
// destinations. A negative immediate addend flips into the subtract form.
func (s *selector) lowerAddSub(op ir.Op, negate bool) {
	if imm, ok := op.Src.(ir.Imm); ok && imm.Value < 0 {
		op.Src = ir.Imm{Value: -imm.Value}
		negate = !negate
	}

	prep := mos.CLC
	arith := mos.ADC
	if negate {
		prep = mos.SEC
		arith = mos.SBC
	}

	switch dst := op.Dst.(type) {
	case ir.Acc:
		s.inst(op, prep, mos.Implied, mos.Arg{}, "")
		switch src := op.Src.(type) {
		case ir.Imm:
			s.inst(op, arith, mos.Immediate, mos.Arg{Value: uint16(src.Value)}, "")
		case ir.Addr:
			arg, mode := addrArg(src.Value)
			s.inst(op, arith, mode, arg, "")
		case ir.Sym:
			arg, mode, ok := s.memArg(src.Name, 0)
			if !ok {
				s.fatal(op, "symbol %q has no storage slot", src.Name)
				return
			}
			s.inst(op, arith, mode, arg, "")
		default:
			s.fatal(op, "unsupported arithmetic source %s", op.Src)
		}
	case ir.Sym:
		sym := s.symbolOf(op, dst.Name)
		if sym == nil {
			return
		}
		width := sym.Size.Bytes()

		if _, isAcc := op.Src.(ir.Acc); isAcc {
			// dst += A. Addition commutes, so the byte form folds the
			// slot into the accumulator and stores it back.
			if negate || width != 1 {
				s.fatal(op, "accumulator source supported only for byte addition")
				return
			}
			arg, mode, ok := s.memArg(dst.Name, 0)
			if !ok {
				s.fatal(op, "symbol %q has no storage slot", dst.Name)
				return
			}
			s.pha(op)
			s.inst(op, prep, mos.Implied, mos.Arg{}, "")
			s.inst(op, arith, mode, arg, "")
			s.inst(op, mos.STA, mode, arg, "")
			s.pla(op)
			return
		}

		s.pha(op)
		s.inst(op, prep, mos.Implied, mos.Arg{}, "")
		for i := 0; i < width; i++ {
			if !s.loadSym(op, dst.Name, i) {
				return
			}
			switch src := op.Src.(type) {
			case ir.Imm:
				part := mos.PartNone
				if width == 2 {
					part = mos.PartLo
					if i == 1 {
						part = mos.PartHi
					}
				}
				s.inst(op, arith, mos.Immediate, mos.Arg{Value: uint16(src.Value), Part: part}, "")
			case ir.Sym:
				srcSym := s.symbolOf(op, src.Name)
				if srcSym == nil {
					return
				}
				if i < srcSym.Size.Bytes() {
					arg, mode, _ := s.memArg(src.Name, i)
					s.inst(op, arith, mode, arg, "")
				} else {
					s.inst(op, arith, mos.Immediate, mos.Arg{Value: 0}, "")
				}
			default:
				s.fatal(op, "unsupported arithmetic source %s", op.Src)
				return
			}
			s.storeSym(op, dst.Name, i)
		}
		s.pla(op)
	case ir.Addr:
		darg, dmode := addrArg(dst.Value)
		s.pha(op)
		s.inst(op, prep, mos.Implied, mos.Arg{}, "")
		s.inst(op, mos.LDA, dmode, darg, "")
		switch src := op.Src.(type) {
		case ir.Imm:
			s.inst(op, arith, mos.Immediate, mos.Arg{Value: uint16(src.Value)}, "")
		case ir.Sym:
			arg, mode, ok := s.memArg(src.Name, 0)
			if !ok {
				s.fatal(op, "symbol %q has no storage slot", src.Name)
				return
			}
			s.inst(op, arith, mode, arg, "")
		default:
			s.fatal(op, "unsupported arithmetic source %s", op.Src)
			return
		}
		s.inst(op, mos.STA, dmode, darg, "")
		s.pla(op)
	default:
		s.fatal(op, "unsupported arithmetic destination %s", op.Dst)
	}
}

func (s *selector) lowerXor(op ir.Op) {
	// xor x, x is the canonical clear idiom.
	if same(op.Src, op.Dst) {
		switch dst := op.Dst.(type) {
		case ir.Acc:
			s.inst(op, mos.LDA, mos.Immediate, mos.Arg{Value: 0}, "")
		case ir.Sym:
			sym := s.symbolOf(op, dst.Name)
			if sym == nil {
				return
			}
			s.pha(op)
			s.inst(op, mos.LDA, mos.Immediate, mos.Arg{Value: 0}, "")
			for i := 0; i < sym.Size.Bytes(); i++ {
				s.storeSym(op, dst.Name, i)
			}
			s.pla(op)
		default:
			s.fatal(op, "unsupported clear destination %s", op.Dst)
		}
		return
	}

	if _, ok := op.Dst.(ir.Acc); !ok {
		s.fatal(op, "exclusive-or supports only the accumulator destination")
		return
	}
	switch src := op.Src.(type) {
	case ir.Imm:
		s.inst(op, mos.EOR, mos.Immediate, mos.Arg{Value: uint16(src.Value)}, "")
	case ir.Sym:
		arg, mode, ok := s.memArg(src.Name, 0)
		if !ok {
			s.fatal(op, "symbol %q has no storage slot", src.Name)
			return
		}
		s.inst(op, mos.EOR, mode, arg, "")
	case ir.Addr:
		arg, mode := addrArg(src.Value)
		s.inst(op, mos.EOR, mode, arg, "")
	default:
		s.fatal(op, "unsupported exclusive-or source %s", op.Src)
	}
}

func (s *selector) lowerInc(op ir.Op) {
	switch dst := op.Dst.(type) {
	case ir.Acc:
		s.inst(op, mos.CLC, mos.Implied, mos.Arg{}, "")
		s.inst(op, mos.ADC, mos.Immediate, mos.Arg{Value: 1}, "")
	case ir.Sym:
		sym := s.symbolOf(op, dst.Name)
		if sym == nil {
			return
		}
		arg, mode, _ := s.memArg(dst.Name, 0)
		s.inst(op, mos.INC, mode, arg, "")
		if sym.Size != ir.Byte {
			skip := s.newLabel()
			s.inst(op, mos.BNE, mos.Relative, mos.Arg{}, skip)
			hi, himode, _ := s.memArg(dst.Name, 1)
			s.inst(op, mos.INC, himode, hi, "")
			s.out.PushLabel(skip)
		}
	case ir.Addr:
		arg, mode := addrArg(dst.Value)
		s.inst(op, mos.INC, mode, arg, "")
	default:
		s.fatal(op, "unsupported increment destination %s", op.Dst)
	}
}

func (s *selector) lowerDec(op ir.Op) {
	switch dst := op.Dst.(type) {
	case ir.Acc:
		s.inst(op, mos.SEC, mos.Implied, mos.Arg{}, "")
		s.inst(op, mos.SBC, mos.Immediate, mos.Arg{Value: 1}, "")
	case ir.Sym:
		sym := s.symbolOf(op, dst.Name)
		if sym == nil {
			return
		}
		arg, mode, _ := s.memArg(dst.Name, 0)
		if sym.Size == ir.Byte {
			s.inst(op, mos.DEC, mode, arg, "")
			return
		}
		// 16-bit decrement: drop the high byte only when the low byte
		// wraps. LDA sets Z from the pre-decrement low byte.
		skip := s.newLabel()
		s.pha(op)
		s.inst(op, mos.LDA, mode, arg, "")
		s.inst(op, mos.BNE, mos.Relative, mos.Arg{}, skip)
		hi, himode, _ := s.memArg(dst.Name, 1)
		s.inst(op, mos.DEC, himode, hi, "")
		s.out.PushLabel(skip)
		s.inst(op, mos.DEC, mode, arg, "")
		s.pla(op)
	case ir.Addr:
		arg, mode := addrArg(dst.Value)
		s.inst(op, mos.DEC, mode, arg, "")
	default:
		s.fatal(op, "unsupported decrement destination %s", op.Dst)
	}
}

func (s *selector) lowerPush(op ir.Op) {
	if _, ok := op.Dst.(ir.Acc); ok {
		s.pha(op)
		return
	}
	s.fatal(op, "push supports only the accumulator")
}

func same(a, b ir.Operand) bool {
	switch av := a.(type) {
	case ir.Acc:
		_, ok := b.(ir.Acc)
		return ok
	case ir.Sym:
		bv, ok := b.(ir.Sym)
		return ok && av.Name == bv.Name
	case ir.Addr:
		bv, ok := b.(ir.Addr)
		return ok && av.Value == bv.Value
	default:
		return false
	}
}
