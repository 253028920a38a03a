package opt

import (
	"testing"

	"t65/internal/mos"
)

// machine is a small reference interpreter used to check that rewritten
// streams behave like their inputs. It covers only the mnemonics the
// instruction selector emits and works on numeric operands.
type machine struct {
	a, x, y byte
	c, z, n bool
	sp      byte
	mem     [65536]byte
}

const stepLimit = 5000

func newMachine() *machine {
	return &machine{sp: 0xFF}
}

func (m *machine) setZN(v byte) {
	m.z = v == 0
	m.n = v&0x80 != 0
}

func (m *machine) effAddr(t *testing.T, in *mos.Instruction) uint16 {
	if in.Arg.Sym != "" {
		t.Fatalf("interpreter requires numeric operands, got %q", in.Arg.Sym)
	}
	v := in.Arg.Value
	switch in.Mode {
	case mos.ZeroPage, mos.Absolute:
		return v
	case mos.ZeroPageX, mos.AbsoluteX:
		return v + uint16(m.x)
	case mos.ZeroPageY, mos.AbsoluteY:
		return v + uint16(m.y)
	case mos.IndirectY:
		base := uint16(m.mem[v]) | uint16(m.mem[v+1])<<8
		return base + uint16(m.y)
	default:
		t.Fatalf("unsupported addressing mode %s in %s", in.Mode, in)
		return 0
	}
}

func (m *machine) operand(t *testing.T, in *mos.Instruction) byte {
	if in.Mode == mos.Immediate {
		v := in.Arg.Value
		switch in.Arg.Part {
		case mos.PartHi:
			return byte(v >> 8)
		default:
			return byte(v)
		}
	}
	return m.mem[m.effAddr(t, in)]
}

func (m *machine) push(v byte) {
	m.mem[0x0100+uint16(m.sp)] = v
	m.sp--
}

func (m *machine) pull() byte {
	m.sp++
	return m.mem[0x0100+uint16(m.sp)]
}

// run executes the stream from its first item until BRK, RTS, or the end
// of the stream, failing the test on anything it cannot model.
func run(t *testing.T, s *mos.Stream) *machine {
	t.Helper()
	m := newMachine()
	defs, dups := s.Labels()
	if len(dups) > 0 {
		t.Fatalf("duplicate labels: %v", dups)
	}
	pc := 0
	for steps := 0; ; steps++ {
		if steps >= stepLimit {
			t.Fatalf("step limit reached, likely a rewrite broke control flow")
		}
		if pc >= len(s.Items) {
			return m
		}
		it := s.Items[pc]
		if it.Inst == nil {
			pc++
			continue
		}
		in := it.Inst
		branch := func(taken bool) {
			if !taken {
				pc++
				return
			}
			idx, ok := defs[in.Target]
			if !ok {
				t.Fatalf("branch to undefined label %q", in.Target)
			}
			pc = idx
		}
		switch in.Mn {
		case mos.LDA:
			m.a = m.operand(t, in)
			m.setZN(m.a)
		case mos.LDX:
			m.x = m.operand(t, in)
			m.setZN(m.x)
		case mos.LDY:
			m.y = m.operand(t, in)
			m.setZN(m.y)
		case mos.STA:
			m.mem[m.effAddr(t, in)] = m.a
		case mos.STX:
			m.mem[m.effAddr(t, in)] = m.x
		case mos.STY:
			m.mem[m.effAddr(t, in)] = m.y
		case mos.ADC:
			v := m.operand(t, in)
			sum := uint16(m.a) + uint16(v)
			if m.c {
				sum++
			}
			m.a = byte(sum)
			m.c = sum > 0xFF
			m.setZN(m.a)
		case mos.SBC:
			v := m.operand(t, in)
			diff := int(m.a) - int(v)
			if !m.c {
				diff--
			}
			m.c = diff >= 0
			m.a = byte(diff)
			m.setZN(m.a)
		case mos.CMP:
			v := m.operand(t, in)
			m.c = m.a >= v
			m.setZN(m.a - v)
		case mos.EOR:
			m.a ^= m.operand(t, in)
			m.setZN(m.a)
		case mos.AND:
			m.a &= m.operand(t, in)
			m.setZN(m.a)
		case mos.ORA:
			m.a |= m.operand(t, in)
			m.setZN(m.a)
		case mos.INC:
			addr := m.effAddr(t, in)
			m.mem[addr]++
			m.setZN(m.mem[addr])
		case mos.DEC:
			addr := m.effAddr(t, in)
			m.mem[addr]--
			m.setZN(m.mem[addr])
		case mos.INX:
			m.x++
			m.setZN(m.x)
		case mos.INY:
			m.y++
			m.setZN(m.y)
		case mos.DEX:
			m.x--
			m.setZN(m.x)
		case mos.DEY:
			m.y--
			m.setZN(m.y)
		case mos.TAX:
			m.x = m.a
			m.setZN(m.x)
		case mos.TAY:
			m.y = m.a
			m.setZN(m.y)
		case mos.TXA:
			m.a = m.x
			m.setZN(m.a)
		case mos.TYA:
			m.a = m.y
			m.setZN(m.a)
		case mos.CLC:
			m.c = false
		case mos.SEC:
			m.c = true
		case mos.PHA:
			m.push(m.a)
		case mos.PLA:
			m.a = m.pull()
			m.setZN(m.a)
		case mos.JMP:
			branch(true)
			continue
		case mos.BEQ:
			branch(m.z)
			continue
		case mos.BNE:
			branch(!m.z)
			continue
		case mos.BCS:
			branch(m.c)
			continue
		case mos.BCC:
			branch(!m.c)
			continue
		case mos.BMI:
			branch(m.n)
			continue
		case mos.BPL:
			branch(!m.n)
			continue
		case mos.NOP:
		case mos.BRK, mos.RTS:
			return m
		default:
			t.Fatalf("interpreter does not model %s", in)
		}
		pc++
	}
}
