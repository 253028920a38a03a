package mos

// Flag bits of the 6502 processor status register, as far as the optimizer
// cares about them. B and D never participate in the rewrite rules.
type Flag byte

const (
	FlagC Flag = 1 << iota
	FlagZ
	FlagN
	FlagV
)

// FlagsWritten returns the status flags the mnemonic modifies.
func FlagsWritten(mn Mnemonic) Flag {
	switch mn {
	case ADC, SBC:
		return FlagC | FlagZ | FlagN | FlagV
	case CMP, CPX, CPY:
		return FlagC | FlagZ | FlagN
	case ASL, LSR, ROL, ROR:
		return FlagC | FlagZ | FlagN
	case AND, ORA, EOR, LDA, LDX, LDY, TAX, TAY, TXA, TYA, TSX,
		INC, DEC, INX, INY, DEX, DEY, PLA:
		return FlagZ | FlagN
	case BIT:
		return FlagZ | FlagN | FlagV
	case CLC, SEC:
		return FlagC
	case CLV:
		return FlagV
	case PLP, RTI, BRK:
		return FlagC | FlagZ | FlagN | FlagV
	default:
		return 0
	}
}

// FlagsRead returns the status flags the mnemonic observes.
func FlagsRead(mn Mnemonic) Flag {
	switch mn {
	case ADC, SBC, ROL, ROR:
		return FlagC
	case BCC, BCS:
		return FlagC
	case BEQ, BNE:
		return FlagZ
	case BMI, BPL:
		return FlagN
	case BVC, BVS:
		return FlagV
	case PHP:
		return FlagC | FlagZ | FlagN | FlagV
	default:
		return 0
	}
}
