package mos

// Encoding is one legal (mnemonic, mode) pair with its machine costs.
type Encoding struct {
	Mn         Mnemonic
	Mode       Mode
	Opcode     byte // opcode hex value
	Size       byte // opcode + operand bytes
	Cycles     byte // base execution cycles
	PageCycles byte // extra cycles when the access crosses a page boundary
}

// All legal (mnemonic, mode) pairs of the documented NMOS 6502.
var encodings = []Encoding{
	{LDA, Immediate, 0xa9, 2, 2, 0},
	{LDA, ZeroPage, 0xa5, 2, 3, 0},
	{LDA, ZeroPageX, 0xb5, 2, 4, 0},
	{LDA, Absolute, 0xad, 3, 4, 0},
	{LDA, AbsoluteX, 0xbd, 3, 4, 1},
	{LDA, AbsoluteY, 0xb9, 3, 4, 1},
	{LDA, IndirectX, 0xa1, 2, 6, 0},
	{LDA, IndirectY, 0xb1, 2, 5, 1},

	{LDX, Immediate, 0xa2, 2, 2, 0},
	{LDX, ZeroPage, 0xa6, 2, 3, 0},
	{LDX, ZeroPageY, 0xb6, 2, 4, 0},
	{LDX, Absolute, 0xae, 3, 4, 0},
	{LDX, AbsoluteY, 0xbe, 3, 4, 1},

	{LDY, Immediate, 0xa0, 2, 2, 0},
	{LDY, ZeroPage, 0xa4, 2, 3, 0},
	{LDY, ZeroPageX, 0xb4, 2, 4, 0},
	{LDY, Absolute, 0xac, 3, 4, 0},
	{LDY, AbsoluteX, 0xbc, 3, 4, 1},

	{STA, ZeroPage, 0x85, 2, 3, 0},
	{STA, ZeroPageX, 0x95, 2, 4, 0},
	{STA, Absolute, 0x8d, 3, 4, 0},
	{STA, AbsoluteX, 0x9d, 3, 5, 0},
	{STA, AbsoluteY, 0x99, 3, 5, 0},
	{STA, IndirectX, 0x81, 2, 6, 0},
	{STA, IndirectY, 0x91, 2, 6, 0},

	{STX, ZeroPage, 0x86, 2, 3, 0},
	{STX, ZeroPageY, 0x96, 2, 4, 0},
	{STX, Absolute, 0x8e, 3, 4, 0},

	{STY, ZeroPage, 0x84, 2, 3, 0},
	{STY, ZeroPageX, 0x94, 2, 4, 0},
	{STY, Absolute, 0x8c, 3, 4, 0},

	{ADC, Immediate, 0x69, 2, 2, 0},
	{ADC, ZeroPage, 0x65, 2, 3, 0},
	{ADC, ZeroPageX, 0x75, 2, 4, 0},
	{ADC, Absolute, 0x6d, 3, 4, 0},
	{ADC, AbsoluteX, 0x7d, 3, 4, 1},
	{ADC, AbsoluteY, 0x79, 3, 4, 1},
	{ADC, IndirectX, 0x61, 2, 6, 0},
	{ADC, IndirectY, 0x71, 2, 5, 1},

	{SBC, Immediate, 0xe9, 2, 2, 0},
	{SBC, ZeroPage, 0xe5, 2, 3, 0},
	{SBC, ZeroPageX, 0xf5, 2, 4, 0},
	{SBC, Absolute, 0xed, 3, 4, 0},
	{SBC, AbsoluteX, 0xfd, 3, 4, 1},
	{SBC, AbsoluteY, 0xf9, 3, 4, 1},
	{SBC, IndirectX, 0xe1, 2, 6, 0},
	{SBC, IndirectY, 0xf1, 2, 5, 1},

	{CMP, Immediate, 0xc9, 2, 2, 0},
	{CMP, ZeroPage, 0xc5, 2, 3, 0},
	{CMP, ZeroPageX, 0xd5, 2, 4, 0},
	{CMP, Absolute, 0xcd, 3, 4, 0},
	{CMP, AbsoluteX, 0xdd, 3, 4, 1},
	{CMP, AbsoluteY, 0xd9, 3, 4, 1},
	{CMP, IndirectX, 0xc1, 2, 6, 0},
	{CMP, IndirectY, 0xd1, 2, 5, 1},

	{CPX, Immediate, 0xe0, 2, 2, 0},
	{CPX, ZeroPage, 0xe4, 2, 3, 0},
	{CPX, Absolute, 0xec, 3, 4, 0},

	{CPY, Immediate, 0xc0, 2, 2, 0},
	{CPY, ZeroPage, 0xc4, 2, 3, 0},
	{CPY, Absolute, 0xcc, 3, 4, 0},

	{AND, Immediate, 0x29, 2, 2, 0},
	{AND, ZeroPage, 0x25, 2, 3, 0},
	{AND, ZeroPageX, 0x35, 2, 4, 0},
	{AND, Absolute, 0x2d, 3, 4, 0},
	{AND, AbsoluteX, 0x3d, 3, 4, 1},
	{AND, AbsoluteY, 0x39, 3, 4, 1},
	{AND, IndirectX, 0x21, 2, 6, 0},
	{AND, IndirectY, 0x31, 2, 5, 1},

	{ORA, Immediate, 0x09, 2, 2, 0},
	{ORA, ZeroPage, 0x05, 2, 3, 0},
	{ORA, ZeroPageX, 0x15, 2, 4, 0},
	{ORA, Absolute, 0x0d, 3, 4, 0},
	{ORA, AbsoluteX, 0x1d, 3, 4, 1},
	{ORA, AbsoluteY, 0x19, 3, 4, 1},
	{ORA, IndirectX, 0x01, 2, 6, 0},
	{ORA, IndirectY, 0x11, 2, 5, 1},

	{EOR, Immediate, 0x49, 2, 2, 0},
	{EOR, ZeroPage, 0x45, 2, 3, 0},
	{EOR, ZeroPageX, 0x55, 2, 4, 0},
	{EOR, Absolute, 0x4d, 3, 4, 0},
	{EOR, AbsoluteX, 0x5d, 3, 4, 1},
	{EOR, AbsoluteY, 0x59, 3, 4, 1},
	{EOR, IndirectX, 0x41, 2, 6, 0},
	{EOR, IndirectY, 0x51, 2, 5, 1},

	{BIT, ZeroPage, 0x24, 2, 3, 0},
	{BIT, Absolute, 0x2c, 3, 4, 0},

	{ASL, Accumulator, 0x0a, 1, 2, 0},
	{ASL, ZeroPage, 0x06, 2, 5, 0},
	{ASL, ZeroPageX, 0x16, 2, 6, 0},
	{ASL, Absolute, 0x0e, 3, 6, 0},
	{ASL, AbsoluteX, 0x1e, 3, 7, 0},

	{LSR, Accumulator, 0x4a, 1, 2, 0},
	{LSR, ZeroPage, 0x46, 2, 5, 0},
	{LSR, ZeroPageX, 0x56, 2, 6, 0},
	{LSR, Absolute, 0x4e, 3, 6, 0},
	{LSR, AbsoluteX, 0x5e, 3, 7, 0},

	{ROL, Accumulator, 0x2a, 1, 2, 0},
	{ROL, ZeroPage, 0x26, 2, 5, 0},
	{ROL, ZeroPageX, 0x36, 2, 6, 0},
	{ROL, Absolute, 0x2e, 3, 6, 0},
	{ROL, AbsoluteX, 0x3e, 3, 7, 0},

	{ROR, Accumulator, 0x6a, 1, 2, 0},
	{ROR, ZeroPage, 0x66, 2, 5, 0},
	{ROR, ZeroPageX, 0x76, 2, 6, 0},
	{ROR, Absolute, 0x6e, 3, 6, 0},
	{ROR, AbsoluteX, 0x7e, 3, 7, 0},

	{INC, ZeroPage, 0xe6, 2, 5, 0},
	{INC, ZeroPageX, 0xf6, 2, 6, 0},
	{INC, Absolute, 0xee, 3, 6, 0},
	{INC, AbsoluteX, 0xfe, 3, 7, 0},

	{DEC, ZeroPage, 0xc6, 2, 5, 0},
	{DEC, ZeroPageX, 0xd6, 2, 6, 0},
	{DEC, Absolute, 0xce, 3, 6, 0},
	{DEC, AbsoluteX, 0xde, 3, 7, 0},

	{INX, Implied, 0xe8, 1, 2, 0},
	{INY, Implied, 0xc8, 1, 2, 0},
	{DEX, Implied, 0xca, 1, 2, 0},
	{DEY, Implied, 0x88, 1, 2, 0},

	{JMP, Absolute, 0x4c, 3, 3, 0},
	{JMP, Indirect, 0x6c, 3, 5, 0},
	{JSR, Absolute, 0x20, 3, 6, 0},
	{RTS, Implied, 0x60, 1, 6, 0},
	{RTI, Implied, 0x40, 1, 6, 0},
	{BRK, Implied, 0x00, 1, 7, 0},

	{BCC, Relative, 0x90, 2, 2, 1},
	{BCS, Relative, 0xb0, 2, 2, 1},
	{BEQ, Relative, 0xf0, 2, 2, 1},
	{BNE, Relative, 0xd0, 2, 2, 1},
	{BMI, Relative, 0x30, 2, 2, 1},
	{BPL, Relative, 0x10, 2, 2, 1},
	{BVC, Relative, 0x50, 2, 2, 1},
	{BVS, Relative, 0x70, 2, 2, 1},

	{PHA, Implied, 0x48, 1, 3, 0},
	{PHP, Implied, 0x08, 1, 3, 0},
	{PLA, Implied, 0x68, 1, 4, 0},
	{PLP, Implied, 0x28, 1, 4, 0},

	{CLC, Implied, 0x18, 1, 2, 0},
	{SEC, Implied, 0x38, 1, 2, 0},
	{CLI, Implied, 0x58, 1, 2, 0},
	{SEI, Implied, 0x78, 1, 2, 0},
	{CLD, Implied, 0xd8, 1, 2, 0},
	{SED, Implied, 0xf8, 1, 2, 0},
	{CLV, Implied, 0xb8, 1, 2, 0},

	{TAX, Implied, 0xaa, 1, 2, 0},
	{TAY, Implied, 0xa8, 1, 2, 0},
	{TSX, Implied, 0xba, 1, 2, 0},
	{TXA, Implied, 0x8a, 1, 2, 0},
	{TXS, Implied, 0x9a, 1, 2, 0},
	{TYA, Implied, 0x98, 1, 2, 0},

	{NOP, Implied, 0xea, 1, 2, 0},
}

type modeKey struct {
	mn   Mnemonic
	mode Mode
}

var byModeKey map[modeKey]Encoding

func init() {
	byModeKey = make(map[modeKey]Encoding, len(encodings))
	for _, e := range encodings {
		byModeKey[modeKey{e.Mn, e.Mode}] = e
	}
}

// Lookup returns the encoding for a (mnemonic, mode) pair, or ok=false when
// the pair is not part of the documented instruction set.
func Lookup(mn Mnemonic, mode Mode) (Encoding, bool) {
	e, ok := byModeKey[modeKey{mn, mode}]
	return e, ok
}

// HasMode reports whether the mnemonic supports the addressing mode.
func HasMode(mn Mnemonic, mode Mode) bool {
	_, ok := byModeKey[modeKey{mn, mode}]
	return ok
}

// Size returns the total instruction byte length, 0 for illegal pairs.
func Size(mn Mnemonic, mode Mode) int {
	if e, ok := Lookup(mn, mode); ok {
		return int(e.Size)
	}
	return 0
}
