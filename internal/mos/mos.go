// Package mos models the documented NMOS 6502 instruction set: addressing
// modes, mnemonics, per-(mnemonic, mode) encodings with byte and cycle
// costs, and the instruction stream the backend builds and optimizes.
package mos

// Mode is a memory addressing mode.
type Mode byte

const (
	Implied     Mode = iota // no operand
	Accumulator             // operates on A
	Immediate               // #$nn
	ZeroPage                // $nn
	ZeroPageX               // $nn,X
	ZeroPageY               // $nn,Y
	Absolute                // $nnnn
	AbsoluteX               // $nnnn,X
	AbsoluteY               // $nnnn,Y
	Indirect                // ($nnnn), JMP only
	IndirectX               // ($nn,X)
	IndirectY               // ($nn),Y
	Relative                // branch displacement
)

func (m Mode) String() string {
	switch m {
	case Implied:
		return "implied"
	case Accumulator:
		return "accumulator"
	case Immediate:
		return "immediate"
	case ZeroPage:
		return "zeropage"
	case ZeroPageX:
		return "zeropage,x"
	case ZeroPageY:
		return "zeropage,y"
	case Absolute:
		return "absolute"
	case AbsoluteX:
		return "absolute,x"
	case AbsoluteY:
		return "absolute,y"
	case Indirect:
		return "indirect"
	case IndirectX:
		return "indirect,x"
	case IndirectY:
		return "indirect,y"
	case Relative:
		return "relative"
	default:
		return "mode?"
	}
}

// Mnemonic identifies one documented 6502 instruction.
type Mnemonic byte

const (
	ADC Mnemonic = iota
	AND
	ASL
	BCC
	BCS
	BEQ
	BIT
	BMI
	BNE
	BPL
	BRK
	BVC
	BVS
	CLC
	CLD
	CLI
	CLV
	CMP
	CPX
	CPY
	DEC
	DEX
	DEY
	EOR
	INC
	INX
	INY
	JMP
	JSR
	LDA
	LDX
	LDY
	LSR
	NOP
	ORA
	PHA
	PHP
	PLA
	PLP
	ROL
	ROR
	RTI
	RTS
	SBC
	SEC
	SED
	SEI
	STA
	STX
	STY
	TAX
	TAY
	TSX
	TXA
	TXS
	TYA
)

var mnemonicNames = [...]string{
	"ADC", "AND", "ASL", "BCC", "BCS", "BEQ", "BIT", "BMI", "BNE", "BPL",
	"BRK", "BVC", "BVS", "CLC", "CLD", "CLI", "CLV", "CMP", "CPX", "CPY",
	"DEC", "DEX", "DEY", "EOR", "INC", "INX", "INY", "JMP", "JSR", "LDA",
	"LDX", "LDY", "LSR", "NOP", "ORA", "PHA", "PHP", "PLA", "PLP", "ROL",
	"ROR", "RTI", "RTS", "SBC", "SEC", "SED", "SEI", "STA", "STX", "STY",
	"TAX", "TAY", "TSX", "TXA", "TXS", "TYA",
}

func (m Mnemonic) String() string {
	if int(m) < len(mnemonicNames) {
		return mnemonicNames[m]
	}
	return "???"
}

// IsBranch reports whether the mnemonic is a conditional relative branch.
func (m Mnemonic) IsBranch() bool {
	switch m {
	case BCC, BCS, BEQ, BNE, BMI, BPL, BVC, BVS:
		return true
	}
	return false
}
