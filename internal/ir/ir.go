package ir

import (
	"fmt"
	"strings"
)

// SizeClass is the declared width of a symbol's value.
type SizeClass int

const (
	Byte SizeClass = iota
	Word
	Pointer
)

// Bytes returns the storage width of the size class. Words and pointers
// occupy a little-endian byte pair.
func (s SizeClass) Bytes() int {
	if s == Byte {
		return 1
	}
	return 2
}

func (s SizeClass) String() string {
	switch s {
	case Byte:
		return "byte"
	case Word:
		return "word"
	case Pointer:
		return "pointer"
	default:
		return "unknown"
	}
}

// Symbol is a named value tracked by the allocator. LiveStart/LiveEnd are
// op indexes filled in by Program.Liveness; Uses counts operand
// occurrences and drives zero-page priority on allocation ties.
type Symbol struct {
	Name      string
	Size      SizeClass
	LiveStart int
	LiveEnd   int
	Uses      int
}

// Operand is one argument of an IR operation.
type Operand interface {
	operand()
	String() string
}

// Acc is the virtual accumulator, mapped 1:1 onto the 6502 A register.
type Acc struct{}

// Imm is an immediate literal.
type Imm struct {
	Value int
}

// Sym references a named symbol.
type Sym struct {
	Name string
}

// Addr is a fixed absolute address, typically a hardware register.
type Addr struct {
	Value uint16
}

// SumAddr addresses memory through the runtime sum of two pointer-class
// symbols. Lowering requires both to live in zero page.
type SumAddr struct {
	A, B string
}

// LabelRef references a label definition elsewhere in the program.
type LabelRef struct {
	Name string
}

func (Acc) operand()      {}
func (Imm) operand()      {}
func (Sym) operand()      {}
func (Addr) operand()     {}
func (SumAddr) operand()  {}
func (LabelRef) operand() {}

func (Acc) String() string        { return "%a" }
func (o Imm) String() string      { return fmt.Sprintf("$%d", o.Value) }
func (o Sym) String() string      { return o.Name }
func (o Addr) String() string     { return fmt.Sprintf("%d", o.Value) }
func (o SumAddr) String() string  { return fmt.Sprintf("(%s,%s)", o.A, o.B) }
func (o LabelRef) String() string { return "." + o.Name }

// Cond selects the comparison a Branch or ConditionalMove acts on.
type Cond int

const (
	CondNone Cond = iota
	CondEq
	CondNe
	CondLt
	CondGe
)

func (c Cond) String() string {
	switch c {
	case CondEq:
		return "eq"
	case CondNe:
		return "ne"
	case CondLt:
		return "lt"
	case CondGe:
		return "ge"
	default:
		return ""
	}
}

// OpKind enumerates the IR operations the backend lowers.
type OpKind int

const (
	OpLabel OpKind = iota
	OpMove
	OpMoveZeroExtend
	OpConditionalMove
	OpAdd
	OpSub
	OpXor
	OpInc
	OpDec
	OpCompare
	OpPush
	OpJump
	OpBranch
	OpCall
)

var opNames = map[OpKind]string{
	OpLabel:           "label",
	OpMove:            "mov",
	OpMoveZeroExtend:  "movz",
	OpConditionalMove: "cmov",
	OpAdd:             "add",
	OpSub:             "sub",
	OpXor:             "xor",
	OpInc:             "inc",
	OpDec:             "dec",
	OpCompare:         "cmp",
	OpPush:            "push",
	OpJump:            "jmp",
	OpBranch:          "br",
	OpCall:            "call",
}

func (k OpKind) String() string {
	if n, ok := opNames[k]; ok {
		return n
	}
	return "op?"
}

// Op is one IR operation. Two-operand kinds read Src and write Dst; Name
// carries the label for OpLabel/OpJump/OpBranch/OpCall. Line is the input
// line the front end tagged the op with, used in diagnostics.
type Op struct {
	Kind OpKind
	Src  Operand
	Dst  Operand
	Cond Cond
	Name string
	Line int
}

func (op Op) String() string {
	switch op.Kind {
	case OpLabel:
		return "." + op.Name + ":"
	case OpJump, OpCall:
		return fmt.Sprintf("%s .%s", op.Kind, op.Name)
	case OpBranch:
		return fmt.Sprintf("br.%s .%s", op.Cond, op.Name)
	case OpInc, OpDec, OpPush:
		return fmt.Sprintf("%s %s", op.Kind, op.Dst)
	case OpConditionalMove:
		return fmt.Sprintf("cmov.%s %s, %s", op.Cond, op.Src, op.Dst)
	default:
		return fmt.Sprintf("%s %s, %s", op.Kind, op.Src, op.Dst)
	}
}

// Program is the backend's immutable input: the op sequence plus the
// symbols it mentions, in declaration order.
type Program struct {
	Ops     []Op
	Symbols []*Symbol
}

// SymbolNamed finds a declared symbol, or nil.
func (p *Program) SymbolNamed(name string) *Symbol {
	for _, s := range p.Symbols {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// DeclareSymbol registers name with the given size class if it is not
// already declared and returns the symbol.
func (p *Program) DeclareSymbol(name string, size SizeClass) *Symbol {
	if s := p.SymbolNamed(name); s != nil {
		return s
	}
	s := &Symbol{Name: name, Size: size}
	p.Symbols = append(p.Symbols, s)
	return s
}

// Liveness fills in each symbol's live range and use count by scanning the
// op sequence. A symbol is live from its first mention to its last; a
// symbol with zero uses keeps the empty range [0,0].
func (p *Program) Liveness() {
	for _, s := range p.Symbols {
		s.LiveStart, s.LiveEnd, s.Uses = 0, 0, 0
	}
	for i, op := range p.Ops {
		p.touch(op.Src, i)
		p.touch(op.Dst, i)
	}
}

func (p *Program) touch(o Operand, at int) {
	switch v := o.(type) {
	case Sym:
		p.touchName(v.Name, at)
	case SumAddr:
		p.touchName(v.A, at)
		p.touchName(v.B, at)
	}
}

func (p *Program) touchName(name string, at int) {
	s := p.SymbolNamed(name)
	if s == nil {
		return
	}
	if s.Uses == 0 {
		s.LiveStart = at
	}
	s.LiveEnd = at
	s.Uses++
}

func (p *Program) String() string {
	var sb strings.Builder
	for _, op := range p.Ops {
		sb.WriteString(op.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
