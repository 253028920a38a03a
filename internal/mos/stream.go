package mos

import (
	"fmt"
	"strings"
)

// BytePart selects which half of a 16-bit immediate an instruction takes.
type BytePart byte

const (
	PartNone BytePart = iota
	PartLo            // #<value
	PartHi            // #>value
)

// Arg is a resolved instruction operand. When Sym is set the operand is
// symbolic (an equate the emitter defines), optionally displaced by Disp
// bytes; otherwise Value is the literal number the mode interprets.
type Arg struct {
	Value uint16
	Sym   string
	Disp  int
	Part  BytePart
}

func (a Arg) String() string {
	if a.Sym != "" {
		if a.Disp != 0 {
			return fmt.Sprintf("%s+%d", a.Sym, a.Disp)
		}
		return a.Sym
	}
	return fmt.Sprintf("$%04X", a.Value)
}

// Instruction is one chosen 6502 instruction. Target names a label for
// branch and jump instructions; Line carries the originating input line.
type Instruction struct {
	Mn     Mnemonic
	Mode   Mode
	Arg    Arg
	Target string
	Line   int
}

// ByteSize returns the encoded length of the instruction, 0 when the
// (mnemonic, mode) pair is illegal.
func (in *Instruction) ByteSize() int {
	return Size(in.Mn, in.Mode)
}

func (in *Instruction) String() string {
	switch in.Mode {
	case Implied:
		return in.Mn.String()
	case Accumulator:
		return in.Mn.String() + " A"
	case Relative, Indirect:
		if in.Target != "" {
			if in.Mode == Indirect {
				return fmt.Sprintf("%s (%s)", in.Mn, in.Target)
			}
			return fmt.Sprintf("%s %s", in.Mn, in.Target)
		}
	}
	if in.Target != "" {
		return fmt.Sprintf("%s %s", in.Mn, in.Target)
	}
	switch in.Mode {
	case Immediate:
		switch in.Arg.Part {
		case PartLo:
			return fmt.Sprintf("%s #<%s", in.Mn, in.Arg)
		case PartHi:
			return fmt.Sprintf("%s #>%s", in.Mn, in.Arg)
		default:
			return fmt.Sprintf("%s #%s", in.Mn, in.Arg)
		}
	case ZeroPageX, AbsoluteX:
		return fmt.Sprintf("%s %s,X", in.Mn, in.Arg)
	case ZeroPageY, AbsoluteY:
		return fmt.Sprintf("%s %s,Y", in.Mn, in.Arg)
	case Indirect:
		return fmt.Sprintf("%s (%s)", in.Mn, in.Arg)
	case IndirectX:
		return fmt.Sprintf("%s (%s,X)", in.Mn, in.Arg)
	case IndirectY:
		return fmt.Sprintf("%s (%s),Y", in.Mn, in.Arg)
	default:
		return fmt.Sprintf("%s %s", in.Mn, in.Arg)
	}
}

// Item is one element of an instruction stream: exactly one of a label
// definition, a comment, or an instruction.
type Item struct {
	Label   string
	Comment string
	Inst    *Instruction
}

// Stream is the ordered instruction/label sequence produced by selection,
// rewritten by the optimizer, validated for safety, and finally emitted.
type Stream struct {
	Items []Item
}

func (s *Stream) PushInst(in Instruction) {
	s.Items = append(s.Items, Item{Inst: &in})
}

func (s *Stream) PushLabel(name string) {
	s.Items = append(s.Items, Item{Label: name})
}

func (s *Stream) PushComment(text string) {
	s.Items = append(s.Items, Item{Comment: text})
}

// ByteSize is the total encoded size of all instructions in the stream.
func (s *Stream) ByteSize() int {
	total := 0
	for _, it := range s.Items {
		if it.Inst != nil {
			total += it.Inst.ByteSize()
		}
	}
	return total
}

// Labels returns the index of each label definition. Duplicate definitions
// are reported separately so emission can refuse them.
func (s *Stream) Labels() (defs map[string]int, duplicates []string) {
	defs = make(map[string]int)
	for i, it := range s.Items {
		if it.Label == "" {
			continue
		}
		if _, seen := defs[it.Label]; seen {
			duplicates = append(duplicates, it.Label)
			continue
		}
		defs[it.Label] = i
	}
	return defs, duplicates
}

// UnresolvedTargets returns the targets referenced by instructions but
// never defined, in first-reference order.
func (s *Stream) UnresolvedTargets() []string {
	defs, _ := s.Labels()
	seen := make(map[string]bool)
	var missing []string
	for _, it := range s.Items {
		if it.Inst == nil || it.Inst.Target == "" {
			continue
		}
		t := it.Inst.Target
		if _, ok := defs[t]; ok || seen[t] {
			continue
		}
		seen[t] = true
		missing = append(missing, t)
	}
	return missing
}

// InstructionAfter returns the first instruction at or after index i,
// skipping labels and comments. ok=false when the stream ends first.
func (s *Stream) InstructionAfter(i int) (*Instruction, int, bool) {
	for ; i < len(s.Items); i++ {
		if s.Items[i].Inst != nil {
			return s.Items[i].Inst, i, true
		}
	}
	return nil, -1, false
}

func (s *Stream) String() string {
	var sb strings.Builder
	for _, it := range s.Items {
		switch {
		case it.Label != "":
			sb.WriteString(it.Label + ":\n")
		case it.Comment != "":
			sb.WriteString("; " + it.Comment + "\n")
		default:
			sb.WriteString("\t" + it.Inst.String() + "\n")
		}
	}
	return sb.String()
}
