// Package irtext reads the line-oriented intermediate form the front end
// hands over: AT&T-flavored two-operand text, source before destination.
// Register names map onto the backend's operand model, so %eax and %al
// both mean the accumulator while %ecx and %edx become the word symbols
// "c" and "d".
package irtext

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"t65/internal/ir"
)

// Reader parses one input into an ir.Program, collecting every error it
// meets instead of stopping at the first.
type Reader struct {
	prog   *ir.Program
	errors []string
	line   int
}

func New() *Reader {
	return &Reader{prog: &ir.Program{}}
}

// Errors returns the parse errors in input order.
func (r *Reader) Errors() []string {
	return r.errors
}

func (r *Reader) errorf(format string, args ...interface{}) {
	r.errors = append(r.errors, fmt.Sprintf("line %d: %s", r.line, fmt.Sprintf(format, args...)))
}

// Read consumes src to the end and returns the program. The program is
// usable only when Errors is empty.
func (r *Reader) Read(src io.Reader) *ir.Program {
	sc := bufio.NewScanner(src)
	for sc.Scan() {
		r.line++
		r.readLine(strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		r.errors = append(r.errors, fmt.Sprintf("read: %v", err))
	}
	r.prog.Liveness()
	return r.prog
}

func (r *Reader) readLine(line string) {
	if line == "" || line[0] == '#' || line[0] == ';' {
		return
	}
	if line[0] == '.' {
		if strings.HasSuffix(line, ":") {
			r.push(ir.Op{Kind: ir.OpLabel, Name: line[1 : len(line)-1]})
		}
		// other dot lines are assembler directives with no 6502 meaning
		return
	}

	fields := strings.Fields(line)
	mnemonic, rest := fields[0], fields[1:]

	switch mnemonic {
	case "movb", "movl":
		r.twoOperand(ir.OpMove, ir.CondNone, rest)
	case "cmovel":
		r.twoOperand(ir.OpConditionalMove, ir.CondEq, rest)
	case "cmovnel":
		r.twoOperand(ir.OpConditionalMove, ir.CondNe, rest)
	case "movzbl":
		r.twoOperand(ir.OpMoveZeroExtend, ir.CondNone, rest)
	case "xorb", "xorl":
		r.twoOperand(ir.OpXor, ir.CondNone, rest)
	case "addb", "addl":
		r.twoOperand(ir.OpAdd, ir.CondNone, rest)
	case "subb", "subl":
		r.twoOperand(ir.OpSub, ir.CondNone, rest)
	case "cmpb", "cmpl":
		r.twoOperand(ir.OpCompare, ir.CondNone, rest)
	case "incb", "incl":
		r.oneOperand(ir.OpInc, rest)
	case "decb", "decl":
		r.oneOperand(ir.OpDec, rest)
	case "pushl", "pushb":
		r.oneOperand(ir.OpPush, rest)
	case "jmp":
		r.jumpTo(ir.OpJump, ir.CondNone, rest)
	case "je":
		r.jumpTo(ir.OpBranch, ir.CondEq, rest)
	case "jne":
		r.jumpTo(ir.OpBranch, ir.CondNe, rest)
	case "jb":
		r.jumpTo(ir.OpBranch, ir.CondLt, rest)
	case "jae":
		r.jumpTo(ir.OpBranch, ir.CondGe, rest)
	case "call":
		r.jumpTo(ir.OpCall, ir.CondNone, rest)
	default:
		r.errorf("unknown mnemonic %q", mnemonic)
	}
}

func (r *Reader) push(op ir.Op) {
	op.Line = r.line
	r.prog.Ops = append(r.prog.Ops, op)
}

// joinOperands reassembles fields into comma-separated operands. A sum
// address like (%ecx,%edx) contains a comma the field split broke on, so
// an open parenthesis pulls in fields until the close.
func (r *Reader) joinOperands(fields []string) []string {
	joined := strings.Join(fields, " ")
	var out []string
	for joined != "" {
		var cut int
		if joined[0] == '(' {
			cut = strings.IndexByte(joined, ')')
			if cut < 0 {
				r.errorf("unterminated sum address in %q", joined)
				return out
			}
			cut++
		} else {
			cut = strings.IndexByte(joined, ',')
			if cut < 0 {
				cut = len(joined)
			}
		}
		out = append(out, strings.TrimSpace(joined[:cut]))
		joined = strings.TrimSpace(strings.TrimPrefix(joined[cut:], ","))
		joined = strings.TrimSpace(joined)
	}
	return out
}

func (r *Reader) twoOperand(kind ir.OpKind, cond ir.Cond, fields []string) {
	args := r.joinOperands(fields)
	if len(args) != 2 {
		r.errorf("%s takes 2 operands, got %d", kind, len(args))
		return
	}
	src, ok1 := r.operand(args[0])
	dst, ok2 := r.operand(args[1])
	if !ok1 || !ok2 {
		return
	}
	r.push(ir.Op{Kind: kind, Cond: cond, Src: src, Dst: dst})
}

func (r *Reader) oneOperand(kind ir.OpKind, fields []string) {
	args := r.joinOperands(fields)
	if len(args) != 1 {
		r.errorf("%s takes 1 operand, got %d", kind, len(args))
		return
	}
	dst, ok := r.operand(args[0])
	if !ok {
		return
	}
	r.push(ir.Op{Kind: kind, Dst: dst})
}

func (r *Reader) jumpTo(kind ir.OpKind, cond ir.Cond, fields []string) {
	args := r.joinOperands(fields)
	if len(args) != 1 {
		r.errorf("%s takes 1 target, got %d", kind, len(args))
		return
	}
	target := args[0]
	if !strings.HasPrefix(target, ".") {
		r.errorf("%s target %q is not a label", kind, target)
		return
	}
	r.push(ir.Op{Kind: kind, Cond: cond, Name: target[1:]})
}

// register maps an x86 register name to a backend operand. The 32-bit and
// 8-bit views of one register are the same storage here.
func (r *Reader) register(name string) (ir.Operand, bool) {
	switch name {
	case "eax", "al":
		return ir.Acc{}, true
	case "ecx", "cl":
		r.prog.DeclareSymbol("c", ir.Word)
		return ir.Sym{Name: "c"}, true
	case "edx", "dl":
		r.prog.DeclareSymbol("d", ir.Word)
		return ir.Sym{Name: "d"}, true
	}
	r.errorf("unknown register %%%s", name)
	return nil, false
}

func (r *Reader) operand(text string) (ir.Operand, bool) {
	if text == "" {
		r.errorf("empty operand")
		return nil, false
	}
	switch text[0] {
	case '%':
		return r.register(text[1:])
	case '$':
		v, err := strconv.Atoi(text[1:])
		if err != nil {
			r.errorf("bad immediate %q", text)
			return nil, false
		}
		return ir.Imm{Value: v}, true
	case '.':
		return ir.LabelRef{Name: text[1:]}, true
	case '(':
		return r.sumAddress(text)
	}
	if text[0] >= '0' && text[0] <= '9' {
		v, err := strconv.ParseUint(text, 10, 16)
		if err != nil {
			r.errorf("bad address %q", text)
			return nil, false
		}
		return ir.Addr{Value: uint16(v)}, true
	}
	r.errorf("malformed operand %q", text)
	return nil, false
}

// sumAddress parses (%ecx,%edx): a store through the sum of two registers.
func (r *Reader) sumAddress(text string) (ir.Operand, bool) {
	inner := strings.TrimSuffix(strings.TrimPrefix(text, "("), ")")
	parts := strings.Split(inner, ",")
	if len(parts) != 2 {
		r.errorf("sum address %q needs two registers", text)
		return nil, false
	}
	var names [2]string
	for i, p := range parts {
		reg, ok := r.register(strings.TrimPrefix(strings.TrimSpace(p), "%"))
		if !ok {
			return nil, false
		}
		sym, isSym := reg.(ir.Sym)
		if !isSym {
			r.errorf("sum address %q cannot use the accumulator", text)
			return nil, false
		}
		names[i] = sym.Name
	}
	return ir.SumAddr{A: names[0], B: names[1]}, true
}
