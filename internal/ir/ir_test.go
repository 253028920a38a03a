package ir

import "testing"

func TestLivenessRanges(t *testing.T) {
	p := &Program{}
	p.DeclareSymbol("c", Word)
	p.DeclareSymbol("d", Word)
	p.Ops = []Op{
		{Kind: OpMove, Src: Imm{5}, Dst: Sym{"c"}},       // 0
		{Kind: OpMove, Src: Sym{"c"}, Dst: Acc{}},        // 1
		{Kind: OpMove, Src: Acc{}, Dst: Sym{"d"}},        // 2
		{Kind: OpAdd, Src: Sym{"d"}, Dst: Sym{"d"}},      // 3
		{Kind: OpMove, Src: Sym{"d"}, Dst: Addr{0xD01A}}, // 4
	}
	p.Liveness()

	c := p.SymbolNamed("c")
	if c.LiveStart != 0 || c.LiveEnd != 1 || c.Uses != 2 {
		t.Errorf("c: got range [%d,%d] uses=%d, want [0,1] uses=2", c.LiveStart, c.LiveEnd, c.Uses)
	}
	d := p.SymbolNamed("d")
	if d.LiveStart != 2 || d.LiveEnd != 4 {
		t.Errorf("d: got range [%d,%d], want [2,4]", d.LiveStart, d.LiveEnd)
	}
	if d.Uses != 4 {
		t.Errorf("d: got uses=%d, want 4", d.Uses)
	}
}

func TestLivenessCountsSumAddrComponents(t *testing.T) {
	p := &Program{}
	p.DeclareSymbol("c", Pointer)
	p.DeclareSymbol("d", Pointer)
	p.Ops = []Op{
		{Kind: OpMove, Src: Imm{1}, Dst: SumAddr{"c", "d"}},
	}
	p.Liveness()

	for _, name := range []string{"c", "d"} {
		s := p.SymbolNamed(name)
		if s.Uses != 1 || s.LiveStart != 0 || s.LiveEnd != 0 {
			t.Errorf("%s: got range [%d,%d] uses=%d, want [0,0] uses=1", name, s.LiveStart, s.LiveEnd, s.Uses)
		}
	}
}

func TestLivenessResetsOnRerun(t *testing.T) {
	p := &Program{}
	p.DeclareSymbol("c", Byte)
	p.Ops = []Op{{Kind: OpInc, Dst: Sym{"c"}}}
	p.Liveness()
	p.Liveness()
	if got := p.SymbolNamed("c").Uses; got != 1 {
		t.Fatalf("uses accumulated across runs: got %d, want 1", got)
	}
}

func TestDeclareSymbolIsIdempotent(t *testing.T) {
	p := &Program{}
	a := p.DeclareSymbol("c", Word)
	b := p.DeclareSymbol("c", Word)
	if a != b {
		t.Fatal("redeclaration created a second symbol")
	}
	if len(p.Symbols) != 1 {
		t.Fatalf("expected 1 symbol, got %d", len(p.Symbols))
	}
}

func TestOpString(t *testing.T) {
	tests := []struct {
		op   Op
		want string
	}{
		{Op{Kind: OpLabel, Name: "L0"}, ".L0:"},
		{Op{Kind: OpJump, Name: "L0"}, "jmp .L0"},
		{Op{Kind: OpBranch, Cond: CondEq, Name: "done"}, "br.eq .done"},
		{Op{Kind: OpMove, Src: Imm{7}, Dst: Acc{}}, "mov $7, %a"},
		{Op{Kind: OpMove, Src: Imm{1}, Dst: SumAddr{"c", "d"}}, "mov $1, (c,d)"},
		{Op{Kind: OpInc, Dst: Sym{"x"}}, "inc x"},
		{Op{Kind: OpConditionalMove, Cond: CondEq, Src: Imm{1}, Dst: Acc{}}, "cmov.eq $1, %a"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}

func TestSizeClassBytes(t *testing.T) {
	if Byte.Bytes() != 1 || Word.Bytes() != 2 || Pointer.Bytes() != 2 {
		t.Fatal("size class widths wrong")
	}
}
