package zpalloc

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"t65/internal/ir"
)

// testWindow is a small window so exhaustion is easy to trigger.
var testWindow = Window{Base: 0x83, Top: 0xFF, SpillBase: 0x0600}

func programOf(ops []ir.Op, declare func(p *ir.Program)) *ir.Program {
	p := &ir.Program{}
	declare(p)
	p.Ops = ops
	p.Liveness()
	return p
}

var _ = Describe("Allocate", func() {
	It("shares one offset between byte symbols with disjoint live ranges", func() {
		p := programOf([]ir.Op{
			{Kind: ir.OpMove, Src: ir.Imm{Value: 1}, Dst: ir.Sym{Name: "a"}}, // 0: a live
			{Kind: ir.OpMove, Src: ir.Sym{Name: "a"}, Dst: ir.Acc{}},  // 1: a dies
			{Kind: ir.OpMove, Src: ir.Imm{Value: 2}, Dst: ir.Sym{Name: "b"}}, // 2: b live
			{Kind: ir.OpMove, Src: ir.Sym{Name: "b"}, Dst: ir.Acc{}},  // 3: b dies
		}, func(p *ir.Program) {
			p.DeclareSymbol("a", ir.Byte)
			p.DeclareSymbol("b", ir.Byte)
		})

		asn := Allocate(p, testWindow)
		a, _ := asn.Slot("a")
		b, _ := asn.Slot("b")
		Expect(a.Kind).To(Equal(ZeroPage))
		Expect(b.Kind).To(Equal(ZeroPage))
		Expect(a.Addr).To(Equal(b.Addr), "disjoint ranges should reuse the offset")
	})

	It("gives a word symbol two adjacent zero-page bytes", func() {
		p := programOf([]ir.Op{
			{Kind: ir.OpMove, Src: ir.Imm{Value: 1}, Dst: ir.Sym{Name: "a"}},
			{Kind: ir.OpMove, Src: ir.Imm{Value: 500}, Dst: ir.Sym{Name: "c"}},
			{Kind: ir.OpAdd, Src: ir.Sym{Name: "a"}, Dst: ir.Sym{Name: "c"}},
			{Kind: ir.OpMove, Src: ir.Sym{Name: "b"}, Dst: ir.Sym{Name: "c"}},
		}, func(p *ir.Program) {
			p.DeclareSymbol("a", ir.Byte)
			p.DeclareSymbol("b", ir.Byte)
			p.DeclareSymbol("c", ir.Word)
		})

		asn := Allocate(p, testWindow)
		c, ok := asn.Slot("c")
		Expect(ok).To(BeTrue())
		Expect(c.Kind).To(Equal(ZeroPage))
		// Lo byte at Addr, hi byte at Addr+1: both inside the window.
		Expect(c.Addr).To(BeNumerically(">=", int(testWindow.Base)))
		Expect(c.Addr + 1).To(BeNumerically("<=", int(testWindow.Top)))
	})

	It("keeps live-overlapping symbols on distinct offsets", func() {
		p := programOf([]ir.Op{
			{Kind: ir.OpMove, Src: ir.Imm{Value: 1}, Dst: ir.Sym{Name: "a"}},
			{Kind: ir.OpMove, Src: ir.Imm{Value: 2}, Dst: ir.Sym{Name: "b"}},
			{Kind: ir.OpAdd, Src: ir.Sym{Name: "a"}, Dst: ir.Sym{Name: "b"}},
		}, func(p *ir.Program) {
			p.DeclareSymbol("a", ir.Byte)
			p.DeclareSymbol("b", ir.Byte)
		})

		asn := Allocate(p, testWindow)
		a, _ := asn.Slot("a")
		b, _ := asn.Slot("b")
		Expect(a.Addr).NotTo(Equal(b.Addr))
	})

	It("assigns every symbol when total liveness fits the window", func() {
		var ops []ir.Op
		declare := func(p *ir.Program) {
			for i := 0; i < 60; i++ {
				p.DeclareSymbol(fmt.Sprintf("v%02d", i), ir.Word)
			}
		}
		for i := 0; i < 60; i++ {
			name := fmt.Sprintf("v%02d", i)
			ops = append(ops, ir.Op{Kind: ir.OpMove, Src: ir.Imm{Value: i}, Dst: ir.Sym{Name: name}})
		}
		for i := 0; i < 60; i++ {
			name := fmt.Sprintf("v%02d", i)
			ops = append(ops, ir.Op{Kind: ir.OpMove, Src: ir.Sym{Name: name}, Dst: ir.Acc{}})
		}
		p := programOf(ops, declare)

		// 60 words = 120 bytes <= 125-byte window: no spill allowed.
		asn := Allocate(p, testWindow)
		Expect(asn.Spilled).To(BeEmpty())
		for i := 0; i < 60; i++ {
			Expect(asn.InZeroPage(fmt.Sprintf("v%02d", i))).To(BeTrue())
		}
	})

	It("spills overflow to absolute storage without error", func() {
		var ops []ir.Op
		declare := func(p *ir.Program) {
			for i := 0; i < 70; i++ {
				p.DeclareSymbol(fmt.Sprintf("v%02d", i), ir.Word)
			}
		}
		// All symbols live simultaneously: 140 bytes > 125-byte window.
		for i := 0; i < 70; i++ {
			ops = append(ops, ir.Op{Kind: ir.OpMove, Src: ir.Imm{Value: i}, Dst: ir.Sym{Name: fmt.Sprintf("v%02d", i)}})
		}
		for i := 0; i < 70; i++ {
			ops = append(ops, ir.Op{Kind: ir.OpMove, Src: ir.Sym{Name: fmt.Sprintf("v%02d", i)}, Dst: ir.Acc{}})
		}
		p := programOf(ops, declare)

		asn := Allocate(p, testWindow)
		Expect(asn.Spilled).NotTo(BeEmpty())
		for _, name := range asn.Spilled {
			s, _ := asn.Slot(name)
			Expect(s.Kind).To(Equal(Absolute))
			Expect(s.Addr).To(BeNumerically(">=", int(testWindow.SpillBase)))
		}
		// Spill addresses follow declaration order.
		var prev uint16
		for i, name := range asn.Spilled {
			s, _ := asn.Slot(name)
			if i > 0 {
				Expect(s.Addr).To(BeNumerically(">", int(prev)))
			}
			prev = s.Addr
		}
	})

	It("prefers zero page for the more frequently used symbol on a tie", func() {
		tiny := Window{Base: 0x83, Top: 0x83, SpillBase: 0x0600} // one byte
		p := programOf([]ir.Op{
			{Kind: ir.OpMove, Src: ir.Imm{Value: 1}, Dst: ir.Sym{Name: "cold"}},
			{Kind: ir.OpMove, Src: ir.Imm{Value: 2}, Dst: ir.Sym{Name: "hot"}},
			{Kind: ir.OpInc, Dst: ir.Sym{Name: "hot"}},
			{Kind: ir.OpInc, Dst: ir.Sym{Name: "hot"}},
			{Kind: ir.OpAdd, Src: ir.Sym{Name: "cold"}, Dst: ir.Sym{Name: "hot"}},
		}, func(p *ir.Program) {
			p.DeclareSymbol("cold", ir.Byte)
			p.DeclareSymbol("hot", ir.Byte)
		})
		// Force a start tie so frequency decides.
		p.SymbolNamed("cold").LiveStart = 0
		p.SymbolNamed("hot").LiveStart = 0

		asn := Allocate(p, tiny)
		Expect(asn.InZeroPage("hot")).To(BeTrue())
		Expect(asn.InZeroPage("cold")).To(BeFalse())
	})

	It("never hands out overlapping runs under fragmentation", func() {
		// Alternating byte/word lifetimes leave holes; a later word must
		// not straddle an occupied byte.
		p := programOf([]ir.Op{
			{Kind: ir.OpMove, Src: ir.Imm{Value: 1}, Dst: ir.Sym{Name: "b1"}}, // 0
			{Kind: ir.OpMove, Src: ir.Imm{Value: 2}, Dst: ir.Sym{Name: "b2"}}, // 1
			{Kind: ir.OpMove, Src: ir.Imm{Value: 3}, Dst: ir.Sym{Name: "b3"}}, // 2
			{Kind: ir.OpMove, Src: ir.Sym{Name: "b1"}, Dst: ir.Acc{}},  // 3: b1 dies
			{Kind: ir.OpMove, Src: ir.Imm{Value: 4}, Dst: ir.Sym{Name: "w1"}}, // 4: w1 needs 2 bytes
			{Kind: ir.OpAdd, Src: ir.Sym{Name: "b2"}, Dst: ir.Sym{Name: "w1"}},
			{Kind: ir.OpAdd, Src: ir.Sym{Name: "b3"}, Dst: ir.Sym{Name: "w1"}},
		}, func(p *ir.Program) {
			p.DeclareSymbol("b1", ir.Byte)
			p.DeclareSymbol("b2", ir.Byte)
			p.DeclareSymbol("b3", ir.Byte)
			p.DeclareSymbol("w1", ir.Word)
		})

		asn := Allocate(p, testWindow)
		w1, _ := asn.Slot("w1")
		b2, _ := asn.Slot("b2")
		b3, _ := asn.Slot("b3")
		Expect(w1.Kind).To(Equal(ZeroPage))
		for _, live := range []Slot{b2, b3} {
			Expect(w1.Addr).NotTo(Equal(live.Addr))
			Expect(w1.Addr + 1).NotTo(Equal(live.Addr))
		}
	})
})
