// Package opt shrinks an instruction stream through a fixed library of
// local rewrites. Every rule produces a byte-cost that is smaller or equal
// and preserves the stream's observable effects; rewrites that would change
// flag state a later instruction observes are refused. The pass iterates to
// a fixpoint or a bounded pass count, whichever comes first.
package opt

import "t65/internal/mos"

// maxPasses bounds the rewrite iteration. Hitting the bound is normal
// completion, not a failure.
const maxPasses = 8

// Optimize returns a stream whose byte cost is no larger than the input's.
// Level 0 disables rewriting entirely.
func Optimize(s *mos.Stream, level int) *mos.Stream {
	if level <= 0 {
		return s
	}
	items := make([]mos.Item, len(s.Items))
	copy(items, s.Items)

	for pass := 0; pass < maxPasses; pass++ {
		changed := false
		items, changed = applyRules(items)
		if !changed {
			break
		}
	}
	return &mos.Stream{Items: items}
}

func applyRules(items []mos.Item) ([]mos.Item, bool) {
	changed := false
	if out, ok := substituteZeroPage(items); ok {
		items, changed = out, true
	}
	if out, ok := cancelPushPull(items); ok {
		items, changed = out, true
	}
	if out, ok := dropRedundantLoads(items); ok {
		items, changed = out, true
	}
	if out, ok := dropRedundantFlagSets(items); ok {
		items, changed = out, true
	}
	if out, ok := collapseBranchChains(items); ok {
		items, changed = out, true
	}
	if out, ok := dropJumpToNext(items); ok {
		items, changed = out, true
	}
	return items, changed
}

// nextInst finds the next instruction after i, treating comments as
// transparent. Labels stop the search: they are potential join points, so
// patterns must not match across them.
func nextInst(items []mos.Item, i int) (int, bool) {
	for j := i + 1; j < len(items); j++ {
		if items[j].Label != "" {
			return 0, false
		}
		if items[j].Inst != nil {
			return j, true
		}
	}
	return 0, false
}

// flagsObserved reports whether any of the given flags can be read before
// being rewritten, scanning forward from items[i]. Control transfers are
// treated as observers, and so is every conditional branch: even one that
// tests a different flag forks the scan, and the taken edge may read the
// flags before the fall-through path rewrites them.
func flagsObserved(items []mos.Item, i int, flags mos.Flag) bool {
	for j := i; j < len(items) && flags != 0; j++ {
		in := items[j].Inst
		if in == nil {
			continue
		}
		if mos.FlagsRead(in.Mn)&flags != 0 {
			return true
		}
		if in.Mn.IsBranch() {
			return true
		}
		switch in.Mn {
		case mos.JMP, mos.JSR, mos.RTS, mos.RTI, mos.BRK:
			return true
		}
		flags &^= mos.FlagsWritten(in.Mn)
	}
	return false
}

func remove(items []mos.Item, idx ...int) []mos.Item {
	drop := make(map[int]bool, len(idx))
	for _, i := range idx {
		drop[i] = true
	}
	out := make([]mos.Item, 0, len(items))
	for i, it := range items {
		if !drop[i] {
			out = append(out, it)
		}
	}
	return out
}

// cancelPushPull removes PHA immediately followed by PLA. The pair leaves
// A and the stack untouched; only the Z/N update from PLA is lost, so the
// rewrite applies only when no later instruction observes those flags.
func cancelPushPull(items []mos.Item) ([]mos.Item, bool) {
	for i, it := range items {
		if it.Inst == nil || it.Inst.Mn != mos.PHA {
			continue
		}
		j, ok := nextInst(items, i)
		if !ok || items[j].Inst.Mn != mos.PLA {
			continue
		}
		if flagsObserved(items, j+1, mos.FlagZ|mos.FlagN) {
			continue
		}
		return remove(items, i, j), true
	}
	return items, false
}

// dropRedundantLoads removes a load whose value is already resident in A:
// either a repeat of the identical LDA, or an LDA of an address the
// previous instruction just stored A to.
func dropRedundantLoads(items []mos.Item) ([]mos.Item, bool) {
	for i, it := range items {
		in := it.Inst
		if in == nil {
			continue
		}
		j, ok := nextInst(items, i)
		if !ok {
			continue
		}
		next := items[j].Inst
		if next.Mn != mos.LDA {
			continue
		}
		redundant := (in.Mn == mos.LDA || in.Mn == mos.STA) &&
			in.Mode == next.Mode && in.Arg == next.Arg
		if !redundant {
			continue
		}
		// A repeated LDA leaves flags exactly as the first one did. After
		// STA the flags are whatever the last writer set, which need not
		// match a fresh load of A, so that elision requires dead Z/N.
		if in.Mn == mos.STA && flagsObserved(items, j+1, mos.FlagZ|mos.FlagN) {
			continue
		}
		return remove(items, j), true
	}
	return items, false
}

// dropRedundantFlagSets removes the second of two adjacent CLC or SEC
// instructions with no carry writer between them.
func dropRedundantFlagSets(items []mos.Item) ([]mos.Item, bool) {
	for i, it := range items {
		in := it.Inst
		if in == nil || (in.Mn != mos.CLC && in.Mn != mos.SEC) {
			continue
		}
		j, ok := nextInst(items, i)
		if !ok || items[j].Inst.Mn != in.Mn {
			continue
		}
		return remove(items, j), true
	}
	return items, false
}

// collapseBranchChains retargets a jump or branch whose destination label
// leads straight to another unconditional jump.
func collapseBranchChains(items []mos.Item) ([]mos.Item, bool) {
	stream := mos.Stream{Items: items}
	defs, dups := stream.Labels()
	if len(dups) > 0 {
		return items, false
	}
	for i, it := range items {
		in := it.Inst
		if in == nil || in.Target == "" {
			continue
		}
		if in.Mn != mos.JMP && !in.Mn.IsBranch() {
			continue
		}
		def, ok := defs[in.Target]
		if !ok {
			continue
		}
		tj, ok := nextInst(items, def)
		if !ok {
			continue
		}
		hop := items[tj].Inst
		if hop.Mn != mos.JMP || hop.Target == "" || hop.Target == in.Target {
			continue
		}
		out := make([]mos.Item, len(items))
		copy(out, items)
		retargeted := *in
		retargeted.Target = hop.Target
		out[i] = mos.Item{Inst: &retargeted}
		return out, true
	}
	return items, false
}

// dropJumpToNext removes a JMP whose target is the label that immediately
// follows it.
func dropJumpToNext(items []mos.Item) ([]mos.Item, bool) {
	for i, it := range items {
		in := it.Inst
		if in == nil || in.Mn != mos.JMP || in.Target == "" {
			continue
		}
		for j := i + 1; j < len(items); j++ {
			if items[j].Inst != nil {
				break
			}
			if items[j].Label == in.Target {
				return remove(items, i), true
			}
		}
	}
	return items, false
}

// substituteZeroPage rewrites absolute addressing of page-zero targets to
// the shorter zero-page encoding.
func substituteZeroPage(items []mos.Item) ([]mos.Item, bool) {
	for i, it := range items {
		in := it.Inst
		if in == nil || in.Mode != mos.Absolute || in.Target != "" {
			continue
		}
		if in.Arg.Sym != "" || in.Arg.Value >= 0x0100 {
			continue
		}
		if !mos.HasMode(in.Mn, mos.ZeroPage) {
			continue
		}
		out := make([]mos.Item, len(items))
		copy(out, items)
		narrowed := *in
		narrowed.Mode = mos.ZeroPage
		out[i] = mos.Item{Inst: &narrowed}
		return out, true
	}
	return items, false
}
