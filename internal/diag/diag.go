package diag

import (
	"fmt"
	"io"
	"sort"
)

// Severity classifies a diagnostic. Fatal diagnostics abort emission;
// warnings are printed alongside successful output.
type Severity int

const (
	Warning Severity = iota
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Fatal:
		return "error"
	default:
		return "unknown"
	}
}

// Diagnostic records one finding against the program being compiled.
// Context is a rendering of the IR operation or instruction at fault,
// Line the input line the front end tagged it with (0 when unknown).
type Diagnostic struct {
	Severity Severity
	Message  string
	Context  string
	Line     int
}

func (d Diagnostic) String() string {
	msg := d.Message
	if d.Context != "" {
		msg = fmt.Sprintf("%s (at `%s`)", msg, d.Context)
	}
	if d.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", d.Line, d.Severity, msg)
	}
	return fmt.Sprintf("%s: %s", d.Severity, msg)
}

// Bag collects diagnostics across pipeline stages.
type Bag struct {
	diags []Diagnostic
}

func (b *Bag) Add(d Diagnostic) {
	b.diags = append(b.diags, d)
}

func (b *Bag) Warn(msg, context string, line int) {
	b.Add(Diagnostic{Severity: Warning, Message: msg, Context: context, Line: line})
}

func (b *Bag) Fatal(msg, context string, line int) {
	b.Add(Diagnostic{Severity: Fatal, Message: msg, Context: context, Line: line})
}

func (b *Bag) Fatalf(context string, line int, format string, args ...interface{}) {
	b.Fatal(fmt.Sprintf(format, args...), context, line)
}

// HasFatal reports whether any collected diagnostic blocks emission.
func (b *Bag) HasFatal() bool {
	for _, d := range b.diags {
		if d.Severity == Fatal {
			return true
		}
	}
	return false
}

func (b *Bag) Len() int {
	return len(b.diags)
}

// All returns the collected diagnostics ordered by input line, with
// unlocated diagnostics last in insertion order. The ordering is stable so
// build output is reproducible.
func (b *Bag) All() []Diagnostic {
	out := make([]Diagnostic, len(b.diags))
	copy(out, b.diags)
	sort.SliceStable(out, func(i, j int) bool {
		li, lj := out[i].Line, out[j].Line
		if li == 0 {
			li = int(^uint(0) >> 1)
		}
		if lj == 0 {
			lj = int(^uint(0) >> 1)
		}
		return li < lj
	})
	return out
}

// Strings renders every diagnostic, one line each.
func (b *Bag) Strings() []string {
	all := b.All()
	out := make([]string, 0, len(all))
	for _, d := range all {
		out = append(out, d.String())
	}
	return out
}

// Print writes every diagnostic to w.
func (b *Bag) Print(w io.Writer) {
	for _, s := range b.Strings() {
		fmt.Fprintln(w, s)
	}
}
