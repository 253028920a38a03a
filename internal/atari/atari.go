// Package atari describes the Atari 8-bit target: load address, the
// usable zero-page window, the custom-chip register map, and the runtime
// stubs the emitted program links against.
package atari

// Hardware register addresses the backend knows by name.
const (
	STRIG0 uint16 = 0x0284 // joystick 0 trigger (OS shadow)
	PAL    uint16 = 0xD014 // PAL/NTSC detection
	COLBK  uint16 = 0xD01A // background color
	WSYNC  uint16 = 0xD40A // wait for horizontal sync
	VCOUNT uint16 = 0xD40B // vertical line counter
	SCREEN uint16 = 0xBC40 // default GRAPHICS 0 screen memory
)

// DefaultOrg is where emitted programs load.
const DefaultOrg uint16 = 0x2000

// Zero-page layout. The OS and the floating-point package own $00..$7F;
// the window above is free for user programs. The first three bytes are
// runtime scratch: a pointer word and the comparison-result byte.
const (
	ZeroPageBase byte = 0x80
	ZeroPageTop  byte = 0xFF

	TmpWordAddr byte = ZeroPageBase     // TMPW, 2 bytes
	LastCmpAddr byte = ZeroPageBase + 2 // LAST_CMP, 1 byte
	VarBase     byte = ZeroPageBase + 3 // first allocatable offset
)

// SpillBase is where zero-page overflow symbols are placed. Page six is
// conventionally unused by the OS, BASIC, and DOS.
const SpillBase uint16 = 0x0600

// Names of the runtime scratch equates the emitter defines.
const (
	TmpWordName = "TMPW"
	LastCmpName = "LAST_CMP"
)

// Range is a half-open [Start, End] address span.
type Range struct {
	Name  string
	Start uint16
	End   uint16
}

// Contains reports whether addr falls inside the range.
func (r Range) Contains(addr uint16) bool {
	return addr >= r.Start && addr <= r.End
}

// Target is the hardware configuration threaded through the validator and
// emitter. Reserved lists custom-chip ranges where blind writes can hang
// or corrupt the machine; WriteSafe whitelists the registers inside those
// ranges that the runtime legitimately pokes.
type Target struct {
	Org       uint16
	Reserved  []Range
	WriteSafe map[uint16]bool
}

// Default returns the stock Atari 8-bit target.
func Default() Target {
	return Target{
		Org: DefaultOrg,
		Reserved: []Range{
			{Name: "GTIA", Start: 0xD000, End: 0xD0FF},
			{Name: "POKEY", Start: 0xD200, End: 0xD2FF},
			{Name: "PIA", Start: 0xD300, End: 0xD3FF},
			{Name: "ANTIC", Start: 0xD400, End: 0xD4FF},
		},
		WriteSafe: map[uint16]bool{
			WSYNC:  true,
			COLBK:  true,
			STRIG0: true,
		},
	}
}

// ReservedRange returns the reserved range containing addr, if any.
func (t Target) ReservedRange(addr uint16) (Range, bool) {
	for _, r := range t.Reserved {
		if r.Contains(addr) {
			return r, true
		}
	}
	return Range{}, false
}

// UnsafeWrite reports whether storing to addr risks a hardware fault:
// inside a reserved custom-chip range and not on the whitelist.
func (t Target) UnsafeWrite(addr uint16) (Range, bool) {
	r, in := t.ReservedRange(addr)
	if !in || t.WriteSafe[addr] {
		return Range{}, false
	}
	return r, true
}

// RuntimeStubs is the support code appended to every native-dialect
// program: SYNCHRO waits for a fixed scanline (PAL/NTSC aware) and
// LAST_CMP_EQUAL materializes the last comparison result into LAST_CMP.
const RuntimeStubs = `
PAL     = $D014
VCOUNT  = $D40B
SYNCHRO
            lda PAL
            beq SYN_0
            lda #120	; NTSC
            jmp SYN_1
SYN_0       lda #145	; PAL
SYN_1       cmp VCOUNT
            bne SYN_1
            rts

LAST_CMP_EQUAL
        BEQ @+
        LDA #1
        STA LAST_CMP
        RTS
@       LDA #0
        STA LAST_CMP
        RTS
`
