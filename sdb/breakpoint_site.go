package sdb

import "sync/atomic"

// int3 is the x86 one-byte trap instruction software breakpoints splice
// into the inferior's code stream.
const int3 byte = 0xCC

var nextBreakpointID int64 // monotonically increasing; see nextID

func nextID() int {
	return int(atomic.AddInt64(&nextBreakpointID, 1))
}

// BreakpointSite is a single stoppoint that traps when the inferior's
// instruction pointer reaches its address: either a software breakpoint
// (a spliced-in int3) or a hardware breakpoint (a debug-register slot
// armed for execute/size=1). IsHardware and IsInternal are fixed at
// construction and never change.
type BreakpointSite struct {
	id         int
	proc       *Process
	address    VirtAddr
	enabled    bool
	isHardware bool
	isInternal bool

	savedByte byte // software only

	hwIndex int // hardware only; -1 when not armed
}

func newBreakpointSite(proc *Process, addr VirtAddr, hardware, internal bool) *BreakpointSite {
	id := -1
	if !internal {
		id = nextID()
	}
	return &BreakpointSite{
		id:         id,
		proc:       proc,
		address:    addr,
		isHardware: hardware,
		isInternal: internal,
		hwIndex:    -1,
	}
}

func (b *BreakpointSite) ID() int           { return b.id }
func (b *BreakpointSite) Address() VirtAddr { return b.address }
func (b *BreakpointSite) Length() int       { return 1 }
func (b *BreakpointSite) Enabled() bool     { return b.enabled }
func (b *BreakpointSite) IsHardware() bool  { return b.isHardware }
func (b *BreakpointSite) IsInternal() bool  { return b.isInternal }
func (b *BreakpointSite) SavedByte() byte   { return b.savedByte }

// Enable is idempotent. The software path peeks the 8-byte word at
// address, saves its low byte, splices in int3, and pokes the word back.
// The hardware path asks the owning Process to allocate a debug-register
// slot for execute/size=1 at address.
func (b *BreakpointSite) Enable() error {
	if b.enabled {
		return nil
	}

	if b.isHardware {
		idx, err := b.proc.setHardwareBreakpoint(b.id, b.address)
		if err != nil {
			return err
		}
		b.hwIndex = idx
	} else {
		word, err := b.proc.peekWord(b.address)
		if err != nil {
			return ioErrorf(err, "enabling breakpoint site failed")
		}
		b.savedByte = byte(word & 0xff)
		withTrap := (word &^ 0xff) | uint64(int3)
		if err := b.proc.pokeWord(b.address, withTrap); err != nil {
			return ioErrorf(err, "enabling breakpoint site failed")
		}
	}

	b.enabled = true
	return nil
}

// Disable is idempotent. The software path peeks, splices savedByte back
// in, and pokes. The hardware path asks the owning Process to free the
// debug-register slot.
func (b *BreakpointSite) Disable() error {
	if !b.enabled {
		return nil
	}

	if b.isHardware {
		if err := b.proc.clearHardwareStoppoint(b.hwIndex); err != nil {
			return err
		}
		b.hwIndex = -1
	} else {
		word, err := b.proc.peekWord(b.address)
		if err != nil {
			return ioErrorf(err, "disabling breakpoint site failed")
		}
		restored := (word &^ 0xff) | uint64(b.savedByte)
		if err := b.proc.pokeWord(b.address, restored); err != nil {
			return ioErrorf(err, "disabling breakpoint site failed")
		}
	}

	b.enabled = false
	return nil
}
