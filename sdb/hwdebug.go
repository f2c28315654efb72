package sdb

// Hardware debug-register allocation. dr0..dr3 hold up to four hardware
// stoppoint addresses; dr7 encodes, per slot, an enable bit, an
// access-mode field, and a size field. All reads/writes here go through
// the Registers write path so the local mirror and the kernel never
// diverge.
//
// The x86 size encoding is non-monotonic (00=1, 01=2, 11=4, 10=8), so it
// is a lookup table here rather than an arithmetic derivation.

const numHardwareSlots = 4

var drIDs = [numHardwareSlots]RegisterID{DR0, DR1, DR2, DR3}

var sizeEncoding = map[int]uint64{
	1: 0b00,
	2: 0b01,
	8: 0b10,
	4: 0b11,
}

var sizeDecoding = map[uint64]int{
	0b00: 1,
	0b01: 2,
	0b10: 8,
	0b11: 4,
}

func modeEncoding(mode WatchMode) (uint64, error) {
	switch mode {
	case WatchExecute:
		return 0b00, nil
	case WatchWrite:
		return 0b01, nil
	case WatchReadWrite:
		return 0b11, nil
	default:
		return 0, protocolErrorf("unsupported watchpoint mode %v", mode)
	}
}

// setHardwareStoppoint reads dr7, picks the lowest free slot, writes
// address to dr[index], and updates dr7 with the encoded mode and size for
// that slot plus its local enable bit.
func (p *Process) setHardwareStoppoint(address VirtAddr, mode WatchMode, size int) (int, error) {
	sizeBits, ok := sizeEncoding[size]
	if !ok {
		return 0, protocolErrorf("unsupported watchpoint size %d", size)
	}
	modeBits, err := modeEncoding(mode)
	if err != nil {
		return 0, err
	}

	control, err := p.registers.ReadUint64ByID(DR7)
	if err != nil {
		return 0, err
	}

	index := -1
	for i := 0; i < numHardwareSlots; i++ {
		if control&(1<<(uint(i)*2)) == 0 {
			index = i
			break
		}
	}
	if index == -1 {
		return 0, resourceExhaustedErrorf("no free hardware debug register")
	}

	if err := p.registers.WriteByID(drIDs[index], NewU64(uint64(address))); err != nil {
		return 0, err
	}

	clearMask := uint64(0b1111) << (16 + uint(index)*4)
	control &^= clearMask
	control |= (modeBits | (sizeBits << 2)) << (16 + uint(index)*4)
	control |= 1 << (uint(index) * 2) // local enable bit

	if err := p.registers.WriteByID(DR7, NewU64(control)); err != nil {
		return 0, err
	}

	return index, nil
}

// clearHardwareStoppoint zeros dr[index] and clears that slot's
// enable/mode/size bits in dr7.
func (p *Process) clearHardwareStoppoint(index int) error {
	if index < 0 || index >= numHardwareSlots {
		return protocolErrorf("invalid hardware debug register index %d", index)
	}

	control, err := p.registers.ReadUint64ByID(DR7)
	if err != nil {
		return err
	}
	control &^= uint64(0b1111) << (16 + uint(index)*4)
	control &^= 1 << (uint(index) * 2)
	if err := p.registers.WriteByID(DR7, NewU64(control)); err != nil {
		return err
	}

	return p.registers.WriteByID(drIDs[index], NewU64(0))
}

// setHardwareBreakpoint arms a hardware breakpoint: execute mode, size 1.
func (p *Process) setHardwareBreakpoint(id int, address VirtAddr) (int, error) {
	return p.setHardwareStoppoint(address, WatchExecute, 1)
}

// setWatchpoint arms a hardware watchpoint for the given mode and size.
func (p *Process) setWatchpoint(id int, address VirtAddr, mode WatchMode, size int) (int, error) {
	return p.setHardwareStoppoint(address, mode, size)
}
