package sdb

// Registers is the per-inferior mirror of the kernel's register dumps. It
// holds a private copy of the general-purpose, floating-point and debug
// register state; every write updates that copy and then flushes the
// change to the kernel through the owning Process.
//
// Registers keeps a non-owning back-reference to its Process rather than
// routing every register write through the Process itself: Go's garbage
// collector handles the resulting reference cycle without the lifetime
// hazard that shape would have in C++, so there is no reason to give up
// the simpler call shape.
type Registers struct {
	proc *Process

	gpr [userAreaSize]byte
	fpr [512]byte
	dbg [8]uint64
}

func newRegisters(proc *Process) *Registers {
	return &Registers{proc: proc}
}

// Read interprets info.Size bytes from the local dump at info.Offset as
// the variant selected by info.Format.
func (r *Registers) Read(info RegisterInfo) (RegisterValue, error) {
	raw, err := r.rawSlice(info)
	if err != nil {
		return RegisterValue{}, err
	}
	return valueFromBytes(info.Format, info.Size, raw)
}

// ReadByID looks up id in the catalogue and reads it.
func (r *Registers) ReadByID(id RegisterID) (RegisterValue, error) {
	info, err := RegisterInfoByID(id)
	if err != nil {
		return RegisterValue{}, err
	}
	return r.Read(info)
}

// ReadUint64ByID is a convenience wrapper for the common case of reading a
// general-purpose or debug register as a plain integer (e.g. PC/SP access
// from the Process).
func (r *Registers) ReadUint64ByID(id RegisterID) (uint64, error) {
	v, err := r.ReadByID(id)
	if err != nil {
		return 0, err
	}
	return v.AsU64(), nil
}

// Write narrows value to info.Size bytes, splices them into the local dump
// at info.Offset, then flushes: a single 8-byte-aligned user-area poke for
// general/sub-general/debug registers, a full floating-point dump push for
// floating-point registers.
func (r *Registers) Write(info RegisterInfo, value RegisterValue) error {
	narrowed, err := toNarrowedBytes(value, info.Format, info.Size)
	if err != nil {
		return err
	}

	switch info.Kind {
	case General, SubGeneral:
		copy(r.gpr[info.Offset:info.Offset+info.Size], narrowed)
		aligned := (info.Offset / 8) * 8
		word := fromBytesUint(r.gpr[aligned:aligned+8], 8)
		if err := r.proc.pokeUserWord(aligned, word); err != nil {
			return ioErrorf(err, "could not write register %s", info.Name)
		}
		return nil

	case Debug:
		idx := (info.Offset - debugRegOffset) / 8
		word := fromBytesUint(narrowed, 8)
		r.dbg[idx] = word
		if err := r.proc.pokeUserWord(info.Offset, word); err != nil {
			return ioErrorf(err, "could not write register %s", info.Name)
		}
		return nil

	case Floating:
		copy(r.fpr[info.Offset:info.Offset+info.Size], narrowed)
		if err := r.proc.pushFpRegs(&r.fpr); err != nil {
			return ioErrorf(err, "could not write register %s", info.Name)
		}
		return nil

	default:
		return protocolErrorf("unknown register kind %v", info.Kind)
	}
}

// WriteByID looks up id in the catalogue and writes it.
func (r *Registers) WriteByID(id RegisterID, value RegisterValue) error {
	info, err := RegisterInfoByID(id)
	if err != nil {
		return err
	}
	return r.Write(info, value)
}

func (r *Registers) rawSlice(info RegisterInfo) ([]byte, error) {
	switch info.Kind {
	case General, SubGeneral:
		if info.Offset < 0 || info.Offset+info.Size > userAreaSize {
			return nil, protocolErrorf("register %s out of range of user area", info.Name)
		}
		return r.gpr[info.Offset : info.Offset+info.Size], nil

	case Floating:
		if info.Offset < 0 || info.Offset+info.Size > len(r.fpr) {
			return nil, protocolErrorf("register %s out of range of fp dump", info.Name)
		}
		return r.fpr[info.Offset : info.Offset+info.Size], nil

	case Debug:
		idx := (info.Offset - debugRegOffset) / 8
		if idx < 0 || idx >= len(r.dbg) {
			return nil, protocolErrorf("register %s out of range of debug registers", info.Name)
		}
		return toBytesUint(r.dbg[idx], 8)[:info.Size], nil

	default:
		return nil, protocolErrorf("unknown register kind %v", info.Kind)
	}
}

// loadGPR replaces the local general-purpose register dump with raw. Only
// called by Process.readAllRegisters after a stop.
func (r *Registers) loadGPR(raw [userAreaSize]byte) {
	r.gpr = raw
}

// loadFPR replaces the local floating-point register dump with raw.
func (r *Registers) loadFPR(raw [512]byte) {
	r.fpr = raw
}

// loadDebug replaces the local debug register mirror with values read one
// at a time from the tracee (there is no bulk primitive for them).
func (r *Registers) loadDebug(values [8]uint64) {
	r.dbg = values
}
