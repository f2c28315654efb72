package sdb

import "fmt"

// RegisterID identifies a single architectural register. The numeric
// values are stable within a process but carry no meaning outside this
// package; use RegisterInfo.DwarfID when an external identifier is needed.
type RegisterID int

// RegisterKind classifies how a register's storage is shared with others.
type RegisterKind int

const (
	// General is a full-width (64-bit) general-purpose register.
	General RegisterKind = iota
	// SubGeneral is a narrower view (32/16/8-bit) of a General register,
	// sharing its user-area offset.
	SubGeneral
	// Floating is an x87/MMX/XMM register or the FP status/control words.
	Floating
	// Debug is one of dr0..dr7.
	Debug
)

func (k RegisterKind) String() string {
	switch k {
	case General:
		return "general"
	case SubGeneral:
		return "sub-general"
	case Floating:
		return "floating"
	case Debug:
		return "debug"
	default:
		return "unknown"
	}
}

// RegisterFormat selects how RegisterValue should interpret a register's
// raw bytes.
type RegisterFormat int

const (
	// UInt formats the register as an unsigned integer of its size.
	UInt RegisterFormat = iota
	// DoubleFloat formats the register as an IEEE-754 binary64.
	DoubleFloat
	// LongDouble formats the register as an 80-bit x87 extended
	// precision float, stored padded to 16 bytes.
	LongDouble
	// Vector formats the register as an opaque byte vector (8 or 16
	// bytes), used for MMX and XMM registers.
	Vector
)

// RegisterInfo is an immutable descriptor for one architectural register.
// The register catalogue is the single source of truth for offset and
// size: all register I/O in this package is mediated by a RegisterInfo
// looked up from it.
type RegisterInfo struct {
	Name    string
	ID      RegisterID
	DwarfID int // -1 if the register has no DWARF number
	Size    int // 1, 2, 4, 8, 10, or 16
	Offset  int // byte offset into the user-area / fpregs dump
	Kind    RegisterKind
	Format  RegisterFormat
}

// Linux x86-64 struct user_regs_struct field offsets (PTRACE_PEEKUSER
// addresses this layout directly).
const (
	offR15     = 0
	offR14     = 8
	offR13     = 16
	offR12     = 24
	offRbp     = 32
	offRbx     = 40
	offR11     = 48
	offR10     = 56
	offR9      = 64
	offR8      = 72
	offRax     = 80
	offRcx     = 88
	offRdx     = 96
	offRsi     = 104
	offRdi     = 112
	offOrigRax = 120
	offRip     = 128
	offCs      = 136
	offEflags  = 144
	offRsp     = 152
	offSs      = 160
	offFsBase  = 168
	offGsBase  = 176
	offDs      = 184
	offEs      = 192
	offFs      = 200
	offGs      = 208

	// userAreaSize is sizeof(struct user_regs_struct).
	userAreaSize = 216

	// debugRegOffset is offsetof(struct user, u_debugreg) on linux/amd64.
	debugRegOffset = 848
)

// struct user_fpregs_struct (fxsave layout) field offsets.
const (
	offCwd      = 0
	offSwd      = 2
	offFtw      = 4
	offFop      = 6
	offFpuRip   = 8
	offFpuRdp   = 16
	offMxcsr    = 24
	offMxcrMask = 28
	offStSpace  = 32  // 8 registers * 16 bytes
	offXmmSpace = 160 // 16 registers * 16 bytes
)

func gpr64(name string, id RegisterID, dwarf, offset int) RegisterInfo {
	return RegisterInfo{Name: name, ID: id, DwarfID: dwarf, Size: 8, Offset: offset, Kind: General, Format: UInt}
}

func subgpr(name string, id RegisterID, size, offset int) RegisterInfo {
	return RegisterInfo{Name: name, ID: id, DwarfID: -1, Size: size, Offset: offset, Kind: SubGeneral, Format: UInt}
}

func fpr(name string, id RegisterID, size, offset int, format RegisterFormat) RegisterInfo {
	return RegisterInfo{Name: name, ID: id, DwarfID: -1, Size: size, Offset: offset, Kind: Floating, Format: format}
}

func dreg(name string, id RegisterID, index int) RegisterInfo {
	return RegisterInfo{Name: name, ID: id, DwarfID: -1, Size: 8, Offset: debugRegOffset + index*8, Kind: Debug, Format: UInt}
}

// Register IDs. Values are grouped by family purely for readability; callers
// must go through RegisterInfoByID/Name/DwarfID rather than relying on
// ordering.
const (
	RAX RegisterID = iota
	RBX
	RCX
	RDX
	RDI
	RSI
	RBP
	RSP
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
	RIP
	EFLAGS
	CS
	FS
	GS
	SS
	DS
	ES
	ORIG_RAX

	EAX
	EBX
	ECX
	EDX
	EDI
	ESI
	EBP
	ESP
	R8D
	R9D
	R10D
	R11D
	R12D
	R13D
	R14D
	R15D

	AX
	BX
	CX
	DX
	DI
	SI
	BP
	SP
	R8W
	R9W
	R10W
	R11W
	R12W
	R13W
	R14W
	R15W

	AH
	BH
	CH
	DH
	AL
	BL
	CL
	DL
	DIL
	SIL
	BPL
	SPL
	R8B
	R9B
	R10B
	R11B
	R12B
	R13B
	R14B
	R15B

	FCW
	FSW
	MXCSR

	ST0
	ST1
	ST2
	ST3
	ST4
	ST5
	ST6
	ST7

	MM0
	MM1
	MM2
	MM3
	MM4
	MM5
	MM6
	MM7

	XMM0
	XMM1
	XMM2
	XMM3
	XMM4
	XMM5
	XMM6
	XMM7
	XMM8
	XMM9
	XMM10
	XMM11
	XMM12
	XMM13
	XMM14
	XMM15

	DR0
	DR1
	DR2
	DR3
	DR4
	DR5
	DR6
	DR7
)

// registerInfoTable is the process-wide catalogue: the single source of
// truth for a register's offset, size, kind and display format.
var registerInfoTable = buildRegisterInfoTable()

func buildRegisterInfoTable() []RegisterInfo {
	t := []RegisterInfo{
		gpr64("rax", RAX, 0, offRax),
		gpr64("rdx", RDX, 1, offRdx),
		gpr64("rcx", RCX, 2, offRcx),
		gpr64("rbx", RBX, 3, offRbx),
		gpr64("rsi", RSI, 4, offRsi),
		gpr64("rdi", RDI, 5, offRdi),
		gpr64("rbp", RBP, 6, offRbp),
		gpr64("rsp", RSP, 7, offRsp),
		gpr64("r8", R8, 8, offR8),
		gpr64("r9", R9, 9, offR9),
		gpr64("r10", R10, 10, offR10),
		gpr64("r11", R11, 11, offR11),
		gpr64("r12", R12, 12, offR12),
		gpr64("r13", R13, 13, offR13),
		gpr64("r14", R14, 14, offR14),
		gpr64("r15", R15, 15, offR15),
		gpr64("rip", RIP, 16, offRip),
		{Name: "eflags", ID: EFLAGS, DwarfID: 49, Size: 8, Offset: offEflags, Kind: General, Format: UInt},
		gpr64("orig_rax", ORIG_RAX, -1, offOrigRax),
		{Name: "cs", ID: CS, DwarfID: 51, Size: 8, Offset: offCs, Kind: General, Format: UInt},
		{Name: "fs", ID: FS, DwarfID: 54, Size: 8, Offset: offFs, Kind: General, Format: UInt},
		{Name: "gs", ID: GS, DwarfID: 55, Size: 8, Offset: offGs, Kind: General, Format: UInt},
		{Name: "ss", ID: SS, DwarfID: 52, Size: 8, Offset: offSs, Kind: General, Format: UInt},
		{Name: "ds", ID: DS, DwarfID: 53, Size: 8, Offset: offDs, Kind: General, Format: UInt},
		{Name: "es", ID: ES, DwarfID: 50, Size: 8, Offset: offEs, Kind: General, Format: UInt},

		subgpr("eax", EAX, 4, offRax),
		subgpr("ebx", EBX, 4, offRbx),
		subgpr("ecx", ECX, 4, offRcx),
		subgpr("edx", EDX, 4, offRdx),
		subgpr("edi", EDI, 4, offRdi),
		subgpr("esi", ESI, 4, offRsi),
		subgpr("ebp", EBP, 4, offRbp),
		subgpr("esp", ESP, 4, offRsp),
		subgpr("r8d", R8D, 4, offR8),
		subgpr("r9d", R9D, 4, offR9),
		subgpr("r10d", R10D, 4, offR10),
		subgpr("r11d", R11D, 4, offR11),
		subgpr("r12d", R12D, 4, offR12),
		subgpr("r13d", R13D, 4, offR13),
		subgpr("r14d", R14D, 4, offR14),
		subgpr("r15d", R15D, 4, offR15),

		subgpr("ax", AX, 2, offRax),
		subgpr("bx", BX, 2, offRbx),
		subgpr("cx", CX, 2, offRcx),
		subgpr("dx", DX, 2, offRdx),
		subgpr("di", DI, 2, offRdi),
		subgpr("si", SI, 2, offRsi),
		subgpr("bp", BP, 2, offRbp),
		subgpr("sp", SP, 2, offRsp),
		subgpr("r8w", R8W, 2, offR8),
		subgpr("r9w", R9W, 2, offR9),
		subgpr("r10w", R10W, 2, offR10),
		subgpr("r11w", R11W, 2, offR11),
		subgpr("r12w", R12W, 2, offR12),
		subgpr("r13w", R13W, 2, offR13),
		subgpr("r14w", R14W, 2, offR14),
		subgpr("r15w", R15W, 2, offR15),

		// ah/bh/ch/dh alias the second byte of the 16-bit register; the
		// low byte aliases its own name below. Offset+1 selects that
		// byte once the enclosing word is read.
		{Name: "ah", ID: AH, DwarfID: -1, Size: 1, Offset: offRax + 1, Kind: SubGeneral, Format: UInt},
		{Name: "bh", ID: BH, DwarfID: -1, Size: 1, Offset: offRbx + 1, Kind: SubGeneral, Format: UInt},
		{Name: "ch", ID: CH, DwarfID: -1, Size: 1, Offset: offRcx + 1, Kind: SubGeneral, Format: UInt},
		{Name: "dh", ID: DH, DwarfID: -1, Size: 1, Offset: offRdx + 1, Kind: SubGeneral, Format: UInt},

		subgpr("al", AL, 1, offRax),
		subgpr("bl", BL, 1, offRbx),
		subgpr("cl", CL, 1, offRcx),
		subgpr("dl", DL, 1, offRdx),
		subgpr("dil", DIL, 1, offRdi),
		subgpr("sil", SIL, 1, offRsi),
		subgpr("bpl", BPL, 1, offRbp),
		subgpr("spl", SPL, 1, offRsp),
		subgpr("r8b", R8B, 1, offR8),
		subgpr("r9b", R9B, 1, offR9),
		subgpr("r10b", R10B, 1, offR10),
		subgpr("r11b", R11B, 1, offR11),
		subgpr("r12b", R12B, 1, offR12),
		subgpr("r13b", R13B, 1, offR13),
		subgpr("r14b", R14B, 1, offR14),
		subgpr("r15b", R15B, 1, offR15),

		fpr("fcw", FCW, 2, offCwd, UInt),
		fpr("fsw", FSW, 2, offSwd, UInt),
		fpr("mxcsr", MXCSR, 4, offMxcsr, UInt),

		dreg("dr0", DR0, 0),
		dreg("dr1", DR1, 1),
		dreg("dr2", DR2, 2),
		dreg("dr3", DR3, 3),
		dreg("dr4", DR4, 4),
		dreg("dr5", DR5, 5),
		dreg("dr6", DR6, 6),
		dreg("dr7", DR7, 7),
	}

	for i := 0; i < 8; i++ {
		t = append(t, fpr(fmt.Sprintf("st%d", i), ST0+RegisterID(i), 16, offStSpace+i*16, LongDouble))
	}
	for i := 0; i < 8; i++ {
		// mm0..mm7 alias the low 8 bytes of st0..st7.
		t = append(t, fpr(fmt.Sprintf("mm%d", i), MM0+RegisterID(i), 8, offStSpace+i*16, Vector))
	}
	for i := 0; i < 16; i++ {
		t = append(t, fpr(fmt.Sprintf("xmm%d", i), XMM0+RegisterID(i), 16, offXmmSpace+i*16, Vector))
	}

	return t
}

var (
	registerInfoByName = func() map[string]*RegisterInfo {
		m := make(map[string]*RegisterInfo, len(registerInfoTable))
		for i := range registerInfoTable {
			m[registerInfoTable[i].Name] = &registerInfoTable[i]
		}
		return m
	}()
	registerInfoByID = func() map[RegisterID]*RegisterInfo {
		m := make(map[RegisterID]*RegisterInfo, len(registerInfoTable))
		for i := range registerInfoTable {
			m[registerInfoTable[i].ID] = &registerInfoTable[i]
		}
		return m
	}()
	registerInfoByDwarfID = func() map[int]*RegisterInfo {
		m := make(map[int]*RegisterInfo, len(registerInfoTable))
		for i := range registerInfoTable {
			if registerInfoTable[i].DwarfID >= 0 {
				m[registerInfoTable[i].DwarfID] = &registerInfoTable[i]
			}
		}
		return m
	}()
)

// RegisterInfoByName looks up a register by its textual name (e.g. "rax").
func RegisterInfoByName(name string) (RegisterInfo, error) {
	if info, ok := registerInfoByName[name]; ok {
		return *info, nil
	}
	return RegisterInfo{}, protocolErrorf("no such register: %s", name)
}

// RegisterInfoByID looks up a register by its RegisterID symbol.
func RegisterInfoByID(id RegisterID) (RegisterInfo, error) {
	if info, ok := registerInfoByID[id]; ok {
		return *info, nil
	}
	return RegisterInfo{}, protocolErrorf("no such register id: %d", id)
}

// RegisterInfoByDwarfID looks up a register by its DWARF register number.
func RegisterInfoByDwarfID(dwarfID int) (RegisterInfo, error) {
	if info, ok := registerInfoByDwarfID[dwarfID]; ok {
		return *info, nil
	}
	return RegisterInfo{}, protocolErrorf("no register with dwarf id: %d", dwarfID)
}

// AllRegisterInfos returns the full register catalogue in declaration
// order. Callers must not mutate the returned slice.
func AllRegisterInfos() []RegisterInfo {
	return registerInfoTable
}
