// Package ptrace is a thin wrapper over the Linux kernel tracing
// primitive. Each exported function corresponds to one ptrace request
// (attach, continue, single-step, peek/poke text or data, the user-area
// register blocks); callers above this package never issue a raw syscall
// themselves.
package ptrace

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// FpRegs mirrors struct user_fpregs_struct (the x86-64 fxsave layout) byte
// for byte, so it can be read/written via PTRACE_GETFPREGS/SETFPREGS with a
// single pointer cast.
type FpRegs struct {
	Cwd      uint16
	Swd      uint16
	Ftw      uint16
	Fop      uint16
	Rip      uint64
	Rdp      uint64
	Mxcsr    uint32
	MxcrMask uint32
	StSpace  [32]uint32 // 8 registers, 16 bytes each
	XmmSpace [64]uint32 // 16 registers, 16 bytes each
	_        [24]uint32
}

// Attach requests tracing of an already-running process.
func Attach(pid int) error {
	return unix.PtraceAttach(pid)
}

// Traceme requests the calling (about-to-exec) process be traced by its
// parent. Must be called in the child after fork, before exec.
func Traceme() error {
	_, _, errno := unix.Syscall6(unix.SYS_PTRACE, unix.PTRACE_TRACEME, 0, 0, 0, 0, 0)
	if errno != 0 {
		return errno
	}
	return nil
}

// SetOptions configures PTRACE_SETOPTIONS for pid. We always set
// PTRACE_O_EXITKILL so a debugger that dies unexpectedly doesn't orphan a
// launched inferior.
func SetOptions(pid int) error {
	return unix.PtraceSetOptions(pid, unix.PTRACE_O_EXITKILL)
}

// Detach releases the tracing relationship, letting pid resume as a
// freestanding process.
func Detach(pid int) error {
	return unix.PtraceDetach(pid)
}

// Cont resumes a stopped tracee, optionally delivering signal sig (0 for
// none).
func Cont(pid, sig int) error {
	return unix.PtraceCont(pid, sig)
}

// SingleStep resumes a stopped tracee for exactly one instruction.
func SingleStep(pid int) error {
	return unix.PtraceSingleStep(pid)
}

// Kill sends SIGKILL to pid with kill(2), used when terminating a launched
// inferior on shutdown.
func Kill(pid int) error {
	return unix.Kill(pid, unix.SIGKILL)
}

// PeekData reads 8 bytes from the tracee's memory at addr.
func PeekData(pid int, addr uintptr) (uint64, error) {
	var buf [8]byte
	_, err := unix.PtracePeekData(pid, addr, buf[:])
	if err != nil {
		return 0, err
	}
	return leUint64(buf[:]), nil
}

// PokeData writes the 8-byte word data to the tracee's memory at addr.
func PokeData(pid int, addr uintptr, data uint64) error {
	var buf [8]byte
	putLeUint64(buf[:], data)
	_, err := unix.PtracePokeData(pid, addr, buf[:])
	return err
}

// PeekText/PokeText address the tracee's text segment; on Linux these are
// equivalent to PeekData/PokeData but kept distinct to mirror the kernel's
// own PTRACE_PEEKTEXT/PTRACE_PEEKDATA split.
func PeekText(pid int, addr uintptr) (uint64, error) { return PeekData(pid, addr) }
func PokeText(pid int, addr uintptr, data uint64) error {
	return PokeData(pid, addr, data)
}

// PeekUser reads the 8-byte word at byte offset off into the tracee's user
// area (general, segment, and debug registers all live here).
func PeekUser(pid int, off int) (uint64, error) {
	var buf [8]byte
	_, err := unix.PtracePeekUser(pid, uintptr(off), buf[:])
	if err != nil {
		return 0, err
	}
	return leUint64(buf[:]), nil
}

// PokeUser writes an 8-byte word into the tracee's user area at byte
// offset off.
func PokeUser(pid int, off int, data uint64) error {
	var buf [8]byte
	putLeUint64(buf[:], data)
	_, err := unix.PtracePokeUser(pid, uintptr(off), buf[:])
	return err
}

// GetRegs fetches the tracee's general-purpose register dump in one call.
func GetRegs(pid int) (unix.PtraceRegs, error) {
	var regs unix.PtraceRegs
	err := unix.PtraceGetRegs(pid, &regs)
	return regs, err
}

// GetFpRegs fetches the tracee's floating-point register dump
// (PTRACE_GETFPREGS). x/sys/unix defines the request constant but not a
// typed wrapper for linux/amd64, so this issues the raw syscall directly.
func GetFpRegs(pid int) (FpRegs, error) {
	var regs FpRegs
	_, _, errno := unix.Syscall6(unix.SYS_PTRACE, unix.PTRACE_GETFPREGS, uintptr(pid), 0, uintptr(unsafe.Pointer(&regs)), 0, 0)
	if errno != 0 {
		return regs, errno
	}
	return regs, nil
}

// SetFpRegs pushes the full floating-point register dump back to the
// tracee (PTRACE_SETFPREGS). The kernel tracing primitive has no facility
// to poke the floating-point area word by word, so every floating-point
// register write goes through this whole-struct call.
func SetFpRegs(pid int, regs *FpRegs) error {
	_, _, errno := unix.Syscall6(unix.SYS_PTRACE, unix.PTRACE_SETFPREGS, uintptr(pid), 0, uintptr(unsafe.Pointer(regs)), 0, 0)
	if errno != 0 {
		return errno
	}
	return nil
}

func leUint64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func putLeUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v)
		v >>= 8
	}
}
