// Package sdb implements the inferior-control core of a source-less,
// instruction-level debugger for x86-64 Linux user-space programs:
// process launch/attach, the run/stop state machine, register and memory
// I/O, and software/hardware stoppoints.
package sdb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/Nekketsu/Sdb/internal/logflags"
	"github.com/Nekketsu/Sdb/sdb/ptrace"
)

func processLogger(pid int) *logrus.Entry {
	return logflags.InferiorLogger(pid)
}

// Process owns a traced inferior: the pid, the tracing relationship, its
// Registers mirror, and its breakpoint-site and watchpoint collections.
// All ptrace calls for a given Process must be issued from the same OS
// thread the kernel associates with the tracer, so Launch and Attach each
// pin their caller's goroutine to its current OS thread for the lifetime
// of the Process, mirroring the execPtraceFunc convention in the
// teacher's pkg/proc/native package.
type Process struct {
	pid            int
	state          ProcessState
	terminateOnEnd bool
	isAttached     bool

	registers       *Registers
	breakpointSites StoppointCollection[*BreakpointSite]
	watchpoints     StoppointCollection[*Watchpoint]

	log *logrus.Entry
}

// Pid returns the inferior's process id.
func (p *Process) Pid() int { return p.pid }

// State returns the current run state.
func (p *Process) State() ProcessState { return p.state }

// IsAttached reports whether this Process was created by Attach rather
// than Launch.
func (p *Process) IsAttached() bool { return p.isAttached }

// Registers returns the per-inferior register mirror.
func (p *Process) Registers() *Registers { return p.registers }

// BreakpointSites returns the process's breakpoint-site collection.
func (p *Process) BreakpointSites() *StoppointCollection[*BreakpointSite] {
	return &p.breakpointSites
}

// Watchpoints returns the process's watchpoint collection.
func (p *Process) Watchpoints() *StoppointCollection[*Watchpoint] {
	return &p.watchpoints
}

// Launch forks a child that execs path under tracing (when debug is true)
// and waits for its initial stop. If stdoutReplacement is non-nil, the
// child's fd 1 is duplicated over it before exec. A failure during child
// setup is surfaced through Start's own error return — the same
// close-on-exec pipe the source's launch forwards exec failures through
// is what the Go runtime's exec.Cmd already wires up internally, so
// Launch does not need to build its own.
func Launch(path string, debug bool, stdoutReplacement *os.File, args ...string) (*Process, error) {
	runtime.LockOSThread()

	cmd := exec.Command(path, args...)
	cmd.Stdin = os.Stdin
	cmd.Stderr = os.Stderr
	if stdoutReplacement != nil {
		cmd.Stdout = stdoutReplacement
	} else {
		cmd.Stdout = os.Stdout
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Ptrace: debug}

	if err := cmd.Start(); err != nil {
		runtime.UnlockOSThread()
		return nil, ioErrorf(err, "could not launch %s", path)
	}

	pid := cmd.Process.Pid
	proc := &Process{
		pid:            pid,
		state:          Stopped,
		terminateOnEnd: true,
		isAttached:     debug,
		log:            processLogger(pid),
	}
	proc.registers = newRegisters(proc)

	if debug {
		var ws unix.WaitStatus
		if _, err := unix.Wait4(pid, &ws, 0, nil); err != nil {
			return nil, ioErrorf(err, "could not wait for initial stop of %s", path)
		}
		if err := ptrace.SetOptions(pid); err != nil {
			return nil, ioErrorf(err, "could not set ptrace options on %s", path)
		}
		if err := proc.readAllRegisters(); err != nil {
			return nil, err
		}
		proc.log.WithField("status", ws).Debug("launched and stopped at entry")
	}

	return proc, nil
}

// Attach sends PTRACE_ATTACH to an already-running process and waits for
// the resulting stop.
func Attach(pid int) (*Process, error) {
	runtime.LockOSThread()

	if err := ptrace.Attach(pid); err != nil {
		runtime.UnlockOSThread()
		return nil, ioErrorf(err, "could not attach to pid %d", pid)
	}

	proc := &Process{
		pid:            pid,
		state:          Stopped,
		terminateOnEnd: false,
		isAttached:     true,
		log:            processLogger(pid),
	}
	proc.registers = newRegisters(proc)

	var ws unix.WaitStatus
	if _, err := unix.Wait4(pid, &ws, 0, nil); err != nil {
		return nil, ioErrorf(err, "could not wait for attach-stop on pid %d", pid)
	}
	if err := proc.readAllRegisters(); err != nil {
		return nil, err
	}
	proc.log.WithField("status", ws).Debug("attached and stopped")

	return proc, nil
}

// Close implements the source's drop behavior: if the inferior is still
// alive it is stopped, its breakpoints are disabled (so a detached
// inferior doesn't crash on a live int3), it is detached if attached, and
// terminated and reaped if it was launched by us. Go has no destructors,
// so callers must defer Close explicitly.
func (p *Process) Close() error {
	defer runtime.UnlockOSThread()

	if p.state == Exited || p.state == Terminated {
		return nil
	}

	if p.state == Running {
		if err := unix.Kill(p.pid, unix.SIGSTOP); err == nil {
			var ws unix.WaitStatus
			unix.Wait4(p.pid, &ws, 0, nil)
		}
	}

	p.breakpointSites.ForEach(func(s *BreakpointSite) {
		if s.Enabled() {
			s.Disable()
		}
	})
	p.watchpoints.ForEach(func(w *Watchpoint) {
		if w.Enabled() {
			w.Disable()
		}
	})

	if p.isAttached {
		if err := ptrace.Detach(p.pid); err != nil {
			p.log.WithError(err).Debug("detach failed")
		}
	}

	if p.terminateOnEnd {
		if err := ptrace.Kill(p.pid); err != nil {
			p.log.WithError(err).Debug("kill failed")
		}
		var ws unix.WaitStatus
		unix.Wait4(p.pid, &ws, 0, nil)
	}

	p.state = Exited
	return nil
}

// GetPC returns the current value of rip.
func (p *Process) GetPC() (VirtAddr, error) {
	v, err := p.registers.ReadUint64ByID(RIP)
	return VirtAddr(v), err
}

// SetPC writes rip.
func (p *Process) SetPC(addr VirtAddr) error {
	return p.registers.WriteByID(RIP, NewU64(uint64(addr)))
}

// Resume continues a stopped inferior. If the instruction at the current
// pc holds an enabled software breakpoint, it is temporarily disabled, a
// single instruction is stepped to clear the trap, the breakpoint is
// re-enabled, and only then is the process continued.
func (p *Process) Resume() error {
	if p.state != Stopped {
		return stateErrorf("cannot resume process in state %v", p.state)
	}

	pc, err := p.GetPC()
	if err != nil {
		return err
	}
	if site, ok := p.breakpointSites.GetByAddress(pc); ok && !site.IsHardware() && site.Enabled() {
		if err := site.Disable(); err != nil {
			return err
		}
		if err := ptrace.SingleStep(p.pid); err != nil {
			return ioErrorf(err, "could not step over breakpoint at %s", pc)
		}
		var ws unix.WaitStatus
		if _, err := unix.Wait4(p.pid, &ws, 0, nil); err != nil {
			return ioErrorf(err, "could not wait while stepping over breakpoint")
		}
		if reason := newStopReason(ws); reason.State != Stopped {
			p.state = reason.State
			return nil
		}
		if err := site.Enable(); err != nil {
			return err
		}
	}

	if err := ptrace.Cont(p.pid, 0); err != nil {
		return ioErrorf(err, "could not resume process %d", p.pid)
	}
	p.state = Running
	return nil
}

// WaitOnSignal blocks on wait4, decodes the resulting StopReason, and on a
// stop refreshes every register. If the trap was caused by an enabled
// software breakpoint, rip is rewound past the int3 byte so callers
// observe the breakpoint's own address, not one past it.
func (p *Process) WaitOnSignal() (StopReason, error) {
	var ws unix.WaitStatus
	if _, err := unix.Wait4(p.pid, &ws, 0, nil); err != nil {
		return StopReason{}, ioErrorf(err, "wait4 failed for pid %d", p.pid)
	}
	reason := newStopReason(ws)
	p.log.WithFields(logrus.Fields{"state": reason.State, "info": reason.Info}).Debug("stop event")

	switch reason.State {
	case Stopped:
		p.state = Stopped
		if err := p.readAllRegisters(); err != nil {
			return reason, err
		}
		if reason.Info == uint8(unix.SIGTRAP) {
			if err := p.rewindPCAfterBreakpoint(); err != nil {
				return reason, err
			}
		}
	case Exited, Terminated:
		p.state = reason.State
	}

	return reason, nil
}

func (p *Process) rewindPCAfterBreakpoint() error {
	pc, err := p.GetPC()
	if err != nil {
		return err
	}
	prev := pc.Add(-1)
	if site, ok := p.breakpointSites.GetByAddress(prev); ok && !site.IsHardware() && site.Enabled() {
		return p.SetPC(prev)
	}
	return nil
}

// StepInstruction steps exactly one instruction, transparently stepping
// over an enabled software breakpoint at the current pc if one is there.
func (p *Process) StepInstruction() (StopReason, error) {
	if p.state != Stopped {
		return StopReason{}, stateErrorf("cannot step process in state %v", p.state)
	}

	pc, err := p.GetPC()
	if err != nil {
		return StopReason{}, err
	}

	site, hadSite := p.breakpointSites.GetByAddress(pc)
	toReenable := hadSite && !site.IsHardware() && site.Enabled()
	if toReenable {
		if err := site.Disable(); err != nil {
			return StopReason{}, err
		}
	}

	if err := ptrace.SingleStep(p.pid); err != nil {
		return StopReason{}, ioErrorf(err, "single step failed")
	}

	reason, err := p.WaitOnSignal()
	if err != nil {
		return reason, err
	}

	if toReenable && p.state == Stopped {
		if err := site.Enable(); err != nil {
			return reason, err
		}
	}

	return reason, nil
}

// CreateBreakpointSite rejects addr if a site already exists there,
// otherwise assigns an id and inserts into the breakpoint-site
// collection.
func (p *Process) CreateBreakpointSite(addr VirtAddr, hardware, internal bool) (*BreakpointSite, error) {
	if p.breakpointSites.ContainsAddress(addr) {
		return nil, protocolErrorf("breakpoint site already created at address %s", addr)
	}
	site := newBreakpointSite(p, addr, hardware, internal)
	return p.breakpointSites.Push(site)
}

// CreateWatchpoint rejects addr if a watchpoint already exists there,
// otherwise assigns an id and inserts into the watchpoint collection.
func (p *Process) CreateWatchpoint(addr VirtAddr, mode WatchMode, size int) (*Watchpoint, error) {
	if p.watchpoints.ContainsAddress(addr) {
		return nil, protocolErrorf("watchpoint already created at address %s", addr)
	}
	wp, err := newWatchpoint(p, addr, mode, size)
	if err != nil {
		return nil, err
	}
	return p.watchpoints.Push(wp)
}

// ReadMemory reads n bytes from the inferior starting at addr, word by
// word via PTRACE_PEEKDATA. A peek that fails after at least one word was
// read (e.g. it straddles an unmapped page) ends the read early, so the
// returned buffer may be shorter than n; a failure on the first word is
// returned as an error.
func (p *Process) ReadMemory(addr VirtAddr, n int) ([]byte, error) {
	out := make([]byte, 0, n)
	cur := addr
	remaining := n
	for remaining > 0 {
		word, err := p.peekWord(cur)
		if err != nil {
			if len(out) > 0 {
				return out, nil
			}
			return nil, ioErrorf(err, "could not read memory at %s", cur)
		}
		wbytes := toBytesUint(word, 8)
		take := 8
		if take > remaining {
			take = remaining
		}
		out = append(out, wbytes[:take]...)
		cur = cur.Add(8)
		remaining -= take
	}
	return out, nil
}

// ReadMemoryWithoutTraps is what disassembly and raw memory inspection
// must call: it reads memory and then, for every enabled software
// breakpoint whose address falls within the returned range, substitutes
// the breakpoint's saved original byte back in, hiding the int3 the
// inferior's real memory holds.
func (p *Process) ReadMemoryWithoutTraps(addr VirtAddr, n int) ([]byte, error) {
	data, err := p.ReadMemory(addr, n)
	if err != nil {
		return nil, err
	}
	p.breakpointSites.ForEach(func(site *BreakpointSite) {
		if site.IsHardware() || !site.Enabled() {
			return
		}
		siteAddr := uint64(site.Address())
		lo, hi := uint64(addr), uint64(addr)+uint64(len(data))
		if siteAddr >= lo && siteAddr < hi {
			data[siteAddr-lo] = site.SavedByte()
		}
	})
	return data, nil
}

// WriteMemory writes data into the inferior starting at addr, using
// 8-byte aligned peek/splice/poke windows so partial words at either end
// of the range don't clobber their unwritten neighbor bytes.
func (p *Process) WriteMemory(addr VirtAddr, data []byte) error {
	written := 0
	for written < len(data) {
		cur := addr.Add(int64(written))
		aligned := VirtAddr((uint64(cur) / 8) * 8)
		off := int(uint64(cur) - uint64(aligned))

		word, err := p.peekWord(aligned)
		if err != nil {
			return ioErrorf(err, "could not read memory at %s", aligned)
		}
		wbytes := toBytesUint(word, 8)

		n := 8 - off
		if n > len(data)-written {
			n = len(data) - written
		}
		copy(wbytes[off:off+n], data[written:written+n])

		if err := p.pokeWord(aligned, fromBytesUint(wbytes, 8)); err != nil {
			return ioErrorf(err, "could not write memory at %s", aligned)
		}
		written += n
	}
	return nil
}

func (p *Process) peekWord(addr VirtAddr) (uint64, error) {
	return ptrace.PeekData(p.pid, uintptr(addr))
}

func (p *Process) pokeWord(addr VirtAddr, word uint64) error {
	return ptrace.PokeData(p.pid, uintptr(addr), word)
}

func (p *Process) pokeUserWord(offset int, word uint64) error {
	return ptrace.PokeUser(p.pid, offset, word)
}

func (p *Process) pushFpRegs(raw *[512]byte) error {
	var fp ptrace.FpRegs
	if err := binary.Read(bytes.NewReader(raw[:]), binary.LittleEndian, &fp); err != nil {
		return fmt.Errorf("could not decode floating point register dump: %w", err)
	}
	return ptrace.SetFpRegs(p.pid, &fp)
}

// readAllRegisters refreshes the entire register dump: general-purpose
// via a single bulk fetch, floating-point via a single bulk fetch, and
// debug registers one at a time (there is no bulk primitive for them).
func (p *Process) readAllRegisters() error {
	regs, err := ptrace.GetRegs(p.pid)
	if err != nil {
		return ioErrorf(err, "could not read general purpose registers")
	}
	var gpr [userAreaSize]byte
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, regs); err != nil {
		return fmt.Errorf("could not encode general purpose registers: %w", err)
	}
	copy(gpr[:], buf.Bytes())
	p.registers.loadGPR(gpr)

	fp, err := ptrace.GetFpRegs(p.pid)
	if err != nil {
		return ioErrorf(err, "could not read floating point registers")
	}
	var fpr [512]byte
	buf.Reset()
	if err := binary.Write(&buf, binary.LittleEndian, fp); err != nil {
		return fmt.Errorf("could not encode floating point registers: %w", err)
	}
	copy(fpr[:], buf.Bytes())
	p.registers.loadFPR(fpr)

	var dbg [8]uint64
	for i := 0; i < 8; i++ {
		v, err := ptrace.PeekUser(p.pid, debugRegOffset+i*8)
		if err != nil {
			return ioErrorf(err, "could not read debug register dr%d", i)
		}
		dbg[i] = v
	}
	p.registers.loadDebug(dbg)

	return nil
}
