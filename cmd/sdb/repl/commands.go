package repl

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Nekketsu/Sdb/internal/disasm"
	"github.com/Nekketsu/Sdb/sdb"
)

func builtinCommands() []command {
	return []command{
		{aliases: []string{"help", "h"}, helpMsg: "Prints this message.", fn: helpCmd},
		{aliases: []string{"quit", "q", "exit"}, helpMsg: "Exit sdb.", fn: quitCmd},
		{aliases: []string{"continue", "c"}, helpMsg: "Resume the inferior until the next stop.", fn: continueCmd},
		{aliases: []string{"step", "s"}, helpMsg: "Execute a single instruction.", fn: stepCmd},
		{aliases: []string{"breakpoint", "b"}, helpMsg: "breakpoint set <hex> [-h] | list | enable <id> | disable <id> | delete <id>", fn: breakpointCmd},
		{aliases: []string{"watchpoint", "w"}, helpMsg: "watchpoint set <hex> <write|rw|execute> <size> | list | enable <id> | disable <id> | delete <id>", fn: watchpointCmd},
		{aliases: []string{"register", "reg"}, helpMsg: "register read [<name>|all] | write <name> <value>", fn: registerCmd},
		{aliases: []string{"memory", "mem"}, helpMsg: "memory read <hex> [n] | write <hex> <bytes>", fn: memoryCmd},
		{aliases: []string{"disassemble", "disass"}, helpMsg: "disassemble [-a <hex>] [-c <n>]", fn: disassembleCmd},
	}
}

func helpCmd(r *REPL, args string) error {
	names := make([]string, 0, len(r.cmds))
	byName := map[string]command{}
	for _, c := range r.cmds {
		names = append(names, c.aliases[0])
		byName[c.aliases[0]] = c
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(r.stdout, "  %-12s %s\n", n, byName[n].helpMsg)
	}
	return nil
}

func quitCmd(r *REPL, args string) error {
	r.quit = true
	return nil
}

func continueCmd(r *REPL, args string) error {
	if err := r.proc.Resume(); err != nil {
		return err
	}
	reason, err := r.proc.WaitOnSignal()
	if err != nil {
		return err
	}
	return printStop(r, reason)
}

func stepCmd(r *REPL, args string) error {
	reason, err := r.proc.StepInstruction()
	if err != nil {
		return err
	}
	return printStop(r, reason)
}

func printStop(r *REPL, reason sdb.StopReason) error {
	switch reason.State {
	case sdb.Exited:
		fmt.Fprintf(r.stdout, "process %d exited with status %d\n", r.proc.Pid(), reason.Info)
	case sdb.Terminated:
		fmt.Fprintf(r.stdout, "process %d terminated by signal %d\n", r.proc.Pid(), reason.Info)
	case sdb.Stopped:
		pc, err := r.proc.GetPC()
		if err != nil {
			return err
		}
		fmt.Fprintf(r.stdout, "stopped (signal %d) at %s\n", reason.Info, pc)
	}
	return nil
}

func parseHexAddr(s string) (sdb.VirtAddr, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hex address %q: %w", s, err)
	}
	return sdb.VirtAddr(v), nil
}

func breakpointCmd(r *REPL, args string) error {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return fmt.Errorf("usage: breakpoint set <hex> [-h] | list | enable <id> | disable <id> | delete <id>")
	}
	switch fields[0] {
	case "set":
		if len(fields) < 2 {
			return fmt.Errorf("usage: breakpoint set <hex> [-h]")
		}
		addr, err := parseHexAddr(fields[1])
		if err != nil {
			return err
		}
		hardware := len(fields) > 2 && fields[2] == "-h"
		site, err := r.proc.CreateBreakpointSite(addr, hardware, false)
		if err != nil {
			return err
		}
		if err := site.Enable(); err != nil {
			return err
		}
		fmt.Fprintf(r.stdout, "set breakpoint %d at %s\n", site.ID(), addr)
		return nil

	case "list":
		r.proc.BreakpointSites().ForEach(func(s *sdb.BreakpointSite) {
			fmt.Fprintf(r.stdout, "%d: %s %s\n", s.ID(), s.Address(), enabledWord(s.Enabled()))
		})
		return nil

	case "enable", "disable", "delete":
		if len(fields) < 2 {
			return fmt.Errorf("usage: breakpoint %s <id>", fields[0])
		}
		id, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("invalid id %q: %w", fields[1], err)
		}
		site, ok := r.proc.BreakpointSites().GetByID(id)
		if !ok {
			return fmt.Errorf("no breakpoint with id %d", id)
		}
		switch fields[0] {
		case "enable":
			return site.Enable()
		case "disable":
			return site.Disable()
		case "delete":
			return r.proc.BreakpointSites().RemoveByID(id)
		}
	}
	return fmt.Errorf("unknown breakpoint subcommand: %s", fields[0])
}

func parseWatchMode(s string) (sdb.WatchMode, error) {
	switch s {
	case "write":
		return sdb.WatchWrite, nil
	case "rw":
		return sdb.WatchReadWrite, nil
	case "execute":
		return sdb.WatchExecute, nil
	default:
		return 0, fmt.Errorf("unknown watchpoint mode %q: want write|rw|execute", s)
	}
}

func watchpointCmd(r *REPL, args string) error {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return fmt.Errorf("usage: watchpoint set <hex> <write|rw|execute> <size> | list | enable <id> | disable <id> | delete <id>")
	}
	switch fields[0] {
	case "set":
		if len(fields) < 4 {
			return fmt.Errorf("usage: watchpoint set <hex> <write|rw|execute> <size>")
		}
		addr, err := parseHexAddr(fields[1])
		if err != nil {
			return err
		}
		mode, err := parseWatchMode(fields[2])
		if err != nil {
			return err
		}
		size, err := strconv.Atoi(fields[3])
		if err != nil {
			return fmt.Errorf("invalid size %q: %w", fields[3], err)
		}
		wp, err := r.proc.CreateWatchpoint(addr, mode, size)
		if err != nil {
			return err
		}
		if err := wp.Enable(); err != nil {
			return err
		}
		fmt.Fprintf(r.stdout, "set watchpoint %d at %s (%s, %d bytes)\n", wp.ID(), addr, mode, size)
		return nil

	case "list":
		r.proc.Watchpoints().ForEach(func(w *sdb.Watchpoint) {
			fmt.Fprintf(r.stdout, "%d: %s %s %d %s\n", w.ID(), w.Address(), w.Mode(), w.Size(), enabledWord(w.Enabled()))
		})
		return nil

	case "enable", "disable", "delete":
		if len(fields) < 2 {
			return fmt.Errorf("usage: watchpoint %s <id>", fields[0])
		}
		id, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("invalid id %q: %w", fields[1], err)
		}
		wp, ok := r.proc.Watchpoints().GetByID(id)
		if !ok {
			return fmt.Errorf("no watchpoint with id %d", id)
		}
		switch fields[0] {
		case "enable":
			return wp.Enable()
		case "disable":
			return wp.Disable()
		case "delete":
			return r.proc.Watchpoints().RemoveByID(id)
		}
	}
	return fmt.Errorf("unknown watchpoint subcommand: %s", fields[0])
}

func enabledWord(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

func registerCmd(r *REPL, args string) error {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return fmt.Errorf("usage: register read [<name>|all] | write <name> <value>")
	}
	switch fields[0] {
	case "read":
		name := "all"
		if len(fields) > 1 {
			name = fields[1]
		}
		if name == "all" {
			for _, info := range sdb.AllRegisterInfos() {
				printRegister(r, info)
			}
			return nil
		}
		info, err := sdb.RegisterInfoByName(name)
		if err != nil {
			return err
		}
		printRegister(r, info)
		return nil

	case "write":
		if len(fields) < 3 {
			return fmt.Errorf("usage: register write <name> <value>")
		}
		info, err := sdb.RegisterInfoByName(fields[1])
		if err != nil {
			return err
		}
		value, err := parseRegisterValue(info, fields[2])
		if err != nil {
			return err
		}
		return r.proc.Registers().Write(info, value)
	}
	return fmt.Errorf("unknown register subcommand: %s", fields[0])
}

func printRegister(r *REPL, info sdb.RegisterInfo) {
	value, err := r.proc.Registers().Read(info)
	if err != nil {
		fmt.Fprintf(r.stdout, "%-8s <error: %v>\n", info.Name, err)
		return
	}
	switch value.Kind() {
	case sdb.ValF32, sdb.ValF64:
		fmt.Fprintf(r.stdout, "%-8s %g\n", info.Name, value.AsF64())
	case sdb.ValLongDouble, sdb.ValBytes8, sdb.ValBytes16:
		fmt.Fprintf(r.stdout, "%-8s 0x%s\n", info.Name, hex.EncodeToString(value.Bytes()))
	default:
		fmt.Fprintf(r.stdout, "%-8s 0x%x\n", info.Name, value.AsU64())
	}
}

func parseRegisterValue(info sdb.RegisterInfo, s string) (sdb.RegisterValue, error) {
	switch info.Format {
	case sdb.DoubleFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return sdb.RegisterValue{}, fmt.Errorf("invalid float %q: %w", s, err)
		}
		return sdb.NewF64(f), nil
	case sdb.UInt:
		s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
		v, err := strconv.ParseUint(s, 16, 64)
		if err != nil {
			return sdb.RegisterValue{}, fmt.Errorf("invalid hex value %q: %w", s, err)
		}
		switch info.Size {
		case 1:
			return sdb.NewU8(uint8(v)), nil
		case 2:
			return sdb.NewU16(uint16(v)), nil
		case 4:
			return sdb.NewU32(uint32(v)), nil
		default:
			return sdb.NewU64(v), nil
		}
	default:
		return sdb.RegisterValue{}, fmt.Errorf("writing register %s (format %v) is not supported from the REPL", info.Name, info.Format)
	}
}

func memoryCmd(r *REPL, args string) error {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return fmt.Errorf("usage: memory read <hex> [n] | write <hex> <bytes>")
	}
	switch fields[0] {
	case "read":
		if len(fields) < 2 {
			return fmt.Errorf("usage: memory read <hex> [n]")
		}
		addr, err := parseHexAddr(fields[1])
		if err != nil {
			return err
		}
		n := 32
		if len(fields) > 2 {
			n, err = strconv.Atoi(fields[2])
			if err != nil {
				return fmt.Errorf("invalid length %q: %w", fields[2], err)
			}
		}
		data, err := r.proc.ReadMemoryWithoutTraps(addr, n)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.stdout, "%s: %s\n", addr, hex.EncodeToString(data))
		return nil

	case "write":
		if len(fields) < 3 {
			return fmt.Errorf("usage: memory write <hex> <bytes>")
		}
		addr, err := parseHexAddr(fields[1])
		if err != nil {
			return err
		}
		data, err := hex.DecodeString(fields[2])
		if err != nil {
			return fmt.Errorf("invalid hex bytes %q: %w", fields[2], err)
		}
		return r.proc.WriteMemory(addr, data)
	}
	return fmt.Errorf("unknown memory subcommand: %s", fields[0])
}

func disassembleCmd(r *REPL, args string) error {
	fields := strings.Fields(args)
	addr, err := r.proc.GetPC()
	if err != nil {
		return err
	}
	count := 5
	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "-a":
			i++
			if i >= len(fields) {
				return fmt.Errorf("-a requires a hex address")
			}
			addr, err = parseHexAddr(fields[i])
			if err != nil {
				return err
			}
		case "-c":
			i++
			if i >= len(fields) {
				return fmt.Errorf("-c requires a count")
			}
			count, err = strconv.Atoi(fields[i])
			if err != nil {
				return fmt.Errorf("invalid count %q: %w", fields[i], err)
			}
		}
	}

	code, err := r.proc.ReadMemoryWithoutTraps(addr, count*15)
	if err != nil {
		return err
	}
	insts, err := disasm.DecodeRange(code, uint64(addr), count)
	if err != nil && len(insts) == 0 {
		return err
	}
	for _, inst := range insts {
		fmt.Fprintf(r.stdout, "%#016x: %s\n", inst.Address, inst.Text)
	}
	return nil
}
