// Package disasm decodes x86-64 machine code into a single human-readable
// instruction at a time, the same x86asm binding the teacher's disassembler
// is built on.
package disasm

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"
)

// Instruction is one decoded machine instruction: its length in bytes, the
// raw bytes it was decoded from, and its Intel-syntax text with PC-relative
// operands already resolved to absolute addresses.
type Instruction struct {
	Address uint64
	Length  int
	Bytes   []byte
	Text    string
}

// Decode decodes the single instruction at the start of code, which begins
// at virtual address pc. code must hold at least one full instruction's
// worth of bytes; up to 15 are consumed (the longest possible x86-64
// encoding).
func Decode(code []byte, pc uint64) (Instruction, error) {
	inst, err := x86asm.Decode(code, 64)
	if err != nil {
		return Instruction{}, fmt.Errorf("could not decode instruction at %#x: %w", pc, err)
	}

	patchPCRel(pc, &inst)

	return Instruction{
		Address: pc,
		Length:  inst.Len,
		Bytes:   append([]byte(nil), code[:inst.Len]...),
		Text:    x86asm.IntelSyntax(inst, pc, nil),
	}, nil
}

// DecodeRange decodes up to count consecutive instructions starting at pc.
// If code ends on an instruction boundary before count is reached, it stops
// early without error; if decoding fails (including when code ends partway
// through an instruction), it returns the instructions decoded so far along
// with that error.
func DecodeRange(code []byte, pc uint64, count int) ([]Instruction, error) {
	out := make([]Instruction, 0, count)
	offset := 0
	addr := pc
	for i := 0; i < count && offset < len(code); i++ {
		inst, err := Decode(code[offset:], addr)
		if err != nil {
			return out, err
		}
		out = append(out, inst)
		offset += inst.Length
		addr += uint64(inst.Length)
	}
	return out, nil
}

// patchPCRel rewrites any PC-relative operand (a relative branch/call
// displacement) into an absolute address, so callers never have to reason
// about instruction length themselves.
func patchPCRel(pc uint64, inst *x86asm.Inst) {
	for i := range inst.Args {
		rel, ok := inst.Args[i].(x86asm.Rel)
		if !ok {
			continue
		}
		inst.Args[i] = x86asm.Imm(int64(pc) + int64(rel) + int64(inst.Len))
	}
}
