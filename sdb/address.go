package sdb

import "fmt"

// VirtAddr is an address in the inferior's virtual address space. It is a
// distinct type from uint64 so that register values, file offsets and
// addresses can't be mixed up by the compiler.
type VirtAddr uint64

// Add returns addr offset by a signed number of bytes.
func (addr VirtAddr) Add(offset int64) VirtAddr {
	return VirtAddr(int64(addr) + offset)
}

// Less reports whether addr sorts before other.
func (addr VirtAddr) Less(other VirtAddr) bool {
	return addr < other
}

func (addr VirtAddr) String() string {
	return fmt.Sprintf("%#016x", uint64(addr))
}
