package sdb

import "encoding/binary"

// fromBytesUint reinterprets the first n bytes of b as a little-endian unsigned
// integer of width n (1, 2, 4 or 8). It is total: callers are responsible
// for ensuring len(b) >= n.
func fromBytesUint(b []byte, n int) uint64 {
	switch n {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	case 8:
		return binary.LittleEndian.Uint64(b)
	default:
		panic("fromBytesUint: unsupported width")
	}
}

// toBytesUint is the inverse of fromBytesUint: it writes v into the low n
// bytes of a freshly allocated little-endian buffer of length n.
func toBytesUint(v uint64, n int) []byte {
	buf := make([]byte, n)
	switch n {
	case 1:
		buf[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(buf, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(buf, uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(buf, v)
	default:
		panic("toBytesUint: unsupported width")
	}
	return buf
}
