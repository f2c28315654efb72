package sdb

import (
	"encoding/binary"
	"math"
)

// ValueKind tags the concrete representation held by a RegisterValue.
type ValueKind int

const (
	ValU8 ValueKind = iota
	ValU16
	ValU32
	ValU64
	ValI8
	ValI16
	ValI32
	ValI64
	ValF32
	ValF64
	ValLongDouble // 80-bit x87 extended float, padded to 16 bytes
	ValBytes8
	ValBytes16
)

// RegisterValue is a tagged union over every concrete representation a
// register's contents can take. Reads and writes against a Registers
// object always go through RegisterInfo.Format/Size, which select the
// variant.
type RegisterValue struct {
	kind  ValueKind
	bits  uint64 // integer/float bit pattern for scalar kinds
	bytes []byte // raw bytes for LongDouble/Bytes8/Bytes16
}

func NewU8(v uint8) RegisterValue   { return RegisterValue{kind: ValU8, bits: uint64(v)} }
func NewU16(v uint16) RegisterValue { return RegisterValue{kind: ValU16, bits: uint64(v)} }
func NewU32(v uint32) RegisterValue { return RegisterValue{kind: ValU32, bits: uint64(v)} }
func NewU64(v uint64) RegisterValue { return RegisterValue{kind: ValU64, bits: v} }
func NewI8(v int8) RegisterValue    { return RegisterValue{kind: ValI8, bits: uint64(uint8(v))} }
func NewI16(v int16) RegisterValue  { return RegisterValue{kind: ValI16, bits: uint64(uint16(v))} }
func NewI32(v int32) RegisterValue  { return RegisterValue{kind: ValI32, bits: uint64(uint32(v))} }
func NewI64(v int64) RegisterValue  { return RegisterValue{kind: ValI64, bits: uint64(v)} }
func NewF32(v float32) RegisterValue {
	return RegisterValue{kind: ValF32, bits: uint64(math.Float32bits(v))}
}
func NewF64(v float64) RegisterValue {
	return RegisterValue{kind: ValF64, bits: math.Float64bits(v)}
}

// NewLongDouble stores b, an 80-bit extended float (10 significant bytes),
// as a 16-byte little-endian blob with the top 6 bytes zero-padded.
func NewLongDouble(b [10]byte) RegisterValue {
	buf := make([]byte, 16)
	copy(buf, b[:])
	return RegisterValue{kind: ValLongDouble, bytes: buf}
}

func NewBytes8(b [8]byte) RegisterValue {
	buf := make([]byte, 8)
	copy(buf, b[:])
	return RegisterValue{kind: ValBytes8, bytes: buf}
}

func NewBytes16(b [16]byte) RegisterValue {
	buf := make([]byte, 16)
	copy(buf, b[:])
	return RegisterValue{kind: ValBytes16, bytes: buf}
}

// Kind reports which concrete variant this value holds.
func (v RegisterValue) Kind() ValueKind { return v.kind }

// AsU64 widens any integer variant to uint64. It panics if v does not hold
// an integer; callers that don't know the kind in advance should switch on
// Kind() first.
func (v RegisterValue) AsU64() uint64 {
	switch v.kind {
	case ValU8, ValU16, ValU32, ValU64:
		return v.bits
	case ValI8:
		return uint64(int64(int8(v.bits)))
	case ValI16:
		return uint64(int64(int16(v.bits)))
	case ValI32:
		return uint64(int64(int32(v.bits)))
	case ValI64:
		return v.bits
	default:
		panic("RegisterValue.AsU64: not an integer variant")
	}
}

// AsF64 returns an f64 value, or an f32 value widened, as a float64; it
// panics for any other kind.
func (v RegisterValue) AsF64() float64 {
	switch v.kind {
	case ValF64:
		return math.Float64frombits(v.bits)
	case ValF32:
		return float64(math.Float32frombits(uint32(v.bits)))
	default:
		panic("RegisterValue.AsF64: not a float variant")
	}
}

// Bytes returns the raw byte representation of v at its natural width.
func (v RegisterValue) Bytes() []byte {
	switch v.kind {
	case ValU8, ValI8:
		return toBytesUint(v.bits, 1)
	case ValU16, ValI16:
		return toBytesUint(v.bits, 2)
	case ValU32, ValI32:
		return toBytesUint(v.bits, 4)
	case ValU64, ValI64:
		return toBytesUint(v.bits, 8)
	case ValF32:
		return toBytesUint(v.bits, 4)
	case ValF64:
		return toBytesUint(v.bits, 8)
	case ValLongDouble, ValBytes8, ValBytes16:
		out := make([]byte, len(v.bytes))
		copy(out, v.bytes)
		return out
	default:
		panic("RegisterValue.Bytes: unknown kind")
	}
}

// valueFromBytes builds a RegisterValue from raw bytes according to the
// (format, size) pair from a RegisterInfo. Any (format, size) combination
// not recognized here is a protocol error rather than a silent fallthrough.
func valueFromBytes(format RegisterFormat, size int, raw []byte) (RegisterValue, error) {
	switch format {
	case UInt:
		switch size {
		case 1:
			return NewU8(raw[0]), nil
		case 2:
			return NewU16(binary.LittleEndian.Uint16(raw)), nil
		case 4:
			return NewU32(binary.LittleEndian.Uint32(raw)), nil
		case 8:
			return NewU64(binary.LittleEndian.Uint64(raw)), nil
		}
	case DoubleFloat:
		if size == 8 {
			return NewF64(math.Float64frombits(binary.LittleEndian.Uint64(raw))), nil
		}
	case LongDouble:
		if size == 16 {
			var b [10]byte
			copy(b[:], raw[:10])
			return NewLongDouble(b), nil
		}
	case Vector:
		switch size {
		case 8:
			var b [8]byte
			copy(b[:], raw)
			return NewBytes8(b), nil
		case 16:
			var b [16]byte
			copy(b[:], raw)
			return NewBytes16(b), nil
		}
	}
	return RegisterValue{}, protocolErrorf("unsupported register format/size combination (%v, %d)", format, size)
}

// toNarrowedBytes narrows v to exactly size bytes according to format,
// raising a protocol error for any (format, size) pair valueFromBytes would
// also reject.
func toNarrowedBytes(v RegisterValue, format RegisterFormat, size int) ([]byte, error) {
	b := v.Bytes()
	switch format {
	case UInt:
		switch size {
		case 1, 2, 4, 8:
			out := make([]byte, size)
			copy(out, b)
			return out, nil
		}
	case DoubleFloat:
		if size == 8 && len(b) >= 8 {
			return b[:8], nil
		}
	case LongDouble:
		if size == 16 {
			out := make([]byte, 16)
			copy(out, b)
			return out, nil
		}
	case Vector:
		if size == 8 || size == 16 {
			out := make([]byte, size)
			copy(out, b)
			return out, nil
		}
	}
	return nil, protocolErrorf("unsupported register format/size combination (%v, %d)", format, size)
}
