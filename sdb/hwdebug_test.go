package sdb

import "testing"

func TestSizeEncodingRoundTrips(t *testing.T) {
	for size, bits := range sizeEncoding {
		if got := sizeDecoding[bits]; got != size {
			t.Errorf("sizeDecoding[%#b] = %d, want %d", bits, got, size)
		}
	}
}

func TestSizeEncodingIsNonMonotonic(t *testing.T) {
	// The x86 debug-register size field does not sort by encoded size:
	// 8 bytes (0b10) encodes lower than 4 bytes (0b11).
	if sizeEncoding[8] >= sizeEncoding[4] {
		t.Errorf("expected the 8-byte encoding (%#b) to sort below the 4-byte encoding (%#b)", sizeEncoding[8], sizeEncoding[4])
	}
}

func TestModeEncodingRejectsUnknownMode(t *testing.T) {
	_, err := modeEncoding(WatchMode(99))
	if err == nil {
		t.Fatal("expected an error for an unrecognized watchpoint mode")
	}
}

func TestModeEncodingKnownModes(t *testing.T) {
	cases := []struct {
		mode WatchMode
		want uint64
	}{
		{WatchExecute, 0b00},
		{WatchWrite, 0b01},
		{WatchReadWrite, 0b11},
	}
	for _, c := range cases {
		got, err := modeEncoding(c.mode)
		if err != nil {
			t.Fatalf("modeEncoding(%v): %v", c.mode, err)
		}
		if got != c.want {
			t.Errorf("modeEncoding(%v) = %#b, want %#b", c.mode, got, c.want)
		}
	}
}
