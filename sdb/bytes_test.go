package sdb

import "testing"

func TestBytesUintRoundTrip(t *testing.T) {
	cases := []struct {
		n int
		v uint64
	}{
		{1, 0xff},
		{2, 0xbeef},
		{4, 0xcafebabe},
		{8, 0xdeadbeefcafebabe},
	}
	for _, c := range cases {
		got := fromBytesUint(toBytesUint(c.v, c.n), c.n)
		if got != c.v {
			t.Errorf("round trip through width %d: got %#x, want %#x", c.n, got, c.v)
		}
	}
}

func TestToBytesUintTruncatesToWidth(t *testing.T) {
	b := toBytesUint(0x1122334455667788, 2)
	if len(b) != 2 {
		t.Fatalf("len(toBytesUint(_, 2)) = %d, want 2", len(b))
	}
	if b[0] != 0x88 || b[1] != 0x77 {
		t.Errorf("toBytesUint truncated incorrectly: got %v", b)
	}
}

func TestFromBytesUintPanicsOnUnsupportedWidth(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for an unsupported width")
		}
	}()
	fromBytesUint([]byte{1, 2, 3}, 3)
}
