package disasm

import "testing"

func TestDecodeSingleInstruction(t *testing.T) {
	// mov eax, 0x2a
	code := []byte{0xb8, 0x2a, 0x00, 0x00, 0x00}
	inst, err := Decode(code, 0x1000)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if inst.Length != 5 {
		t.Errorf("Length = %d, want 5", inst.Length)
	}
	if inst.Address != 0x1000 {
		t.Errorf("Address = %#x, want %#x", inst.Address, 0x1000)
	}
	if len(inst.Bytes) != 5 {
		t.Errorf("len(Bytes) = %d, want 5", len(inst.Bytes))
	}
	if inst.Text == "" {
		t.Error("Text is empty")
	}
}

func TestDecodeRelativeCallResolvesToAbsoluteAddress(t *testing.T) {
	// call rel32 = -5 (calls back to its own start)
	code := []byte{0xe8, 0xfb, 0xff, 0xff, 0xff}
	inst, err := Decode(code, 0x2000)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if inst.Length != 5 {
		t.Fatalf("Length = %d, want 5", inst.Length)
	}
	// The call targets pc itself: 0x2000 + (-5) + 5 = 0x2000.
	want := "0x2000"
	if !contains(inst.Text, want) {
		t.Errorf("Text = %q, want it to contain the resolved address %s", inst.Text, want)
	}
}

func TestDecodeInvalidBytesReturnsError(t *testing.T) {
	// 0x06 (push es) has no encoding in 64-bit mode.
	code := []byte{0x06, 0x90, 0x90, 0x90}
	if _, err := Decode(code, 0x3000); err == nil {
		t.Fatal("expected an error decoding an invalid opcode")
	}
}

func TestDecodeRangeStopsWhenCodeRunsOut(t *testing.T) {
	// Two nops and nothing after them: decoding stops at the end of code.
	code := []byte{0x90, 0x90}
	insts, err := DecodeRange(code, 0x4000, 5)
	if err != nil {
		t.Fatalf("DecodeRange: %v", err)
	}
	if len(insts) != 2 {
		t.Fatalf("len(insts) = %d, want 2", len(insts))
	}
	if insts[0].Address != 0x4000 || insts[1].Address != 0x4001 {
		t.Errorf("addresses = %#x, %#x, want 0x4000, 0x4001", insts[0].Address, insts[1].Address)
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
