package repl

import (
	"testing"

	"github.com/Nekketsu/Sdb/sdb"
)

func TestParseHexAddrAcceptsWithOrWithoutPrefix(t *testing.T) {
	cases := map[string]sdb.VirtAddr{
		"1000":   0x1000,
		"0x1000": 0x1000,
		"0X1000": 0x1000,
		"deadbeef": 0xdeadbeef,
	}
	for in, want := range cases {
		got, err := parseHexAddr(in)
		if err != nil {
			t.Errorf("parseHexAddr(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("parseHexAddr(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestParseHexAddrRejectsGarbage(t *testing.T) {
	if _, err := parseHexAddr("not-hex"); err == nil {
		t.Error("expected an error for a non-hex address")
	}
}

func TestParseWatchModeKnownValues(t *testing.T) {
	cases := map[string]sdb.WatchMode{
		"write":   sdb.WatchWrite,
		"rw":      sdb.WatchReadWrite,
		"execute": sdb.WatchExecute,
	}
	for in, want := range cases {
		got, err := parseWatchMode(in)
		if err != nil {
			t.Errorf("parseWatchMode(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("parseWatchMode(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseWatchModeRejectsUnknown(t *testing.T) {
	if _, err := parseWatchMode("bogus"); err == nil {
		t.Error("expected an error for an unknown watchpoint mode")
	}
}

func TestParseRegisterValueUInt(t *testing.T) {
	info, err := sdb.RegisterInfoByName("rax")
	if err != nil {
		t.Fatalf("RegisterInfoByName: %v", err)
	}
	value, err := parseRegisterValue(info, "2a")
	if err != nil {
		t.Fatalf("parseRegisterValue: %v", err)
	}
	if value.AsU64() != 0x2a {
		t.Errorf("AsU64() = %#x, want 0x2a", value.AsU64())
	}
}

func TestParseRegisterValueDoubleFloat(t *testing.T) {
	info := sdb.RegisterInfo{Name: "fake", Size: 8, Format: sdb.DoubleFloat}
	value, err := parseRegisterValue(info, "3.5")
	if err != nil {
		t.Fatalf("parseRegisterValue: %v", err)
	}
	if value.AsF64() != 3.5 {
		t.Errorf("AsF64() = %v, want 3.5", value.AsF64())
	}
}

func TestParseRegisterValueRejectsBadHex(t *testing.T) {
	info, err := sdb.RegisterInfoByName("rax")
	if err != nil {
		t.Fatalf("RegisterInfoByName: %v", err)
	}
	if _, err := parseRegisterValue(info, "not-hex"); err == nil {
		t.Error("expected an error for a non-hex integer register value")
	}
}
