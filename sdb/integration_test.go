//go:build linux && amd64

package sdb_test

import (
	"debug/elf"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/Nekketsu/Sdb/sdb"
)

// buildCFixture compiles testdata/<name>/<name>.c into a non-PIE ELF binary
// under the test's temp directory. The fixtures mark addresses of interest
// with a global symbol (an assembler label or a C global variable) that
// symbolAddress finds in the ELF symbol table, rather than relying on any runtime
// synchronization, so their addresses are known before the inferior ever
// runs.
func buildCFixture(t *testing.T, name string) string {
	t.Helper()
	if _, err := exec.LookPath("cc"); err != nil {
		t.Skip("no C compiler available")
	}

	src, err := filepath.Abs(filepath.Join("..", "testdata", name, name+".c"))
	if err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), name)

	cmd := exec.Command("cc", "-O0", "-no-pie", "-o", out, src)
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("could not build fixture %s: %v\n%s", name, err, output)
	}
	return out
}

func symbolAddress(t *testing.T, path, name string) sdb.VirtAddr {
	t.Helper()
	f, err := elf.Open(path)
	if err != nil {
		t.Fatalf("could not open %s: %v", path, err)
	}
	defer f.Close()

	syms, err := f.Symbols()
	if err != nil {
		t.Fatalf("could not read symbols from %s: %v", path, err)
	}
	for _, s := range syms {
		if s.Name == name {
			return sdb.VirtAddr(s.Value)
		}
	}
	t.Fatalf("symbol %q not found in %s", name, path)
	return 0
}

// Scenario 1: launch a program that writes a known value to a known
// address and exits. Set a software breakpoint at the store instruction,
// continue, observe a trap at that exact pc, disable, continue to exit.
func TestSoftwareBreakpointStopsAtStoreInstruction(t *testing.T) {
	path := buildCFixture(t, "write_value")
	storeAddr := symbolAddress(t, path, "store_site")

	proc, err := sdb.Launch(path, true, nil)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	defer proc.Close()

	site, err := proc.CreateBreakpointSite(storeAddr, false, false)
	if err != nil {
		t.Fatalf("CreateBreakpointSite: %v", err)
	}
	if err := site.Enable(); err != nil {
		t.Fatalf("Enable: %v", err)
	}

	if err := proc.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	reason, err := proc.WaitOnSignal()
	if err != nil {
		t.Fatalf("WaitOnSignal: %v", err)
	}
	if reason.State != sdb.Stopped {
		t.Fatalf("state = %v, want Stopped", reason.State)
	}
	if reason.Info != sigtrap {
		t.Errorf("stop signal = %d, want SIGTRAP (%d)", reason.Info, sigtrap)
	}

	pc, err := proc.GetPC()
	if err != nil {
		t.Fatalf("GetPC: %v", err)
	}
	if pc != storeAddr {
		t.Errorf("pc = %s, want %s", pc, storeAddr)
	}

	if err := site.Disable(); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if err := proc.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	reason, err = proc.WaitOnSignal()
	if err != nil {
		t.Fatalf("WaitOnSignal: %v", err)
	}
	if reason.State != sdb.Exited {
		t.Fatalf("state = %v, want Exited", reason.State)
	}
	if reason.Info != 0 {
		t.Errorf("exit status = %d, want 0", reason.Info)
	}
}

// Scenario 4: a hardware breakpoint at the inferior's entry point traps
// before the first instruction executes (no pc rewind needed, unlike a
// software int3), and a single step afterward advances pc.
func TestHardwareBreakpointAtEntryPoint(t *testing.T) {
	path := buildCFixture(t, "write_value")

	proc, err := sdb.Launch(path, true, nil)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	defer proc.Close()

	entry, err := proc.GetPC()
	if err != nil {
		t.Fatalf("GetPC: %v", err)
	}

	site, err := proc.CreateBreakpointSite(entry, true, false)
	if err != nil {
		t.Fatalf("CreateBreakpointSite: %v", err)
	}
	if err := site.Enable(); err != nil {
		t.Fatalf("Enable: %v", err)
	}

	if err := proc.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	reason, err := proc.WaitOnSignal()
	if err != nil {
		t.Fatalf("WaitOnSignal: %v", err)
	}
	if reason.State != sdb.Stopped {
		t.Fatalf("state = %v, want Stopped", reason.State)
	}

	pc, err := proc.GetPC()
	if err != nil {
		t.Fatalf("GetPC: %v", err)
	}
	if pc != entry {
		t.Errorf("pc = %s, want entry point %s", pc, entry)
	}

	if err := site.Disable(); err != nil {
		t.Fatalf("Disable: %v", err)
	}

	if _, err := proc.StepInstruction(); err != nil {
		t.Fatalf("StepInstruction: %v", err)
	}
	after, err := proc.GetPC()
	if err != nil {
		t.Fatalf("GetPC: %v", err)
	}
	if after == entry {
		t.Error("pc did not advance after single step")
	}
}

// Scenario 3: a write watchpoint on a global traps on its first write.
func TestWatchpointStopsOnFirstWrite(t *testing.T) {
	path := buildCFixture(t, "watchpoint_write")
	counterAddr := symbolAddress(t, path, "counter")

	proc, err := sdb.Launch(path, true, nil)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	defer proc.Close()

	wp, err := proc.CreateWatchpoint(counterAddr, sdb.WatchWrite, 8)
	if err != nil {
		t.Fatalf("CreateWatchpoint: %v", err)
	}
	if err := wp.Enable(); err != nil {
		t.Fatalf("Enable: %v", err)
	}

	if err := proc.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	reason, err := proc.WaitOnSignal()
	if err != nil {
		t.Fatalf("WaitOnSignal: %v", err)
	}
	if reason.State != sdb.Stopped {
		t.Fatalf("state = %v, want Stopped", reason.State)
	}
	if reason.Info != sigtrap {
		t.Errorf("stop signal = %d, want SIGTRAP (%d)", reason.Info, sigtrap)
	}
}

// Scenario 5: only four hardware stoppoints may be active simultaneously.
func TestFifthHardwareStoppointExhaustsCapacity(t *testing.T) {
	path := buildCFixture(t, "write_value")

	proc, err := sdb.Launch(path, true, nil)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	defer proc.Close()

	entry, err := proc.GetPC()
	if err != nil {
		t.Fatalf("GetPC: %v", err)
	}

	var sites []*sdb.BreakpointSite
	for i := 0; i < 4; i++ {
		site, err := proc.CreateBreakpointSite(entry.Add(int64(i*16)), true, false)
		if err != nil {
			t.Fatalf("CreateBreakpointSite #%d: %v", i, err)
		}
		if err := site.Enable(); err != nil {
			t.Fatalf("Enable #%d: %v", i, err)
		}
		sites = append(sites, site)
	}

	fifth, err := proc.CreateBreakpointSite(entry.Add(64), true, false)
	if err != nil {
		t.Fatalf("CreateBreakpointSite #5: %v", err)
	}
	if err := fifth.Enable(); err == nil {
		t.Fatal("expected the fifth hardware stoppoint to fail with resource_exhausted")
	} else if sdbErr, ok := err.(*sdb.Error); !ok || sdbErr.Kind != sdb.KindResourceExhausted {
		t.Errorf("error = %v, want a resource_exhausted *sdb.Error", err)
	}

	for i, site := range sites {
		if !site.Enabled() {
			t.Errorf("site #%d was disabled by the failed fifth allocation", i)
		}
	}
}

const sigtrap = 5 // SIGTRAP
