package sdb

import "testing"

type fakeStoppoint struct {
	id      int
	addr    VirtAddr
	length  int
	enabled bool
}

func (f *fakeStoppoint) ID() int           { return f.id }
func (f *fakeStoppoint) Address() VirtAddr { return f.addr }
func (f *fakeStoppoint) Length() int       { return f.length }
func (f *fakeStoppoint) Enabled() bool     { return f.enabled }
func (f *fakeStoppoint) Disable() error {
	f.enabled = false
	return nil
}

func TestStoppointCollectionPushRejectsOverlap(t *testing.T) {
	var c StoppointCollection[*fakeStoppoint]

	if _, err := c.Push(&fakeStoppoint{id: 1, addr: 0x1000, length: 4}); err != nil {
		t.Fatalf("first push: %v", err)
	}
	if _, err := c.Push(&fakeStoppoint{id: 2, addr: 0x1002, length: 4}); err == nil {
		t.Fatal("expected an overlap at 0x1002 to be rejected")
	}
	if _, err := c.Push(&fakeStoppoint{id: 3, addr: 0x1004, length: 4}); err != nil {
		t.Fatalf("adjacent, non-overlapping push: %v", err)
	}
}

func TestStoppointCollectionGetAndRemove(t *testing.T) {
	var c StoppointCollection[*fakeStoppoint]
	sp := &fakeStoppoint{id: 7, addr: 0x2000, length: 1, enabled: true}
	if _, err := c.Push(sp); err != nil {
		t.Fatal(err)
	}

	if !c.ContainsID(7) {
		t.Error("ContainsID(7) = false, want true")
	}
	if !c.ContainsAddress(0x2000) {
		t.Error("ContainsAddress(0x2000) = false, want true")
	}
	if got, ok := c.GetByID(7); !ok || got != sp {
		t.Errorf("GetByID(7) = %v, %v", got, ok)
	}

	if err := c.RemoveByID(7); err != nil {
		t.Fatalf("RemoveByID: %v", err)
	}
	if sp.enabled {
		t.Error("RemoveByID did not disable the removed member")
	}
	if c.ContainsID(7) {
		t.Error("member still present after RemoveByID")
	}
	if c.Size() != 0 || !c.Empty() {
		t.Errorf("collection not empty after removing its only member")
	}
}

func TestStoppointCollectionRemoveByIDIsNoOpWhenAbsent(t *testing.T) {
	var c StoppointCollection[*fakeStoppoint]
	if err := c.RemoveByID(99); err != nil {
		t.Errorf("RemoveByID on an absent id returned %v, want nil", err)
	}
}
