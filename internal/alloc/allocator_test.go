package alloc

import "testing"

func TestAllocAppends(t *testing.T) {
	a := New(100)
	if got := a.Alloc(10, "first"); got != 100 {
		t.Errorf("first Alloc = %d, want 100", got)
	}
	if got := a.Alloc(20, "second"); got != 110 {
		t.Errorf("second Alloc = %d, want 110", got)
	}
	if a.EOF() != 130 {
		t.Errorf("EOF = %d, want 130", a.EOF())
	}
}

func TestAllocAligned(t *testing.T) {
	a := New(13)
	if got := a.AllocAligned(8, 8, "header"); got != 16 {
		t.Errorf("AllocAligned = %d, want 16", got)
	}
	if got := a.AllocAligned(4, 8, "aligned already"); got != 24 {
		t.Errorf("AllocAligned = %d, want 24", got)
	}
	if a.EOF() != 28 {
		t.Errorf("EOF = %d, want 28", a.EOF())
	}
}

func TestAllocZeroSize(t *testing.T) {
	a := New(64)
	if got := a.Alloc(0, "nothing"); got != 64 {
		t.Errorf("Alloc(0) = %d, want 64", got)
	}
	if len(a.Allocations()) != 0 {
		t.Error("zero-size allocation should not be recorded")
	}
}

func TestAllocations(t *testing.T) {
	a := New(0)
	a.Alloc(16, "root header")
	a.Alloc(4096, "global heap")

	got := a.Allocations()
	if len(got) != 2 {
		t.Fatalf("got %d allocations, want 2", len(got))
	}
	if got[1].Tag != "global heap" || got[1].Addr != 16 || got[1].Size != 4096 {
		t.Errorf("second allocation = %+v", got[1])
	}
	got[0].Tag = "changed"
	if a.Allocations()[0].Tag != "root header" {
		t.Error("Allocations should return a copy")
	}
}
