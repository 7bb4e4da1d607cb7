package alloc

import (
	"sync"
)

// Allocator tracks the end of file and the blocks placed after it.
type Allocator struct {
	mu          sync.Mutex
	eof         uint64
	allocations []Allocation
}

// Allocation is one block handed out by the allocator.
type Allocation struct {
	Addr uint64
	Size uint64
	Tag  string
}

// New creates an Allocator whose first block starts at eof.
func New(eof uint64) *Allocator {
	return &Allocator{eof: eof}
}

// Alloc reserves size bytes at the end of file.
func (a *Allocator) Alloc(size uint64, tag string) uint64 {
	return a.AllocAligned(size, 1, tag)
}

// AllocAligned reserves size bytes starting at a multiple of alignment.
func (a *Allocator) AllocAligned(size, alignment uint64, tag string) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if alignment > 1 {
		if rem := a.eof % alignment; rem != 0 {
			a.eof += alignment - rem
		}
	}
	addr := a.eof
	if size == 0 {
		return addr
	}
	a.eof += size
	a.allocations = append(a.allocations, Allocation{Addr: addr, Size: size, Tag: tag})
	return addr
}

// EOF returns the address just past the last allocated block.
func (a *Allocator) EOF() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.eof
}

// Allocations returns a copy of the blocks handed out so far.
func (a *Allocator) Allocations() []Allocation {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Allocation(nil), a.allocations...)
}
