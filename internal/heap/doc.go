// Package heap reads and writes HDF5 global heap collections ("GCOL") and
// reads fractal heaps ("FRHP").
//
// Variable-length string attributes store a small descriptor in the
// attribute message: the string's byte length and a [GlobalHeapID] naming
// a collection address and an object index. The bytes themselves live in
// the collection.
//
// A group with many attributes keeps them in a [FractalHeap] instead of its
// object header. Objects there are named by heap IDs that encode their
// offset and length in the heap's address space.
package heap
