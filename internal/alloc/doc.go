// Package alloc hands out file space for new metadata blocks.
//
// Allocation is append-only: every block is placed at the current end of
// file. A rewritten object header therefore never overlaps the block it
// replaces, and the old header stays intact until the superblock points
// away from it.
package alloc
