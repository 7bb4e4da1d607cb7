// Package superblock locates, parses and updates the HDF5 superblock.
//
// The superblock is found by searching for the 8-byte signature at offsets
// 0, 512, 1024 and 2048. Versions 0 and 1 reference the root group through a
// symbol table entry; versions 2 and 3 store the root object header address
// directly and protect the block with a lookup3 checksum.
//
// Editing an attribute moves the root object header to the end of the file,
// so [Superblock.Commit] rewrites the root address and end-of-file address
// in whichever layout the file already uses:
//
//	sb.RootGroupAddress = newAddr
//	sb.EOFAddress = newEOF
//	if err := sb.Commit(w); err != nil {
//	    ...
//	}
package superblock
