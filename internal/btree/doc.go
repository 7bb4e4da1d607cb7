// Package btree reads version 2 B-trees ("BTHD").
//
// HDF5 indexes dense attribute storage with a v2 B-tree whose records name
// objects in the group's fractal heap. Only the name index (record type 8)
// is needed to enumerate the attributes: each record carries the heap ID of
// one attribute message and its creation order.
//
//	recs, err := btree.ReadAttributeNameIndex(r, info.NameIndexBTreeAddr)
//	for _, rec := range recs {
//		data, err := fh.Object(rec.HeapID)
//		...
//	}
package btree
