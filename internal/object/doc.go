// Package object reads HDF5 object headers and writes them back.
//
// Version 1 headers (older files, including most netCDF-4 files written with
// default library bounds) and version 2 "OHDR" headers are both read into a
// [Header] whose Entries keep every message's raw body next to its decoded
// form. A header is always written in version 2 layout by [Encode]: entries
// that were not touched go out byte for byte, so editing one attribute cannot
// disturb the rest of the object.
//
//	h, err := object.Read(r, addr)
//	entries := h.Entries            // edit a copy
//	data, err := object.Encode(h, entries, cfg)
package object
