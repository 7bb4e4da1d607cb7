// Package cdf reads and rewrites the header of classic netCDF files: the
// CDF-1 (classic), CDF-2 (64-bit offset) and CDF-5 (64-bit data) formats.
//
// A classic file is a big-endian header followed by variable data. Global
// attributes live in the header, so editing one means re-encoding the
// header. When the new header fits in front of the first variable it is
// written in place; otherwise the file is copied to a temporary file with
// the data moved back, and renamed over the original.
//
//	f, err := cdf.OpenReadWrite("obs.nc")
//	if err != nil {
//		return err
//	}
//	defer f.Close()
//	err = f.SetAttr("title", "Dropsonde")
package cdf
