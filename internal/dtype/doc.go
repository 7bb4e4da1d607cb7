// Package dtype converts between attribute value bytes and Go values.
//
// Four datatype classes are understood, which covers every scalar type a
// netCDF-4 global attribute can have:
//
//	HDF5 class          Go value
//	fixed-point         uint64 bit pattern (sign-extended when signed)
//	floating-point      float64
//	fixed string        string (padding removed)
//	variable string     string (read through the global heap)
//
// Anything else is left to the caller as raw bytes.
package dtype
