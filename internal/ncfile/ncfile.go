// Package ncfile holds the netCDF conventions ncattr relies on: which file
// names look like netCDF, which root attributes the netCDF library reserves
// for itself, and how container errors are classified.
package ncfile

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/robert-malhotra/ncattr/hdf5"
	"github.com/robert-malhotra/ncattr/internal/cdf"
)

// ErrNotContainer is returned for files that are neither netCDF-4 (HDF5)
// nor classic netCDF.
var ErrNotContainer = errors.New("not a netCDF file")

// DefaultExtensions are the file name suffixes recognised as netCDF.
var DefaultExtensions = []string{".nc", ".netcdf", ".cdf"}

// reserved lists the root attributes the netCDF library maintains and hides
// from its users.
var reserved = []string{
	"_NCProperties",
	"_nc3_strict",
	"_IsNetcdf4",
	"_SuperblockVersion",
	"_Format",
}

// IsReserved reports whether name is a netCDF-internal global attribute.
func IsReserved(name string) bool {
	return slices.Contains(reserved, name)
}

// Reserved returns the reserved attribute names.
func Reserved() []string {
	return slices.Clone(reserved)
}

// HasKnownExtension reports whether path ends in one of exts, ignoring case.
// Extensions may be given with or without the leading dot. An empty exts
// means DefaultExtensions.
func HasKnownExtension(path string, exts []string) bool {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if e == ext {
			return true
		}
	}
	return false
}

// Classify maps container errors to this package's sentinels. The original
// error stays in the chain, so os.ErrPermission and friends still match.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, hdf5.ErrNotHDF5), errors.Is(err, cdf.ErrNotClassic):
		return fmt.Errorf("%w: %w", ErrNotContainer, err)
	default:
		return err
	}
}
