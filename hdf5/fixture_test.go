package hdf5

import (
	"testing"

	"github.com/robert-malhotra/ncattr/internal/testfile"
)

// sondeFile writes the legacy fixture most tests share.
func sondeFile(t *testing.T, path string) {
	t.Helper()
	testfile.Legacy(t, path,
		testfile.SymbolTable(),
		testfile.V1Attribute("title", testfile.FixedString(9), testfile.ScalarV1, []byte("Dropsonde")),
		testfile.V1Attribute("count", testfile.Int32LE, testfile.ScalarV1, testfile.LE32(-7)),
		testfile.V1Attribute("scale", testfile.Float32LE, testfile.ScalarV1, []byte{0, 0, 0, 0x3f}),
		testfile.V1Attribute("range", testfile.Int32LE, testfile.PairV1, append(testfile.LE32(1), testfile.LE32(2)...)),
	)
}

// denseNames are the root attributes of denseFile, in creation order.
var denseNames = []string{
	"title", "institution", "source", "history", "references",
	"comment", "Conventions", "count", "scale", "range",
}

// denseFile writes a legacy file with ten root attributes in dense
// storage, past the eight the HDF5 library keeps in the header.
func denseFile(t *testing.T, path string) {
	t.Helper()
	str := func(name, v string) testfile.Message {
		return testfile.V1Attribute(name, testfile.FixedString(len(v)), testfile.ScalarV1, []byte(v))
	}
	testfile.Dense(t, path,
		str("title", "Dropsonde"),
		str("institution", "NCAR"),
		str("source", "AVAPS"),
		str("history", "created"),
		str("references", "none"),
		str("comment", "test"),
		str("Conventions", "CF-1.8"),
		testfile.V1Attribute("count", testfile.Int32LE, testfile.ScalarV1, testfile.LE32(-7)),
		testfile.V1Attribute("scale", testfile.Float32LE, testfile.ScalarV1, []byte{0, 0, 0, 0x3f}),
		testfile.V1Attribute("range", testfile.Int32LE, testfile.PairV1, append(testfile.LE32(1), testfile.LE32(2)...)),
	)
}
