package testfile

import (
	"encoding/binary"
	"math"
	"os"
	"testing"
)

var be = binary.BigEndian

// ClassicAttr is an attribute of a classic netCDF header. Data holds N
// big-endian values of Type, unpadded.
type ClassicAttr struct {
	Name string
	Type int32
	N    int
	Data []byte
}

// CharAttr is a text attribute.
func CharAttr(name, s string) ClassicAttr {
	return ClassicAttr{Name: name, Type: 2, N: len(s), Data: []byte(s)}
}

// IntAttr is an int32 attribute.
func IntAttr(name string, v ...int32) ClassicAttr {
	a := ClassicAttr{Name: name, Type: 4, N: len(v)}
	for _, x := range v {
		a.Data = be.AppendUint32(a.Data, uint32(x))
	}
	return a
}

// DoubleAttr is a float64 attribute.
func DoubleAttr(name string, v float64) ClassicAttr {
	return ClassicAttr{Name: name, Type: 6, N: 1, Data: be.AppendUint64(nil, math.Float64bits(v))}
}

// ClassicData is the data of the variable Classic writes: four float32
// temperatures.
var ClassicData = func() []byte {
	var b []byte
	for _, v := range []float32{271.5, 272.25, 273, 274.75} {
		b = be.AppendUint32(b, math.Float32bits(v))
	}
	return b
}()

// Classic writes a classic netCDF file of the given version (1, 2 or 5)
// with a dimension "level" of length 4, the global attributes attrs, and a
// float variable "temperature(level)" with a units attribute. The variable
// data follows the header directly, so any header growth moves it.
// Classic returns the header length.
func Classic(t testing.TB, path string, version byte, attrs ...ClassicAttr) int {
	t.Helper()
	count := func(b []byte, v uint64) []byte {
		if version == 5 {
			return be.AppendUint64(b, v)
		}
		return be.AppendUint32(b, uint32(v))
	}
	pad := func(b []byte, data []byte) []byte {
		b = append(b, data...)
		for n := len(data); n%4 != 0; n++ {
			b = append(b, 0)
		}
		return b
	}
	name := func(b []byte, s string) []byte { return pad(count(b, uint64(len(s))), []byte(s)) }
	attrList := func(b []byte, attrs []ClassicAttr) []byte {
		if len(attrs) == 0 {
			return count(be.AppendUint32(b, 0), 0)
		}
		b = count(be.AppendUint32(b, 0x0C), uint64(len(attrs)))
		for _, a := range attrs {
			b = name(b, a.Name)
			b = be.AppendUint32(b, uint32(a.Type))
			b = count(b, uint64(a.N))
			b = pad(b, a.Data)
		}
		return b
	}

	b := []byte{'C', 'D', 'F', version}
	b = count(b, 0)
	b = count(be.AppendUint32(b, 0x0A), 1)
	b = name(b, "level")
	b = count(b, 4)
	b = attrList(b, attrs)
	b = count(be.AppendUint32(b, 0x0B), 1)
	b = name(b, "temperature")
	b = count(b, 1)
	b = count(b, 0)
	b = attrList(b, []ClassicAttr{CharAttr("units", "K")})
	b = be.AppendUint32(b, 5)
	b = count(b, uint64(len(ClassicData)))

	beginSize := 8
	if version == 1 {
		beginSize = 4
	}
	begin := len(b) + beginSize
	if beginSize == 4 {
		b = be.AppendUint32(b, uint32(begin))
	} else {
		b = be.AppendUint64(b, uint64(begin))
	}
	b = append(b, ClassicData...)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatal(err)
	}
	return begin
}
