package conformance

import (
	"bytes"
	"testing"

	ximagetiff "golang.org/x/image/tiff"

	"github.com/rasterspan/rasterspan/exif"
)

type tiffEntry struct {
	tag, typ uint16
	count    uint32
	value    uint32
}

// buildMinimalTIFF builds a valid, uncompressed 8-bit grayscale,
// single-strip little-endian TIFF of the given dimensions.
func buildMinimalTIFF(width, height uint32) []byte {
	const (
		typeShort = 3
		typeLong  = 4
	)

	ifdOffset := uint32(8)
	entries := []tiffEntry{
		{256, typeLong, 1, width},
		{257, typeLong, 1, height},
		{258, typeShort, 1, 8},
		{259, typeShort, 1, 1},
		{262, typeShort, 1, 1},
		{273, typeLong, 1, 0}, // patched below
		{277, typeShort, 1, 1},
		{278, typeLong, 1, height},
		{279, typeLong, 1, width * height},
	}

	ifdSize := 2 + len(entries)*12 + 4
	stripOffset := ifdOffset + uint32(ifdSize)
	for i := range entries {
		if entries[i].tag == 273 {
			entries[i].value = stripOffset
		}
	}

	var buf []byte
	buf = append(buf, 'I', 'I')
	buf = append(buf, u16le(42)...)
	buf = append(buf, u32le(ifdOffset)...)

	buf = append(buf, u16le(uint16(len(entries)))...)
	for _, e := range entries {
		buf = append(buf, u16le(e.tag)...)
		buf = append(buf, u16le(e.typ)...)
		buf = append(buf, u32le(e.count)...)
		buf = append(buf, u32le(e.value)...)
	}
	buf = append(buf, u32le(0)...) // next IFD offset

	pixels := make([]byte, width*height)
	for i := range pixels {
		pixels[i] = byte(i)
	}
	buf = append(buf, pixels...)
	return buf
}

func TestTIFFGeometryMatchesXImage(t *testing.T) {
	buf := buildMinimalTIFF(5, 3)

	ours, err := exif.Parse(buf)
	if err != nil {
		t.Fatalf("exif.Parse() error = %v", err)
	}
	theirs, err := ximagetiff.DecodeConfig(bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("x/image/tiff.DecodeConfig() error = %v", err)
	}

	width, height := fieldU32(ours, 256), fieldU32(ours, 257)
	if width != uint32(theirs.Width) {
		t.Fatalf("width = %d; x/image reports %d", width, theirs.Width)
	}
	if height != uint32(theirs.Height) {
		t.Fatalf("height = %d; x/image reports %d", height, theirs.Height)
	}
}

func fieldU32(rec *exif.Record, tag uint16) uint32 {
	for _, f := range rec.Fields {
		if f.Tag == tag {
			if len(f.Value.Longs) == 1 {
				return f.Value.Longs[0]
			}
		}
	}
	return 0
}
