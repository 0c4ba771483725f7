// Package bmp parses BMP containers: the 14-byte file header, a
// size-tagged DIB header variant, an optional BGRA palette, and the
// pixel-data span.
package bmp

import (
	"fmt"

	rs "github.com/rasterspan/rasterspan"
)

// FileHeader is the 14-byte BITMAPFILEHEADER.
type FileHeader struct {
	Signature  rs.Span
	FileSize   uint32
	Reserved   uint32
	DataOffset uint32
	Span       rs.Span
}

// InfoHeader is the 40-byte BITMAPINFOHEADER variant of DibHeader.
type InfoHeader struct {
	Size               uint32
	Width, Height      int32
	Planes, Bpp        uint16
	Compression        uint32
	ImageSize          uint32
	PpmX, PpmY         int32
	ColorsUsed         uint32
	ImportantColors    uint32
	Span               rs.Span
}

// V5Header is the 124-byte BITMAPV5HEADER variant of DibHeader.
type V5Header struct {
	Size               uint32
	Width, Height      int32
	Planes, Bpp        uint16
	Compression        uint32
	ImageSize          uint32
	PpmX, PpmY         int32
	ColorsUsed         uint32
	ImportantColors    uint32

	RedMask, GreenMask, BlueMask, AlphaMask uint32
	ColorSpaceType                         rs.Span
	Endpoints                              [9]uint32
	GammaRed, GammaGreen, GammaBlue        uint32
	Intent                                 uint32
	ProfileDataOffset                      uint32
	ProfileSize                            uint32
	Reserved                               uint32
	Span                                   rs.Span
}

// DibHeaderKind discriminates the DibHeader tagged variant.
type DibHeaderKind int

const (
	DibHeaderInfo DibHeaderKind = iota
	DibHeaderV5
)

// DibHeader is a variant over the two supported DIB header sizes.
type DibHeader struct {
	Kind DibHeaderKind
	Info *InfoHeader
	V5   *V5Header
}

func (d DibHeader) common() (width, height int32, bpp uint16, colorsUsed uint32) {
	if d.Kind == DibHeaderInfo {
		return d.Info.Width, d.Info.Height, d.Info.Bpp, d.Info.ColorsUsed
	}
	return d.V5.Width, d.V5.Height, d.V5.Bpp, d.V5.ColorsUsed
}

// PaletteEntry is one (r,g,b,a) palette color, reordered from the
// on-disk BGRA byte order.
type PaletteEntry struct {
	R, G, B, A byte
}

// Record is the result of parsing a complete BMP byte stream.
type Record struct {
	Header     FileHeader
	Dib        DibHeader
	ColorTable []PaletteEntry
	Pixels     rs.Span
	Buffer     []byte
}

// knownDibSizes is the set of DIB header sizes this reader understands.
// Other sizes (12, 16, 52, 56, 64, 108, and any other advertised length)
// are legitimate BMP variants the core does not model; silently reading
// them as if they were BITMAPINFOHEADER would misinterpret their field
// layout, so they are rejected instead.
var knownDibSizes = map[uint32]bool{40: true, 124: true}

// Parse parses a complete BMP byte stream. bytes must begin with the
// 2-byte "BM" signature.
func Parse(buf []byte) (*Record, error) {
	cur := rs.NewByteCursor(buf, true)

	header, err := readFileHeader(cur)
	if err != nil {
		return nil, err
	}
	sig := cur.BytesForSpan(header.Signature)
	if string(sig) != "BM" {
		return nil, &rs.BadSignatureError{Format: "BMP"}
	}

	dib, err := readDibHeader(cur)
	if err != nil {
		return nil, err
	}

	_, _, bpp, colorsUsed := dib.common()

	var palette []PaletteEntry
	if bpp == 4 || bpp == 8 {
		palette, err = readColorTable(cur, colorsUsed)
		if err != nil {
			return nil, err
		}
	}

	if int(header.DataOffset) > len(buf) {
		return nil, fmt.Errorf("%w: data offset %d exceeds buffer length %d", rs.ErrEndOfInput, header.DataOffset, len(buf))
	}
	cur.Seek(int(header.DataOffset))
	pixels, err := cur.GetSpanTo(len(buf))
	if err != nil {
		return nil, err
	}

	return &Record{
		Header: header, Dib: dib, ColorTable: palette, Pixels: pixels, Buffer: buf,
	}, nil
}

func readFileHeader(cur *rs.ByteCursor) (FileHeader, error) {
	start := cur.Index()
	sig, err := cur.GetSpan(2)
	if err != nil {
		return FileHeader{}, err
	}
	fileSize, err := cur.ReadU32()
	if err != nil {
		return FileHeader{}, err
	}
	reserved, err := cur.ReadU32()
	if err != nil {
		return FileHeader{}, err
	}
	dataOffset, err := cur.ReadU32()
	if err != nil {
		return FileHeader{}, err
	}
	return FileHeader{
		Signature: sig, FileSize: fileSize, Reserved: reserved, DataOffset: dataOffset,
		Span: rs.Span{Start: start, End: cur.Index()},
	}, nil
}

func readDibHeader(cur *rs.ByteCursor) (DibHeader, error) {
	start := cur.Index()
	size, err := cur.ReadU32()
	if err != nil {
		return DibHeader{}, err
	}
	if !knownDibSizes[size] {
		return DibHeader{}, fmt.Errorf("bmp: unsupported DIB header size %d", size)
	}

	width, err := cur.ReadI32()
	if err != nil {
		return DibHeader{}, err
	}
	height, err := cur.ReadI32()
	if err != nil {
		return DibHeader{}, err
	}
	planes, err := cur.ReadU16()
	if err != nil {
		return DibHeader{}, err
	}
	bpp, err := cur.ReadU16()
	if err != nil {
		return DibHeader{}, err
	}
	compression, err := cur.ReadU32()
	if err != nil {
		return DibHeader{}, err
	}
	imageSize, err := cur.ReadU32()
	if err != nil {
		return DibHeader{}, err
	}
	ppmX, err := cur.ReadI32()
	if err != nil {
		return DibHeader{}, err
	}
	ppmY, err := cur.ReadI32()
	if err != nil {
		return DibHeader{}, err
	}
	colorsUsed, err := cur.ReadU32()
	if err != nil {
		return DibHeader{}, err
	}
	importantColors, err := cur.ReadU32()
	if err != nil {
		return DibHeader{}, err
	}

	if size == 40 {
		info := &InfoHeader{
			Size: size, Width: width, Height: height, Planes: planes, Bpp: bpp,
			Compression: compression, ImageSize: imageSize, PpmX: ppmX, PpmY: ppmY,
			ColorsUsed: colorsUsed, ImportantColors: importantColors,
			Span: rs.Span{Start: start, End: cur.Index()},
		}
		return DibHeader{Kind: DibHeaderInfo, Info: info}, nil
	}

	redMask, err := cur.ReadU32()
	if err != nil {
		return DibHeader{}, err
	}
	greenMask, err := cur.ReadU32()
	if err != nil {
		return DibHeader{}, err
	}
	blueMask, err := cur.ReadU32()
	if err != nil {
		return DibHeader{}, err
	}
	alphaMask, err := cur.ReadU32()
	if err != nil {
		return DibHeader{}, err
	}
	colorSpaceType, err := cur.GetSpan(4)
	if err != nil {
		return DibHeader{}, err
	}
	var endpoints [9]uint32
	for i := range endpoints {
		endpoints[i], err = cur.ReadU32()
		if err != nil {
			return DibHeader{}, err
		}
	}
	gammaRed, err := cur.ReadU32()
	if err != nil {
		return DibHeader{}, err
	}
	gammaGreen, err := cur.ReadU32()
	if err != nil {
		return DibHeader{}, err
	}
	gammaBlue, err := cur.ReadU32()
	if err != nil {
		return DibHeader{}, err
	}
	intent, err := cur.ReadU32()
	if err != nil {
		return DibHeader{}, err
	}
	profileDataOffset, err := cur.ReadU32()
	if err != nil {
		return DibHeader{}, err
	}
	profileSize, err := cur.ReadU32()
	if err != nil {
		return DibHeader{}, err
	}
	reserved, err := cur.ReadU32()
	if err != nil {
		return DibHeader{}, err
	}

	v5 := &V5Header{
		Size: size, Width: width, Height: height, Planes: planes, Bpp: bpp,
		Compression: compression, ImageSize: imageSize, PpmX: ppmX, PpmY: ppmY,
		ColorsUsed: colorsUsed, ImportantColors: importantColors,
		RedMask: redMask, GreenMask: greenMask, BlueMask: blueMask, AlphaMask: alphaMask,
		ColorSpaceType: colorSpaceType, Endpoints: endpoints,
		GammaRed: gammaRed, GammaGreen: gammaGreen, GammaBlue: gammaBlue,
		Intent: intent, ProfileDataOffset: profileDataOffset, ProfileSize: profileSize,
		Reserved: reserved, Span: rs.Span{Start: start, End: cur.Index()},
	}
	return DibHeader{Kind: DibHeaderV5, V5: v5}, nil
}

func readColorTable(cur *rs.ByteCursor, colorsUsed uint32) ([]PaletteEntry, error) {
	span, err := cur.GetSpan(int(colorsUsed) * 4)
	if err != nil {
		return nil, err
	}
	raw := cur.BytesForSpan(span)
	entries := make([]PaletteEntry, colorsUsed)
	for i := range entries {
		b, g, r, a := raw[i*4], raw[i*4+1], raw[i*4+2], raw[i*4+3]
		entries[i] = PaletteEntry{R: r, G: g, B: b, A: a}
	}
	return entries, nil
}
