// Package gif parses GIF containers: header, Logical Screen Descriptor,
// optional Global Color Table, and a sequence of {extensions*, image
// descriptor, optional Local Color Table, LZW sub-block stream}.
package gif

import (
	"fmt"

	rs "github.com/rasterspan/rasterspan"
)

const (
	trailerByte        = 0x3B
	extensionIntroByte = 0x21
	imageSeparatorByte = 0x2C

	extPlainText      = 0x01
	extGraphicsCtrl   = 0xF9
	extComment        = 0xFE
	extApplication    = 0xFF
)

// ColorTable is a palette of RGB triples, either global or local.
type ColorTable struct {
	Colors [][3]byte
	Span   rs.Span
}

// LogicalScreenDescriptor is the 7-byte record following the GIF header.
type LogicalScreenDescriptor struct {
	Width, Height    uint16
	Packed           byte
	BackgroundColor  byte
	PixelAspectRatio byte
	Span             rs.Span

	HasGCT           bool
	Sorted           bool
	GCTSize          byte // 3-bit field
	ColorResolution  byte // 3-bit field
}

// ImageDescriptor is the 10-byte record, 0x2C separator included, that
// begins each image.
type ImageDescriptor struct {
	Left, Top, Width, Height uint16
	Packed                   byte
	Span                     rs.Span

	HasLCT      bool
	Interlaced  bool
	Sorted      bool
	LCTSize     byte
}

// ExtensionKind discriminates the Extension tagged variant.
type ExtensionKind int

const (
	ExtensionGraphicsControl ExtensionKind = iota
	ExtensionApplication
	ExtensionComment
	ExtensionPlainText
)

// Extension is a tagged variant over the four known GIF extension kinds.
type Extension struct {
	Kind ExtensionKind
	Span rs.Span

	// Kind == ExtensionGraphicsControl
	GraphicsControl *GraphicsControlExtension
	// Kind == ExtensionApplication
	Application *ApplicationExtension
	// Kind == ExtensionComment
	Comment *CommentExtension
	// Kind == ExtensionPlainText
	PlainText *PlainTextExtension
}

// GraphicsControlExtension is the 0xF9 extension payload.
type GraphicsControlExtension struct {
	BlockSize             byte
	Packed                byte
	DelayTime             uint16
	TransparentColorIndex byte
	BlockTerminator       byte

	Reserved            byte
	Disposal            byte
	WaitForInput        bool
	HasTransparentColor bool
}

// ApplicationExtension is the 0xFF extension payload. For the
// "NETSCAPE2.0" application block the loop count is additionally
// exposed as derived fields.
type ApplicationExtension struct {
	BlockLength   byte
	Identifier    rs.Span
	SubIndex      byte
	NumExecutions uint16
	Terminator    uint16

	IsNetscapeLoop bool
	LoopCount      uint16
}

// CommentExtension is the 0xFE extension payload: the raw sub-block bytes.
type CommentExtension struct {
	Text []byte
}

// PlainTextExtension is the 0x01 extension payload.
type PlainTextExtension struct {
	NumBytesToSkip byte
	Skipped        rs.Span
	Text           []byte
}

// Image is one GIF frame: its descriptor, optional local palette, the
// extensions that preceded it, and its LZW-compressed data.
type Image struct {
	Descriptor       ImageDescriptor
	LocalColorTable  *ColorTable
	Extensions       []Extension
	MinCodeSize      byte
	Data             []byte
	Span             rs.Span
}

// Record is the result of parsing a complete GIF byte stream.
type Record struct {
	Header           rs.Span
	LSD              LogicalScreenDescriptor
	GlobalColorTable *ColorTable
	Images           []Image
	Buffer           []byte
}

// Parse parses a complete GIF byte stream. bytes must begin with
// "GIF87a" or "GIF89a".
func Parse(buf []byte) (*Record, error) {
	cur := rs.NewByteCursor(buf, true)

	headerSpan, err := cur.GetSpan(6)
	if err != nil {
		return nil, &rs.BadSignatureError{Format: "GIF"}
	}
	header := cur.BytesForSpan(headerSpan)
	if string(header[:3]) != "GIF" || (string(header[3:]) != "87a" && string(header[3:]) != "89a") {
		return nil, &rs.BadSignatureError{Format: "GIF"}
	}

	lsd, err := readLSD(cur)
	if err != nil {
		return nil, err
	}

	rec := &Record{Header: headerSpan, LSD: lsd, Buffer: buf}

	if lsd.HasGCT {
		gct, err := readColorTable(cur, lsd.GCTSize)
		if err != nil {
			return nil, err
		}
		rec.GlobalColorTable = &gct
	}

	for {
		b, ok := cur.Peek()
		if !ok {
			return nil, fmt.Errorf("%w: expected GIF trailer", rs.ErrEndOfInput)
		}
		if b == trailerByte {
			break
		}

		var extensions []Extension
		for {
			b, ok := cur.Peek()
			if !ok || b != extensionIntroByte {
				break
			}
			ext, err := readExtension(cur)
			if err != nil {
				return nil, err
			}
			extensions = append(extensions, ext)
		}

		img, err := readImage(cur, extensions)
		if err != nil {
			return nil, err
		}
		rec.Images = append(rec.Images, img)
	}

	if err := cur.ExpectByte(trailerByte); err != nil {
		return nil, err
	}
	if !cur.AtEnd() {
		return nil, rs.ErrTrailingBytes
	}

	return rec, nil
}

func readLSD(cur *rs.ByteCursor) (LogicalScreenDescriptor, error) {
	start := cur.Index()
	width, err := cur.ReadU16()
	if err != nil {
		return LogicalScreenDescriptor{}, err
	}
	height, err := cur.ReadU16()
	if err != nil {
		return LogicalScreenDescriptor{}, err
	}
	packed, err := cur.Next()
	if err != nil {
		return LogicalScreenDescriptor{}, err
	}
	bgColor, err := cur.Next()
	if err != nil {
		return LogicalScreenDescriptor{}, err
	}
	par, err := cur.Next()
	if err != nil {
		return LogicalScreenDescriptor{}, err
	}
	end := cur.Index()

	return LogicalScreenDescriptor{
		Width: width, Height: height, Packed: packed,
		BackgroundColor: bgColor, PixelAspectRatio: par,
		Span:            rs.Span{Start: start, End: end},
		HasGCT:          packed&0x80 != 0,
		Sorted:          packed&0x08 != 0,
		GCTSize:         (packed >> 0) & 0x07,
		ColorResolution: (packed >> 4) & 0x07,
	}, nil
}

func readColorTable(cur *rs.ByteCursor, sizeField byte) (ColorTable, error) {
	entries := 1 << (uint(sizeField) + 1)
	span, err := cur.GetSpan(entries * 3)
	if err != nil {
		return ColorTable{}, err
	}
	raw := cur.BytesForSpan(span)
	colors := make([][3]byte, entries)
	for i := 0; i < entries; i++ {
		colors[i] = [3]byte{raw[i*3], raw[i*3+1], raw[i*3+2]}
	}
	return ColorTable{Colors: colors, Span: span}, nil
}

func readExtension(cur *rs.ByteCursor) (Extension, error) {
	start := cur.Index()
	if err := cur.ExpectByte(extensionIntroByte); err != nil {
		return Extension{}, err
	}
	label, err := cur.Next()
	if err != nil {
		return Extension{}, err
	}

	switch label {
	case extGraphicsCtrl:
		blockSize, err := cur.Next()
		if err != nil {
			return Extension{}, err
		}
		packed, err := cur.Next()
		if err != nil {
			return Extension{}, err
		}
		delay, err := cur.ReadU16()
		if err != nil {
			return Extension{}, err
		}
		transparentIdx, err := cur.Next()
		if err != nil {
			return Extension{}, err
		}
		term, err := cur.Next()
		if err != nil {
			return Extension{}, err
		}
		gce := &GraphicsControlExtension{
			BlockSize: blockSize, Packed: packed, DelayTime: delay,
			TransparentColorIndex: transparentIdx, BlockTerminator: term,
			Reserved: (packed >> 5) & 0x07, Disposal: (packed >> 2) & 0x07,
			WaitForInput: packed&0x02 != 0, HasTransparentColor: packed&0x01 != 0,
		}
		return Extension{Kind: ExtensionGraphicsControl, Span: rs.Span{Start: start, End: cur.Index()}, GraphicsControl: gce}, nil

	case extApplication:
		blockLen, err := cur.Next()
		if err != nil {
			return Extension{}, err
		}
		idSpan, err := cur.GetSpan(int(blockLen))
		if err != nil {
			return Extension{}, err
		}
		subIndex, err := cur.Next()
		if err != nil {
			return Extension{}, err
		}
		numExec, err := cur.ReadU16()
		if err != nil {
			return Extension{}, err
		}
		terminator, err := cur.ReadU16()
		if err != nil {
			return Extension{}, err
		}
		id := cur.StringForSpan(idSpan)
		app := &ApplicationExtension{
			BlockLength: blockLen, Identifier: idSpan, SubIndex: subIndex,
			NumExecutions: numExec, Terminator: terminator,
			IsNetscapeLoop: id == "NETSCAPE2.0",
			LoopCount:      numExec,
		}
		return Extension{Kind: ExtensionApplication, Span: rs.Span{Start: start, End: cur.Index()}, Application: app}, nil

	case extComment:
		text, err := readSubBlocks(cur)
		if err != nil {
			return Extension{}, err
		}
		return Extension{Kind: ExtensionComment, Span: rs.Span{Start: start, End: cur.Index()}, Comment: &CommentExtension{Text: text}}, nil

	case extPlainText:
		numSkip, err := cur.Next()
		if err != nil {
			return Extension{}, err
		}
		skipSpan, err := cur.GetSpan(int(numSkip))
		if err != nil {
			return Extension{}, err
		}
		text, err := readSubBlocks(cur)
		if err != nil {
			return Extension{}, err
		}
		pte := &PlainTextExtension{NumBytesToSkip: numSkip, Skipped: skipSpan, Text: text}
		return Extension{Kind: ExtensionPlainText, Span: rs.Span{Start: start, End: cur.Index()}, PlainText: pte}, nil

	default:
		return Extension{}, &rs.UnexpectedExtensionError{Label: label}
	}
}

func readImage(cur *rs.ByteCursor, extensions []Extension) (Image, error) {
	start := cur.Index()

	if err := cur.ExpectByte(imageSeparatorByte); err != nil {
		return Image{}, err
	}
	left, err := cur.ReadU16()
	if err != nil {
		return Image{}, err
	}
	top, err := cur.ReadU16()
	if err != nil {
		return Image{}, err
	}
	width, err := cur.ReadU16()
	if err != nil {
		return Image{}, err
	}
	height, err := cur.ReadU16()
	if err != nil {
		return Image{}, err
	}
	packed, err := cur.Next()
	if err != nil {
		return Image{}, err
	}

	descSpan := rs.Span{Start: start, End: cur.Index()}
	desc := ImageDescriptor{
		Left: left, Top: top, Width: width, Height: height, Packed: packed,
		Span:       descSpan,
		HasLCT:     packed&0x80 != 0,
		Interlaced: packed&0x40 != 0,
		Sorted:     packed&0x20 != 0,
		LCTSize:    packed & 0x07,
	}

	var lct *ColorTable
	if desc.HasLCT {
		ct, err := readColorTable(cur, desc.LCTSize)
		if err != nil {
			return Image{}, err
		}
		lct = &ct
	}

	minCodeSize, err := cur.Next()
	if err != nil {
		return Image{}, err
	}
	data, err := readSubBlocks(cur)
	if err != nil {
		return Image{}, err
	}

	return Image{
		Descriptor: desc, LocalColorTable: lct, Extensions: extensions,
		MinCodeSize: minCodeSize, Data: data,
		Span: rs.Span{Start: start, End: cur.Index()},
	}, nil
}

// readSubBlocks implements the "length-prefixed block until length=0"
// loop shared by GIF image data, Comment, and PlainText.
func readSubBlocks(cur *rs.ByteCursor) ([]byte, error) {
	var out []byte
	for {
		length, err := cur.Next()
		if err != nil {
			return nil, err
		}
		if length == 0 {
			return out, nil
		}
		span, err := cur.GetSpan(int(length))
		if err != nil {
			return nil, err
		}
		out = append(out, cur.BytesForSpan(span)...)
	}
}

// Decodable reports whether img's indices can be decoded: some
// palette, local or global, must be reachable. Gating decodability on
// global-table presence alone conflates "has a palette" with "has a
// global palette", which is wrong whenever a local table is present.
func (r *Record) Decodable(img Image) bool {
	return img.LocalColorTable != nil || r.GlobalColorTable != nil
}

// DecodeImage decodes img's LZW data into its index stream.
func (r *Record) DecodeImage(img Image) ([]int, error) {
	if !r.Decodable(img) {
		return nil, fmt.Errorf("gif: image has no reachable color table")
	}
	return DecodeLZW(img.MinCodeSize, img.Data)
}
