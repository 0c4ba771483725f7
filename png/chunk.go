// Package png walks PNG chunk streams, decoding the known ancillary and
// critical chunks into parsed_fields while leaving unrecognized chunk
// names untouched (PNG ancillary chunks are allowed, not an error).
package png

import (
	"fmt"

	rs "github.com/rasterspan/rasterspan"
)

var signature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// Chunk is one length-prefixed, four-character-named PNG chunk.
type Chunk struct {
	Name         string
	RawData      rs.Span
	Crc          uint32
	ParsedFields map[string]rs.FieldValue // nil if Name is not a known chunk
}

// Record is the result of walking a complete PNG byte stream.
type Record struct {
	HeaderSpan rs.Span
	Chunks     []Chunk
	Buffer     []byte
}

// knownSchemas is the PNG chunk schema table: each known chunk name maps
// to an ordered (field-name, field-kind) list. This is the data-driven
// SchemaDispatch mechanism, not per-chunk imperative code.
var knownSchemas = map[string][]rs.FieldSpec{
	"IHDR": {
		{Name: "width", Kind: rs.KindU32},
		{Name: "height", Kind: rs.KindU32},
		{Name: "bit_depth", Kind: rs.KindU8},
		{Name: "color_type", Kind: rs.KindU8},
		{Name: "compression_method", Kind: rs.KindU8},
		{Name: "filter_method", Kind: rs.KindU8},
		{Name: "interlace_method", Kind: rs.KindU8},
	},
	"IDAT": {
		{Name: "buffer", Kind: rs.KindRestSpan},
	},
	"IEND": {},
	"pHYs": {
		{Name: "ppu_x", Kind: rs.KindU32},
		{Name: "ppu_y", Kind: rs.KindU32},
		{Name: "unit", Kind: rs.KindU8},
	},
	"cHRM": {
		{Name: "wpx", Kind: rs.KindU32}, {Name: "wpy", Kind: rs.KindU32},
		{Name: "rx", Kind: rs.KindU32}, {Name: "ry", Kind: rs.KindU32},
		{Name: "gx", Kind: rs.KindU32}, {Name: "gy", Kind: rs.KindU32},
		{Name: "bx", Kind: rs.KindU32}, {Name: "by", Kind: rs.KindU32},
	},
	"iCCP": {
		{Name: "profile_name", Kind: rs.KindNullTerminatedString},
		{Name: "compression_method", Kind: rs.KindU8},
		{Name: "compressed_profile", Kind: rs.KindRestSpan},
	},
	"zTXt": {
		{Name: "keyword", Kind: rs.KindNullTerminatedString},
		{Name: "compression_method", Kind: rs.KindU8},
		{Name: "compressed_text", Kind: rs.KindRestSpan},
	},
	"eXIf": {
		{Name: "buffer", Kind: rs.KindRestSpan},
	},
	"tEXt": {
		{Name: "keyword", Kind: rs.KindNullTerminatedString},
		{Name: "text", Kind: rs.KindRestSpan},
	},
	"tIME": {
		{Name: "year", Kind: rs.KindU16},
		{Name: "month", Kind: rs.KindU8},
		{Name: "day", Kind: rs.KindU8},
		{Name: "hour", Kind: rs.KindU8},
		{Name: "minute", Kind: rs.KindU8},
		{Name: "second", Kind: rs.KindU8},
	},
	"gAMA": {
		{Name: "gamma", Kind: rs.KindU32},
	},
	"sRGB": {
		{Name: "rendering_intent", Kind: rs.KindU8},
	},
	// Supplemented beyond the core schema table: ordinary fixed-layout
	// ancillary chunks the same schema mechanism already covers.
	"tRNS": {
		{Name: "buffer", Kind: rs.KindRestSpan},
	},
	"bKGD": {
		{Name: "buffer", Kind: rs.KindRestSpan},
	},
}

// Parse walks a complete PNG byte stream. bytes must begin with the
// 8-byte PNG signature.
func Parse(buf []byte) (*Record, error) {
	cur := rs.NewByteCursor(buf, false)

	headerSpan, err := cur.GetSpan(len(signature))
	if err != nil {
		return nil, err
	}
	if got := cur.BytesForSpan(headerSpan); !bytesEqual(got, signature) {
		return nil, &rs.BadSignatureError{Format: "PNG"}
	}

	rec := &Record{HeaderSpan: headerSpan, Buffer: buf}

	for !cur.AtEnd() {
		length, err := cur.ReadU32()
		if err != nil {
			return nil, err
		}
		nameSpan, err := cur.GetSpan(4)
		if err != nil {
			return nil, err
		}
		name := cur.StringForSpan(nameSpan)

		rawData, err := cur.GetSpan(int(length))
		if err != nil {
			return nil, err
		}

		var parsed map[string]rs.FieldValue
		if schema, known := knownSchemas[name]; known {
			chunkCur := rs.NewByteCursor(buf, false)
			chunkCur.Seek(rawData.Start)
			parsed, err = rs.Dispatch(chunkCur, rawData.End, schema)
			if err != nil {
				return nil, &rs.SchemaMismatchError{ChunkName: name, Cause: err}
			}
		}

		crc, err := cur.ReadU32()
		if err != nil {
			return nil, err
		}

		rec.Chunks = append(rec.Chunks, Chunk{
			Name:         name,
			RawData:      rawData,
			Crc:          crc,
			ParsedFields: parsed,
		})
	}

	return rec, nil
}

// Rewalk re-parses a chunk's RawData span with its own schema, for
// idempotence checks: it must reproduce the same ParsedFields the
// original walk produced.
func (c Chunk) Rewalk(buf []byte) (map[string]rs.FieldValue, error) {
	schema, known := knownSchemas[c.Name]
	if !known {
		return nil, fmt.Errorf("png: chunk %q has no known schema", c.Name)
	}
	chunkCur := rs.NewByteCursor(buf, false)
	chunkCur.Seek(c.RawData.Start)
	return rs.Dispatch(chunkCur, c.RawData.End, schema)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
