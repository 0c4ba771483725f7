// Package icc decodes ICC color profile headers and tag tables. Input
// is an already-inflated profile payload; DEFLATE inflation of a
// surrounding container (PNG iCCP, for instance) is the caller's job.
package icc

import (
	"fmt"
	"strings"

	rs "github.com/rasterspan/rasterspan"
)

// Value is the decoded payload of one ICC tag or fixed-offset attribute:
// either a string or an XYZ triple in Q16.16 fixed point, already
// divided down to floating point.
type Value struct {
	IsXYZ  bool
	String string
	XYZ    [3]float64
}

// Record is the order-irrelevant mapping from known-tag keyword to
// decoded value, plus the profile version (formatted from any non-zero
// version word) and the rendering intent (present only for a value in
// the known intent map).
type Record struct {
	Fields     map[string]Value
	Version    string
	HasVersion bool
	Intent     string
	HasIntent  bool
}

var fourCCDictionary = map[string]string{
	"scnr": "Scanner", "mntr": "Monitor", "prtr": "Printer", "link": "DeviceLink",
	"spac": "ColorSpace", "abst": "Abstract", "nmcl": "NamedColor",
	"adbe": "Adobe", "appl": "Apple", "MSFT": "Microsoft",
}

func fourCCLookup(raw string) string {
	if v, ok := fourCCDictionary[raw]; ok {
		return v
	}
	return raw
}

var headerAttributeOffsets = []struct {
	keyword string
	offset  int
}{
	{"cmm", 4}, {"deviceClass", 12}, {"colorSpace", 16}, {"connectionSpace", 20},
	{"platform", 40}, {"manufacturer", 48}, {"model", 52}, {"creator", 80},
}

var renderingIntents = map[uint32]string{
	0: "Perceptual",
	1: "Relative Colorimetric",
	2: "Saturation",
	3: "Absolute Colorimetric",
}

var knownTags = map[string]string{
	"desc": "description",
	"cprt": "copyright",
	"dmdd": "deviceModelDescription",
	"vued": "viewingConditionsDescription",
	"wtpt": "whitepoint",
}

const maxTagCount = 1024

// Parse decodes an inflated ICC profile payload.
func Parse(buf []byte) (*Record, error) {
	cur := rs.NewByteCursor(buf, false)

	size, err := readU32At(cur, 0)
	if err != nil {
		return nil, err
	}
	if int(size) != len(buf) {
		return nil, &rs.InvalidIccError{Reason: "length mismatch"}
	}

	sigSpan := rs.Span{Start: 36, End: 40}
	if !sigSpan.Valid(len(buf)) || string(sigSpan.Bytes(buf)) != "acsp" {
		return nil, &rs.InvalidIccError{Reason: "missing signature"}
	}

	rec := &Record{Fields: make(map[string]Value)}

	versionWord, err := readU32At(cur, 8)
	if err == nil && versionWord != 0 {
		rec.Version = formatICCVersion(versionWord)
		rec.HasVersion = true
	}

	intentWord, err := readU32At(cur, 64)
	if err == nil {
		if name, ok := renderingIntents[intentWord]; ok {
			rec.Intent = name
			rec.HasIntent = true
		}
	}

	for _, attr := range headerAttributeOffsets {
		v, err := readU32At(cur, attr.offset)
		if err != nil || v == 0 {
			continue
		}
		s := rs.Span{Start: attr.offset, End: attr.offset + 4}
		raw := string(s.Bytes(buf))
		rec.Fields[attr.keyword] = Value{String: fourCCLookup(raw)}
	}

	tagCount, err := readU32At(cur, 128)
	if err != nil {
		return nil, err
	}
	if tagCount > maxTagCount {
		tagCount = maxTagCount
	}

	for i := uint32(0); i < tagCount; i++ {
		entryOffset := 132 + int(i)*12
		sig, err := readSigAt(buf, entryOffset)
		if err != nil {
			return nil, err
		}
		tagOffset, err := readU32At(cur, entryOffset+4)
		if err != nil {
			return nil, err
		}
		tagSize, err := readU32At(cur, entryOffset+8)
		if err != nil {
			return nil, err
		}

		keyword, known := knownTags[sig]
		if !known {
			continue // unknown ICC tag signatures are silently skipped
		}

		if int(tagOffset) >= len(buf) || int(tagOffset) < 0 {
			return nil, &rs.InvalidIccError{Reason: "tag offset out of bounds"}
		}

		val, err := decodeTag(buf, int(tagOffset), int(tagSize))
		if err != nil {
			return nil, err
		}
		rec.Fields[keyword] = val
	}

	return rec, nil
}

func decodeTag(buf []byte, offset, size int) (Value, error) {
	typeSig, err := readSigAt(buf, offset)
	if err != nil {
		return Value{}, err
	}
	cur := rs.NewByteCursor(buf, false)

	switch typeSig {
	case "desc":
		textSize, err := readU32At(cur, offset+8)
		if err != nil {
			return Value{}, err
		}
		if int(textSize) > size {
			return Value{}, &rs.InvalidIccError{Reason: "desc text size exceeds tag size"}
		}
		start := offset + 12
		end := start
		if textSize > 0 {
			end = start + int(textSize) - 1
		}
		if end > len(buf) || end < start {
			return Value{}, &rs.InvalidIccError{Reason: "tag offset out of bounds"}
		}
		return Value{String: strings.TrimRight(string(buf[start:end]), "\x00")}, nil
	case "text":
		start := offset + 8
		end := offset + size - 7
		if end > len(buf) || end < start {
			return Value{}, &rs.InvalidIccError{Reason: "tag offset out of bounds"}
		}
		return Value{String: strings.TrimRight(string(buf[start:end]), "\x00")}, nil
	case "mluc":
		numNames, err := readU32At(cur, offset+8)
		if err != nil {
			return Value{}, err
		}
		recordSize, err := readU32At(cur, offset+12)
		if err != nil {
			return Value{}, err
		}
		if recordSize != 12 {
			return Value{}, &rs.InvalidIccError{Reason: "mluc record size must be 12"}
		}
		if numNames == 0 {
			return Value{String: ""}, nil
		}
		firstRecord := offset + 16
		nameLen, err := readU32At(cur, firstRecord+4)
		if err != nil {
			return Value{}, err
		}
		nameOff, err := readU32At(cur, firstRecord+8)
		if err != nil {
			return Value{}, err
		}
		start := offset + int(nameOff)
		end := start + int(nameLen)
		if end > len(buf) || start < 0 || end < start {
			return Value{}, &rs.InvalidIccError{Reason: "tag offset out of bounds"}
		}
		return Value{String: decodeUTF16BE(buf[start:end])}, nil
	case "XYZ ":
		var xyz [3]float64
		for i := 0; i < 3; i++ {
			raw, err := readI32At(cur, offset+8+i*4)
			if err != nil {
				return Value{}, err
			}
			xyz[i] = float64(raw) / 65536.0
		}
		return Value{IsXYZ: true, XYZ: xyz}, nil
	default:
		return Value{}, fmt.Errorf("icc: unhandled tag type %q", typeSig)
	}
}

func decodeUTF16BE(b []byte) string {
	var sb strings.Builder
	for i := 0; i+1 < len(b); i += 2 {
		r := rune(uint16(b[i])<<8 | uint16(b[i+1]))
		sb.WriteRune(r)
	}
	return sb.String()
}

func readU32At(cur *rs.ByteCursor, offset int) (uint32, error) {
	cur.Seek(offset)
	return cur.ReadU32()
}

func readI32At(cur *rs.ByteCursor, offset int) (int32, error) {
	cur.Seek(offset)
	return cur.ReadI32()
}

func readSigAt(buf []byte, offset int) (string, error) {
	s := rs.Span{Start: offset, End: offset + 4}
	if !s.Valid(len(buf)) {
		return "", &rs.InvalidIccError{Reason: "tag offset out of bounds"}
	}
	return string(s.Bytes(buf)), nil
}

func formatICCVersion(word uint32) string {
	major := byte(word >> 24)
	minorBugfix := byte(word >> 16)
	minor := minorBugfix >> 4
	bugfix := minorBugfix & 0xF
	if bugfix == 0 {
		return fmt.Sprintf("%d.%d", major, minor)
	}
	return fmt.Sprintf("%d.%d.%d", major, minor, bugfix)
}
