// Package exif implements the TIFF/EXIF two-level IFD reader: root IFD,
// then the EXIF (tag 34665) and GPS (tag 34853) sub-IFDs, with
// inline-vs-pointer value decoding for each field.
package exif

import (
	"encoding/binary"
	"fmt"

	rs "github.com/rasterspan/rasterspan"
	"github.com/rasterspan/rasterspan/tagdict"
)

const (
	exifSubIFDTag = 34665
	gpsSubIFDTag  = 34853
)

// Field is one decoded TIFF/EXIF directory entry.
type Field struct {
	Tag         uint16
	Name        string
	HasName     bool
	Type        uint16
	Count       uint32
	ValueOffset uint32
	Value       Value
	Span        rs.Span
}

// Record is a flattened EXIF field list: root IFD fields concatenated
// with the EXIF and GPS sub-IFDs' fields, in that order.
type Record struct {
	Fields []Field
}

// Parse reads a TIFF/EXIF byte stream starting with the byte-order
// marker. The marker ("II" little-endian, "MM" big-endian) is honored
// for every subsequent read.
func Parse(buf []byte) (*Record, error) {
	if len(buf) < 2 {
		return nil, fmt.Errorf("%w: TIFF header", rs.ErrEndOfInput)
	}

	var littleEndian bool
	switch {
	case buf[0] == 'I' && buf[1] == 'I':
		littleEndian = true
	case buf[0] == 'M' && buf[1] == 'M':
		littleEndian = false
	default:
		return nil, &rs.BadSignatureError{Format: "TIFF"}
	}

	cur := rs.NewByteCursor(buf, littleEndian)
	cur.Seek(2)

	magic, err := cur.ReadU16()
	if err != nil {
		return nil, err
	}
	if magic != 42 {
		return nil, &rs.BadSignatureError{Format: "TIFF"}
	}

	ifdOffset, err := cur.ReadU32()
	if err != nil {
		return nil, err
	}

	dict := tagdict.New()

	cur.Seek(int(ifdOffset))
	fields, err := readIFD(cur, dict)
	if err != nil {
		return nil, err
	}

	rec := &Record{Fields: fields}

	for _, subTag := range []uint16{exifSubIFDTag, gpsSubIFDTag} {
		for _, f := range fields {
			if f.Tag != subTag || len(f.Value.Longs) != 1 {
				continue
			}
			saved := cur.Index()
			cur.Seek(int(f.Value.Longs[0]))
			sub, err := readIFD(cur, dict)
			cur.Seek(saved)
			if err != nil {
				return nil, err
			}
			rec.Fields = append(rec.Fields, sub...)
		}
	}

	return rec, nil
}

// readIFD reads a field count, that many 12-byte directory entries, and
// the trailing (ignored) next-IFD offset.
func readIFD(cur *rs.ByteCursor, dict *tagdict.Dictionary) ([]Field, error) {
	count, err := cur.ReadU16()
	if err != nil {
		return nil, err
	}

	fields := make([]Field, 0, count)
	for i := 0; i < int(count); i++ {
		entryStart := cur.Index()

		tag, err := cur.ReadU16()
		if err != nil {
			return nil, err
		}
		typ, err := cur.ReadU16()
		if err != nil {
			return nil, err
		}
		fieldCount, err := cur.ReadU32()
		if err != nil {
			return nil, err
		}
		valueOffset, err := cur.ReadU32()
		if err != nil {
			return nil, err
		}

		entryEnd := cur.Index()

		if _, ok := typeWidth(typ); !ok {
			return nil, &rs.UnknownExifTypeError{TypeCode: typ}
		}

		val, err := decodeFieldValue(cur, typ, fieldCount, valueOffset)
		if err != nil {
			return nil, err
		}

		entry, hasName := dict.Lookup(tag)
		fields = append(fields, Field{
			Tag: tag, Name: entry.Name, HasName: hasName,
			Type: typ, Count: fieldCount, ValueOffset: valueOffset,
			Value: val, Span: rs.Span{Start: entryStart, End: entryEnd},
		})
	}

	if _, err := cur.ReadU32(); err != nil {
		return nil, err
	}

	return fields, nil
}

// decodeFieldValue implements §4.4's inline-vs-pointer branch: values
// whose total byte size is at most 4 are decoded directly from
// valueOffset's bits; larger values are read by seeking to valueOffset
// and restoring the cursor position afterward.
func decodeFieldValue(cur *rs.ByteCursor, typ uint16, count, valueOffset uint32) (Value, error) {
	width, _ := typeWidth(typ)
	size := int(count) * width

	if size <= 4 {
		return decodeInline(cur.Order(), typ, count, valueOffset), nil
	}
	return decodeOutOfLine(cur, typ, count, valueOffset)
}

// decodeInline decodes a value packed into the 4-byte value_offset field
// itself. valueOffset was read from the file with order, so re-encoding it
// with the same order recovers the field's bytes in file order regardless
// of which byte order marker the file used.
func decodeInline(order binary.ByteOrder, typ uint16, count, valueOffset uint32) Value {
	raw := make([]byte, 4)
	order.PutUint32(raw, valueOffset)

	switch typ {
	case TypeByte, TypeASCII, TypeUndefined:
		bs := make([]byte, count)
		copy(bs, raw[:count])
		return Value{Bytes: bs}
	case TypeShort:
		shorts := make([]uint16, count)
		for i := range shorts {
			shorts[i] = order.Uint16(raw[i*2 : i*2+2])
		}
		return Value{Shorts: shorts}
	case TypeLong:
		return Value{Longs: []uint32{valueOffset}}
	case TypeSLong:
		return Value{SLongs: []int32{int32(valueOffset)}}
	default:
		return Value{}
	}
}

func decodeOutOfLine(cur *rs.ByteCursor, typ uint16, count, valueOffset uint32) (Value, error) {
	saved := cur.Index()
	cur.Seek(int(valueOffset))
	defer cur.Seek(saved)

	switch typ {
	case TypeByte, TypeASCII, TypeUndefined:
		s, err := cur.GetSpan(int(count))
		if err != nil {
			return Value{}, err
		}
		return Value{Bytes: append([]byte(nil), cur.BytesForSpan(s)...)}, nil
	case TypeShort:
		shorts := make([]uint16, count)
		for i := range shorts {
			v, err := cur.ReadU16()
			if err != nil {
				return Value{}, err
			}
			shorts[i] = v
		}
		return Value{Shorts: shorts}, nil
	case TypeLong:
		longs := make([]uint32, count)
		for i := range longs {
			v, err := cur.ReadU32()
			if err != nil {
				return Value{}, err
			}
			longs[i] = v
		}
		return Value{Longs: longs}, nil
	case TypeSLong:
		slongs := make([]int32, count)
		for i := range slongs {
			v, err := cur.ReadI32()
			if err != nil {
				return Value{}, err
			}
			slongs[i] = v
		}
		return Value{SLongs: slongs}, nil
	case TypeRational:
		rats := make([]Rational, count)
		for i := range rats {
			num, err := cur.ReadU32()
			if err != nil {
				return Value{}, err
			}
			den, err := cur.ReadU32()
			if err != nil {
				return Value{}, err
			}
			rats[i] = Rational{Num: num, Den: den}
		}
		return Value{Rationals: rats}, nil
	case TypeSRational:
		rats := make([]SRational, count)
		for i := range rats {
			num, err := cur.ReadI32()
			if err != nil {
				return Value{}, err
			}
			den, err := cur.ReadI32()
			if err != nil {
				return Value{}, err
			}
			rats[i] = SRational{Num: num, Den: den}
		}
		return Value{SRationals: rats}, nil
	default:
		return Value{}, fmt.Errorf("exif: unreachable type %d", typ)
	}
}
