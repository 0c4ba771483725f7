package rasterspan

import "fmt"

// FieldKind names the shape of one field in a SchemaDispatch record.
type FieldKind int

const (
	KindU8 FieldKind = iota
	KindU16
	KindU32
	// KindNullTerminatedString consumes through and including a 0x00 byte.
	KindNullTerminatedString
	// KindRestSpan consumes every remaining byte up to the record's end.
	KindRestSpan
)

// FieldSpec names one (field-name, field-kind) pair in an ordered schema.
type FieldSpec struct {
	Name string
	Kind FieldKind
}

// FieldValue is the decoded value of one schema field. Exactly one of its
// members is meaningful, selected by Kind.
type FieldValue struct {
	Kind FieldKind
	U8   uint8
	U16  uint16
	U32  uint32
	Span Span
}

// Dispatch drives cur through an ordered schema, consuming bytes from the
// cursor's current position up to end, and returns the populated
// name->value map. This is the shared mechanism behind PNG's known chunk
// schemas: the schema itself is data (a []FieldSpec), not per-chunk
// imperative code.
func Dispatch(cur *ByteCursor, end int, fields []FieldSpec) (map[string]FieldValue, error) {
	out := make(map[string]FieldValue, len(fields))
	for _, f := range fields {
		switch f.Kind {
		case KindU8:
			b, err := cur.Next()
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
			out[f.Name] = FieldValue{Kind: KindU8, U8: b}
		case KindU16:
			v, err := cur.ReadU16()
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
			out[f.Name] = FieldValue{Kind: KindU16, U16: v}
		case KindU32:
			v, err := cur.ReadU32()
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
			out[f.Name] = FieldValue{Kind: KindU32, U32: v}
		case KindNullTerminatedString:
			s, err := cur.ReadNullTerminatedString()
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
			out[f.Name] = FieldValue{Kind: KindNullTerminatedString, Span: s}
		case KindRestSpan:
			s, err := cur.GetSpanTo(end)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
			out[f.Name] = FieldValue{Kind: KindRestSpan, Span: s}
		default:
			return nil, fmt.Errorf("field %q: unknown field kind %d", f.Name, f.Kind)
		}
		if cur.Index() > end {
			return nil, fmt.Errorf("field %q: %w: runs past record end %d", f.Name, ErrEndOfInput, end)
		}
	}
	return out, nil
}
