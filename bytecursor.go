package rasterspan

import (
	"encoding/binary"
	"fmt"
)

// ByteCursor reads fixed-width integers, spans, and null-terminated
// strings sequentially from a backing byte slice. Endianness is fixed at
// construction; a reader that needs both orderings over the same buffer
// (TIFF/EXIF byte order markers, for instance) constructs two cursors.
type ByteCursor struct {
	buffer       []byte
	index        int
	littleEndian bool
}

// NewByteCursor builds a cursor over buf with the given endianness.
func NewByteCursor(buf []byte, littleEndian bool) *ByteCursor {
	return &ByteCursor{buffer: buf, littleEndian: littleEndian}
}

func (c *ByteCursor) order() binary.ByteOrder {
	if c.littleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// Len reports the length of the backing buffer.
func (c *ByteCursor) Len() int { return len(c.buffer) }

// Index reports the cursor's current byte offset.
func (c *ByteCursor) Index() int { return c.index }

// Seek repositions the cursor to an absolute byte offset. It does not
// validate the offset; a subsequent read reports EndOfInput if it is out
// of range.
func (c *ByteCursor) Seek(index int) { c.index = index }

// AtEnd reports whether the cursor sits exactly at the end of the buffer.
func (c *ByteCursor) AtEnd() bool { return c.index == len(c.buffer) }

// Next returns the byte at the cursor and advances by one.
func (c *ByteCursor) Next() (byte, error) {
	if c.index >= len(c.buffer) {
		return 0, fmt.Errorf("%w: read 1 byte at offset %d", ErrEndOfInput, c.index)
	}
	b := c.buffer[c.index]
	c.index++
	return b, nil
}

// Peek returns the byte at the cursor without advancing. ok is false
// whenever the cursor is at or past the end of the buffer.
func (c *ByteCursor) Peek() (b byte, ok bool) {
	if c.index >= len(c.buffer) {
		return 0, false
	}
	return c.buffer[c.index], true
}

func (c *ByteCursor) readN(n int) ([]byte, error) {
	if c.index+n > len(c.buffer) {
		return nil, fmt.Errorf("%w: read %d bytes at offset %d", ErrEndOfInput, n, c.index)
	}
	b := c.buffer[c.index : c.index+n]
	c.index += n
	return b, nil
}

// ReadU16 reads a 2-byte unsigned integer respecting the cursor's endianness.
func (c *ByteCursor) ReadU16() (uint16, error) {
	b, err := c.readN(2)
	if err != nil {
		return 0, err
	}
	return c.order().Uint16(b), nil
}

// ReadU32 reads a 4-byte unsigned integer respecting the cursor's endianness.
func (c *ByteCursor) ReadU32() (uint32, error) {
	b, err := c.readN(4)
	if err != nil {
		return 0, err
	}
	return c.order().Uint32(b), nil
}

// ReadI32 reads a 4-byte signed integer respecting the cursor's endianness.
func (c *ByteCursor) ReadI32() (int32, error) {
	v, err := c.ReadU32()
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

// ExpectByte reads one byte and requires it to equal b.
func (c *ByteCursor) ExpectByte(b byte) error {
	return c.ExpectBytes([]byte{b})
}

// ExpectBytes reads len(bs) bytes and requires them to equal bs.
func (c *ByteCursor) ExpectBytes(bs []byte) error {
	got, err := c.readN(len(bs))
	if err != nil {
		return err
	}
	for i := range bs {
		if got[i] != bs[i] {
			found := make([]byte, len(got))
			copy(found, got)
			return &UnexpectedByteError{Expected: append([]byte(nil), bs...), Found: found}
		}
	}
	return nil
}

// ConsumeIfEquals advances past len(bs) bytes and returns true if they
// match bs; otherwise it leaves the cursor unchanged and returns false.
// It never advances past the end of the buffer.
func (c *ByteCursor) ConsumeIfEquals(bs []byte) bool {
	if c.index+len(bs) > len(c.buffer) {
		return false
	}
	for i, b := range bs {
		if c.buffer[c.index+i] != b {
			return false
		}
	}
	c.index += len(bs)
	return true
}

// GetSpan returns a span of length n starting at the cursor and advances
// the cursor to the span's end.
func (c *ByteCursor) GetSpan(n int) (Span, error) {
	if c.index+n > len(c.buffer) {
		return Span{}, fmt.Errorf("%w: span of %d bytes at offset %d", ErrEndOfInput, n, c.index)
	}
	s := Span{Start: c.index, End: c.index + n}
	c.index = s.End
	return s, nil
}

// GetSpanTo returns a span from the cursor up to (and sets the cursor to) end.
func (c *ByteCursor) GetSpanTo(end int) (Span, error) {
	if end > len(c.buffer) || end < c.index {
		return Span{}, fmt.Errorf("%w: span to offset %d from %d", ErrEndOfInput, end, c.index)
	}
	s := Span{Start: c.index, End: end}
	c.index = end
	return s, nil
}

// ReadNullTerminatedString returns the span from the cursor through and
// including the terminating 0x00 byte, and advances past it.
func (c *ByteCursor) ReadNullTerminatedString() (Span, error) {
	start := c.index
	for i := c.index; i < len(c.buffer); i++ {
		if c.buffer[i] == 0 {
			c.index = i + 1
			return Span{Start: start, End: i + 1}, nil
		}
	}
	return Span{}, fmt.Errorf("%w: no null terminator found from offset %d", ErrEndOfInput, start)
}

// BytesForSpan returns the slice of the backing buffer the span covers.
func (c *ByteCursor) BytesForSpan(s Span) []byte {
	return s.Bytes(c.buffer)
}

// StringForSpan decodes the span as UTF-8, lossily replacing invalid
// sequences, mirroring Span.String.
func (c *ByteCursor) StringForSpan(s Span) string {
	return s.String(c.buffer)
}

// Buffer returns the backing buffer. Callers must not mutate it.
func (c *ByteCursor) Buffer() []byte { return c.buffer }

// Order returns the byte order the cursor was constructed with, for
// callers that need to re-derive file-order bytes from an already
// decoded integer (TIFF/EXIF inline value decoding).
func (c *ByteCursor) Order() binary.ByteOrder { return c.order() }
