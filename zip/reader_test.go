package zip

import "testing"

func TestParseEOCDScenario(t *testing.T) {
	// Last 22 bytes of the archive, matching the worked example:
	// total_entries=1, cd_size=59, cd_offset=160, empty comment.
	eocd := []byte{
		0x50, 0x4B, 0x05, 0x06, 0x00, 0x00, 0x00, 0x00,
		0x01, 0x00, 0x01, 0x00, 0x3B, 0x00, 0x00, 0x00,
		0xA0, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
	cdfh := buildCDFH("a.txt")
	buf := make([]byte, 160+len(cdfh)+len(eocd))
	copy(buf[160:], cdfh)
	copy(buf[160+len(cdfh):], eocd)

	rec, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if rec.End.TotalEntries != 1 {
		t.Fatalf("TotalEntries = %d; want 1", rec.End.TotalEntries)
	}
	if rec.End.CdSize != 59 {
		t.Fatalf("CdSize = %d; want 59", rec.End.CdSize)
	}
	if rec.End.CdOffset != 160 {
		t.Fatalf("CdOffset = %d; want 160", rec.End.CdOffset)
	}
	if rec.End.Comment.Len() != 0 {
		t.Fatalf("Comment span length = %d; want 0", rec.End.Comment.Len())
	}
}

func buildCDFH(name string) []byte {
	var buf []byte
	buf = append(buf, 0x50, 0x4B, 0x01, 0x02) // signature
	buf = append(buf, 0x00, 0x00)             // os, zip_version — packed as 2 bytes (1 each)
	buf = append(buf, u16le(0)...)            // version_needed
	buf = append(buf, u16le(0)...)            // flags
	buf = append(buf, u16le(0)...)            // compression
	buf = append(buf, u32le(0)...)            // mtime
	buf = append(buf, u32le(0)...)            // crc
	buf = append(buf, u32le(0)...)            // compressed_size
	buf = append(buf, u32le(0)...)            // uncompressed_size
	buf = append(buf, u16le(uint16(len(name)))...)
	buf = append(buf, u16le(0)...) // extra_len
	buf = append(buf, u16le(0)...) // comment_len
	buf = append(buf, u16le(0)...) // disk_start
	buf = append(buf, u16le(0)...) // internal_attrs
	buf = append(buf, u32le(0)...) // external_attrs
	buf = append(buf, u32le(0)...) // local_header_offset
	buf = append(buf, []byte(name)...)
	return buf
}

func u16le(v uint16) []byte { return []byte{byte(v), byte(v >> 8)} }
func u32le(v uint32) []byte { return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)} }

func TestParseMissingCentralDirectory(t *testing.T) {
	buf := []byte("not a zip file at all")
	if _, err := Parse(buf); err == nil {
		t.Fatalf("Parse() should fail when no EoCD signature is present")
	}
}

func TestParseEOCDInFinal22Bytes(t *testing.T) {
	// The EoCD need not start at offset 0; the reverse scan must find it
	// wherever it sits in the trailing bytes.
	eocd := []byte{
		0x50, 0x4B, 0x05, 0x06, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
	buf := append([]byte{0xDE, 0xAD, 0xBE, 0xEF}, eocd...)
	rec, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if rec.End.TotalEntries != 0 {
		t.Fatalf("TotalEntries = %d; want 0", rec.End.TotalEntries)
	}
}

func TestParseStopsAtNonMatchingSignature(t *testing.T) {
	cdfh := buildCDFH("one.txt")
	buf := append([]byte{}, cdfh...)
	buf = append(buf, []byte{0, 0, 0, 0}...) // not a valid CDFH signature
	eocd := []byte{
		0x50, 0x4B, 0x05, 0x06, 0x00, 0x00, 0x00, 0x00,
		0x01, 0x00, 0x01, 0x00,
	}
	eocd = append(eocd, u32le(0)...) // cd_size, unused by the reader
	eocd = append(eocd, u32le(0)...) // cd_offset: the CDFH starts at offset 0
	eocd = append(eocd, u16le(0)...)
	buf = append(buf, eocd...)

	rec, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(rec.FileHeaders) != 1 {
		t.Fatalf("FileHeaders = %d; want 1", len(rec.FileHeaders))
	}
}
