// Package zip locates the End-of-Central-Directory record by reverse
// scan and walks the Central Directory File Headers it points to.
// Local file headers and data descriptors are not parsed.
package zip

import (
	"time"

	rs "github.com/rasterspan/rasterspan"
)

var (
	eocdSigBytes = []byte{0x50, 0x4b, 0x05, 0x06}
	cdfhSigBytes = []byte{0x50, 0x4b, 0x01, 0x02}
)

// EndOfCentralDirectory is the EoCD record.
type EndOfCentralDirectory struct {
	DiskNum       uint16
	DiskOfCD      uint16
	DiskEntries   uint16
	TotalEntries  uint16
	CdSize        uint32
	CdOffset      uint32
	CommentLen    uint16
	Comment       rs.Span
	Span          rs.Span
}

// CentralDirectoryFileHeader is one entry of the Central Directory.
type CentralDirectoryFileHeader struct {
	OS                 byte
	ZipVersion         byte
	VersionNeeded      uint16
	Flags              uint16
	Compression        uint16
	Mtime              uint32
	Crc                uint32
	CompressedSize     uint32
	UncompressedSize   uint32
	NameLen            uint16
	ExtraLen           uint16
	CommentLen         uint16
	DiskStart          uint16
	InternalAttrs      uint16
	ExternalAttrs      uint32
	LocalHeaderOffset  uint32
	Name               rs.Span
	Extra              rs.Span
	Comment            rs.Span
	Span               rs.Span

	// ModTime is derived from the DOS date/time packed into Mtime.
	ModTime time.Time
}

// Record is the result of parsing a complete ZIP byte stream.
type Record struct {
	FileHeaders []CentralDirectoryFileHeader
	End         EndOfCentralDirectory
	Buffer      []byte
}

// Parse locates the End-of-Central-Directory record and walks the
// Central Directory it points to.
func Parse(buf []byte) (*Record, error) {
	eocdStart := findEOCD(buf)
	if eocdStart < 0 {
		return nil, rs.ErrMissingCentralDir
	}

	cur := rs.NewByteCursor(buf, true)
	cur.Seek(eocdStart)
	end, err := readEOCD(cur)
	if err != nil {
		return nil, err
	}

	cur.Seek(int(end.CdOffset))
	var headers []CentralDirectoryFileHeader
	for {
		if cur.Index()+4 > len(buf) {
			break
		}
		if !cur.ConsumeIfEquals(cdfhSigBytes) {
			break
		}
		h, err := readCDFH(cur)
		if err != nil {
			return nil, err
		}
		headers = append(headers, h)
	}

	return &Record{FileHeaders: headers, End: end, Buffer: buf}, nil
}

// findEOCD scans the buffer from its last byte backwards for the
// little-endian EoCD signature and returns the offset of its first
// byte, or -1 if absent.
func findEOCD(buf []byte) int {
	if len(buf) < 4 {
		return -1
	}
	for i := len(buf) - 4; i >= 0; i-- {
		if buf[i] == eocdSigBytes[0] && buf[i+1] == eocdSigBytes[1] &&
			buf[i+2] == eocdSigBytes[2] && buf[i+3] == eocdSigBytes[3] {
			return i
		}
	}
	return -1
}

func readEOCD(cur *rs.ByteCursor) (EndOfCentralDirectory, error) {
	start := cur.Index()
	if err := cur.ExpectBytes(eocdSigBytes); err != nil {
		return EndOfCentralDirectory{}, err
	}
	diskNum, err := cur.ReadU16()
	if err != nil {
		return EndOfCentralDirectory{}, err
	}
	diskOfCD, err := cur.ReadU16()
	if err != nil {
		return EndOfCentralDirectory{}, err
	}
	diskEntries, err := cur.ReadU16()
	if err != nil {
		return EndOfCentralDirectory{}, err
	}
	totalEntries, err := cur.ReadU16()
	if err != nil {
		return EndOfCentralDirectory{}, err
	}
	cdSize, err := cur.ReadU32()
	if err != nil {
		return EndOfCentralDirectory{}, err
	}
	cdOffset, err := cur.ReadU32()
	if err != nil {
		return EndOfCentralDirectory{}, err
	}
	commentLen, err := cur.ReadU16()
	if err != nil {
		return EndOfCentralDirectory{}, err
	}
	comment, err := cur.GetSpan(int(commentLen))
	if err != nil {
		return EndOfCentralDirectory{}, err
	}

	return EndOfCentralDirectory{
		DiskNum: diskNum, DiskOfCD: diskOfCD, DiskEntries: diskEntries,
		TotalEntries: totalEntries, CdSize: cdSize, CdOffset: cdOffset,
		CommentLen: commentLen, Comment: comment,
		Span: rs.Span{Start: start, End: cur.Index()},
	}, nil
}

func readCDFH(cur *rs.ByteCursor) (CentralDirectoryFileHeader, error) {
	start := cur.Index() - 4 // signature already consumed
	osByte, err := cur.Next()
	if err != nil {
		return CentralDirectoryFileHeader{}, err
	}
	zipVersion, err := cur.Next()
	if err != nil {
		return CentralDirectoryFileHeader{}, err
	}
	versionNeeded, err := cur.ReadU16()
	if err != nil {
		return CentralDirectoryFileHeader{}, err
	}
	flags, err := cur.ReadU16()
	if err != nil {
		return CentralDirectoryFileHeader{}, err
	}
	compression, err := cur.ReadU16()
	if err != nil {
		return CentralDirectoryFileHeader{}, err
	}
	mtime, err := cur.ReadU32()
	if err != nil {
		return CentralDirectoryFileHeader{}, err
	}
	crc, err := cur.ReadU32()
	if err != nil {
		return CentralDirectoryFileHeader{}, err
	}
	compressedSize, err := cur.ReadU32()
	if err != nil {
		return CentralDirectoryFileHeader{}, err
	}
	uncompressedSize, err := cur.ReadU32()
	if err != nil {
		return CentralDirectoryFileHeader{}, err
	}
	nameLen, err := cur.ReadU16()
	if err != nil {
		return CentralDirectoryFileHeader{}, err
	}
	extraLen, err := cur.ReadU16()
	if err != nil {
		return CentralDirectoryFileHeader{}, err
	}
	commentLen, err := cur.ReadU16()
	if err != nil {
		return CentralDirectoryFileHeader{}, err
	}
	diskStart, err := cur.ReadU16()
	if err != nil {
		return CentralDirectoryFileHeader{}, err
	}
	internalAttrs, err := cur.ReadU16()
	if err != nil {
		return CentralDirectoryFileHeader{}, err
	}
	externalAttrs, err := cur.ReadU32()
	if err != nil {
		return CentralDirectoryFileHeader{}, err
	}
	localHeaderOffset, err := cur.ReadU32()
	if err != nil {
		return CentralDirectoryFileHeader{}, err
	}
	name, err := cur.GetSpan(int(nameLen))
	if err != nil {
		return CentralDirectoryFileHeader{}, err
	}
	extra, err := cur.GetSpan(int(extraLen))
	if err != nil {
		return CentralDirectoryFileHeader{}, err
	}
	comment, err := cur.GetSpan(int(commentLen))
	if err != nil {
		return CentralDirectoryFileHeader{}, err
	}

	return CentralDirectoryFileHeader{
		OS: osByte, ZipVersion: zipVersion, VersionNeeded: versionNeeded,
		Flags: flags, Compression: compression, Mtime: mtime, Crc: crc,
		CompressedSize: compressedSize, UncompressedSize: uncompressedSize,
		NameLen: nameLen, ExtraLen: extraLen, CommentLen: commentLen,
		DiskStart: diskStart, InternalAttrs: internalAttrs, ExternalAttrs: externalAttrs,
		LocalHeaderOffset: localHeaderOffset, Name: name, Extra: extra, Comment: comment,
		Span:    rs.Span{Start: start, End: cur.Index()},
		ModTime: dosTimeToGoTime(mtime),
	}, nil
}

// dosTimeToGoTime converts a packed DOS date/time (date in the high
// 16 bits, time in the low 16 bits) into a time.Time in UTC. DOS
// timestamps have 2-second resolution and no time zone.
func dosTimeToGoTime(packed uint32) time.Time {
	date := uint16(packed >> 16)
	t := uint16(packed)

	year := int(date>>9) + 1980
	month := int((date >> 5) & 0x0F)
	day := int(date & 0x1F)

	hour := int(t >> 11)
	minute := int((t >> 5) & 0x3F)
	second := int(t&0x1F) * 2

	if month == 0 {
		month = 1
	}
	if day == 0 {
		day = 1
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
}
