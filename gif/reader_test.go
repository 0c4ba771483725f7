package gif

import "testing"

func u16le(v uint16) []byte { return []byte{byte(v), byte(v >> 8)} }

func minimalLSD(width, height uint16, packed byte) []byte {
	var buf []byte
	buf = append(buf, u16le(width)...)
	buf = append(buf, u16le(height)...)
	buf = append(buf, packed, 0, 0)
	return buf
}

func TestParseGCTButZeroImagesSucceeds(t *testing.T) {
	var buf []byte
	buf = append(buf, "GIF89a"...)
	buf = append(buf, minimalLSD(1, 1, 0x80)...) // has_gct, gct_size=0 -> 2 entries
	buf = append(buf, make([]byte, 2*3)...)       // global color table
	buf = append(buf, trailerByte)

	rec, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if rec.GlobalColorTable == nil {
		t.Fatalf("GlobalColorTable = nil; want present")
	}
	if len(rec.Images) != 0 {
		t.Fatalf("Images = %v; want empty", rec.Images)
	}
}

func TestParseBadSignature(t *testing.T) {
	buf := append([]byte("GIF88a"), minimalLSD(1, 1, 0)...)
	buf = append(buf, trailerByte)
	if _, err := Parse(buf); err == nil {
		t.Fatalf("Parse() should reject an unrecognized GIF version")
	}
}

func TestParseTrailingBytesAfterTrailer(t *testing.T) {
	var buf []byte
	buf = append(buf, "GIF89a"...)
	buf = append(buf, minimalLSD(1, 1, 0)...)
	buf = append(buf, trailerByte, 0xFF) // stray byte after the trailer
	if _, err := Parse(buf); err == nil {
		t.Fatalf("Parse() should fail when bytes follow the trailer")
	}
}

func TestParseSingleImageDecodesViaGlobalColorTable(t *testing.T) {
	var buf []byte
	buf = append(buf, "GIF89a"...)
	buf = append(buf, minimalLSD(2, 1, 0x80)...) // has_gct, gct_size=0 -> 2 entries
	buf = append(buf, make([]byte, 2*3)...)

	// Image descriptor: left=0,top=0,width=2,height=1,packed=0 (no LCT)
	buf = append(buf, imageSeparatorByte)
	buf = append(buf, u16le(0)...)
	buf = append(buf, u16le(0)...)
	buf = append(buf, u16le(2)...)
	buf = append(buf, u16le(1)...)
	buf = append(buf, 0)

	// min_code_size=2, sub-block data [0x04, 0x50] (clear, 0,0,0, end),
	// terminated by a zero-length sub-block.
	buf = append(buf, 2)
	buf = append(buf, 2, 0x04, 0x50)
	buf = append(buf, 0)

	buf = append(buf, trailerByte)

	rec, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(rec.Images) != 1 {
		t.Fatalf("Images = %d; want 1", len(rec.Images))
	}
	img := rec.Images[0]
	if !rec.Decodable(img) {
		t.Fatalf("Decodable() = false; want true via the global color table")
	}
	indices, err := rec.DecodeImage(img)
	if err != nil {
		t.Fatalf("DecodeImage() error = %v", err)
	}
	if len(indices) != 3 || indices[0] != 0 || indices[1] != 0 || indices[2] != 0 {
		t.Fatalf("DecodeImage() = %v; want [0 0 0]", indices)
	}
}

func TestDecodableRequiresSomeReachablePalette(t *testing.T) {
	rec := &Record{}
	img := Image{}
	if rec.Decodable(img) {
		t.Fatalf("Decodable() = true; want false when neither local nor global table is present")
	}
}

func TestParseApplicationExtensionNetscapeLoop(t *testing.T) {
	var buf []byte
	buf = append(buf, "GIF89a"...)
	buf = append(buf, minimalLSD(1, 1, 0)...)

	buf = append(buf, extensionIntroByte, extApplication)
	buf = append(buf, 11) // block_length
	buf = append(buf, "NETSCAPE2.0"...)
	buf = append(buf, 1)            // sub_index
	buf = append(buf, u16le(5)...)  // num_executions / loop count
	buf = append(buf, u16le(0)...)  // terminator

	buf = append(buf, imageSeparatorByte)
	buf = append(buf, u16le(0)...)
	buf = append(buf, u16le(0)...)
	buf = append(buf, u16le(1)...)
	buf = append(buf, u16le(1)...)
	buf = append(buf, 0)
	buf = append(buf, 2)
	buf = append(buf, 1, 0x2C)
	buf = append(buf, 0)

	buf = append(buf, trailerByte)

	rec, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(rec.Images) != 1 {
		t.Fatalf("Images = %d; want 1", len(rec.Images))
	}
	exts := rec.Images[0].Extensions
	if len(exts) != 1 || exts[0].Kind != ExtensionApplication {
		t.Fatalf("Extensions = %+v; want one Application extension", exts)
	}
	app := exts[0].Application
	if !app.IsNetscapeLoop || app.LoopCount != 5 {
		t.Fatalf("Application = %+v; want IsNetscapeLoop=true, LoopCount=5", app)
	}
}
