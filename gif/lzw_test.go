package gif

import (
	"reflect"
	"testing"
)

func TestDecodeLZWThreeZeros(t *testing.T) {
	// min_code_size=2: clear(4,3b) lit(0,3b) code(0,3b) code(0,3b) end(5,4b),
	// hand-packed LSB-first into two bytes.
	got, err := DecodeLZW(2, []byte{0x04, 0x50})
	if err != nil {
		t.Fatalf("DecodeLZW() error = %v", err)
	}
	want := []int{0, 0, 0}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DecodeLZW() = %v; want %v", got, want)
	}
}

func TestDecodeLZWEmptyBitmap(t *testing.T) {
	// min_code_size=2: clear(4,3b) end(5,3b) packed into one byte with
	// trailing zero padding.
	got, err := DecodeLZW(2, []byte{0x2C})
	if err != nil {
		t.Fatalf("DecodeLZW() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("DecodeLZW() = %v; want empty", got)
	}
}

func TestDecodeLZWMissingClearCode(t *testing.T) {
	if _, err := DecodeLZW(2, []byte{0x00}); err == nil {
		t.Fatalf("DecodeLZW() without a leading clear code should fail")
	}
}

func TestDecodeLZWTrailingNonZeroBits(t *testing.T) {
	// Same stream as the empty-bitmap case, but with a stray set bit
	// after the end code.
	if _, err := DecodeLZW(2, []byte{0xAC}); err == nil {
		t.Fatalf("DecodeLZW() with non-zero trailing bits should fail")
	}
}
