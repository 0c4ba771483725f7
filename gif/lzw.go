package gif

import (
	"fmt"

	rs "github.com/rasterspan/rasterspan"
)

// DecodeLZW decodes a GIF-flavored LZW byte stream (the concatenated
// sub-block bytes of one image, with the leading length prefixes
// already stripped) into its index stream. minCodeSize comes from the
// image's header byte.
func DecodeLZW(minCodeSize uint8, data []byte) ([]int, error) {
	clearCode := 1 << uint(minCodeSize)
	endCode := clearCode + 1
	maxWidth := 12

	bc := rs.NewBitCursor(data)

	var table [][]int
	width := int(minCodeSize) + 1

	resetTable := func() {
		table = make([][]int, endCode+1)
		for k := 0; k <= endCode; k++ {
			table[k] = []int{k}
		}
		width = int(minCodeSize) + 1
	}

	readCode := func() (int, error) {
		w := width
		if w > maxWidth {
			w = maxWidth
		}
		v, err := bc.ReadNBits(w)
		if err != nil {
			return 0, err
		}
		return int(v), nil
	}

	resetTable()

	first, err := readCode()
	if err != nil {
		return nil, err
	}
	if first != clearCode {
		return nil, fmt.Errorf("gif: lzw stream does not begin with the clear code")
	}

	var output []int
	prev := -1

	for {
		code, err := readCode()
		if err != nil {
			return nil, err
		}

		if code == endCode {
			break
		}

		if code == clearCode {
			resetTable()
			prev = -1
			continue
		}

		if prev == -1 {
			if code >= clearCode {
				return nil, fmt.Errorf("gif: first code after clear is not a literal")
			}
			output = append(output, table[code]...)
			prev = code
			continue
		}

		var seq []int
		switch {
		case code < len(table):
			seq = table[code]
			entry := append(append([]int{}, table[prev]...), seq[0])
			if len(table) < 1<<maxWidth {
				table = append(table, entry)
			}
		case code == len(table):
			k := table[prev][0]
			entry := append(append([]int{}, table[prev]...), k)
			seq = entry
			if len(table) < 1<<maxWidth {
				table = append(table, entry)
			}
		default:
			return nil, fmt.Errorf("gif: invalid lzw code %d (table length %d)", code, len(table))
		}

		output = append(output, seq...)

		if len(table) == 1<<uint(width) && width < maxWidth {
			width++
		}

		prev = code
	}

	if !bc.AtEnd() {
		return nil, rs.ErrUnexpectedTrailingBit
	}

	return output, nil
}
