package rasterspan

import "testing"

func TestSpanValid(t *testing.T) {
	cases := []struct {
		s      Span
		bufLen int
		want   bool
	}{
		{Span{0, 0}, 0, true},
		{Span{0, 5}, 5, true},
		{Span{2, 1}, 5, false},
		{Span{0, 6}, 5, false},
		{Span{-1, 1}, 5, false},
	}
	for _, c := range cases {
		if got := c.s.Valid(c.bufLen); got != c.want {
			t.Errorf("Span%+v.Valid(%d) = %v; want %v", c.s, c.bufLen, got, c.want)
		}
	}
}

func TestSpanBytesAndString(t *testing.T) {
	buf := []byte("hello world")
	s := Span{Start: 6, End: 11}
	if got := string(s.Bytes(buf)); got != "world" {
		t.Fatalf("Bytes() = %q; want %q", got, "world")
	}
	if got := s.String(buf); got != "world" {
		t.Fatalf("String() = %q; want %q", got, "world")
	}
}
