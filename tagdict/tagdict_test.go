package tagdict

import "testing"

func TestLookupKnownTag(t *testing.T) {
	d := New()
	e, ok := d.Lookup(274)
	if !ok || e.Name != "Orientation" {
		t.Fatalf("Lookup(274) = %+v, %v; want Orientation", e, ok)
	}
}

func TestLookupFirstMatchWins(t *testing.T) {
	d := New()
	e, ok := d.Lookup(33434)
	if !ok || e.Namespace != "Image" {
		t.Fatalf("Lookup(33434) = %+v; want first match in Image namespace", e)
	}
}

func TestLookupUnknownTag(t *testing.T) {
	d := New()
	if _, ok := d.Lookup(0xFFFF); ok {
		t.Fatalf("Lookup(0xFFFF) should not resolve")
	}
}

func TestAddNamespaceExtendsOrder(t *testing.T) {
	d := New()
	d.AddNamespace("Custom", map[uint16]Entry{
		1:     {"Custom", "Shadowed", "also defined by a built-in namespace"},
		60000: {"Custom", "Thing", "a custom tag"},
	})
	e, ok := d.Lookup(60000)
	if !ok || e.Name != "Thing" {
		t.Fatalf("Lookup(60000) after AddNamespace = %+v, %v", e, ok)
	}
	// The new namespace is appended after the built-ins, so a tag they
	// already define still resolves to the built-in entry.
	e, ok = d.Lookup(1)
	if !ok || e.Namespace != "Iop" {
		t.Fatalf("Lookup(1) after AddNamespace = %+v, %v; want the Iop entry", e, ok)
	}
}
