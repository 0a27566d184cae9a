package osm

import "testing"

func TestWKTPointRoundTrip(t *testing.T) {
	loc := Location{LonText: "7.85", LatText: "48.0"}
	s := WKTPoint(loc)
	if s != "POINT(7.85 48.0)" {
		t.Fatalf("WKTPoint = %q, want POINT(7.85 48.0)", s)
	}
	got, ok := ParseWKTPoint(s)
	if !ok {
		t.Fatalf("ParseWKTPoint(%q) failed", s)
	}
	if !got.Equal(loc) {
		t.Fatalf("round trip = %+v, want %+v", got, loc)
	}
}

func TestParseWKTPointWithDatatypeSuffix(t *testing.T) {
	got, ok := ParseWKTPoint(`"POINT(7.85 48.0)"^^geo:wktLiteral`)
	if !ok {
		t.Fatal("expected parse to succeed with datatype suffix")
	}
	want := Location{LonText: "7.85", LatText: "48.0"}
	if !got.Equal(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestParseWKTPointInvalid(t *testing.T) {
	cases := []string{"", "POINT(1)", "LINESTRING(1 2, 3 4)", "POINT(a b)"}
	for _, c := range cases {
		if _, ok := ParseWKTPoint(c); ok {
			t.Fatalf("ParseWKTPoint(%q): expected failure", c)
		}
	}
}
