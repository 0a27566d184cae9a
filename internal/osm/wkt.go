package osm

import (
	"strconv"
	"strings"
)

// WKTPoint renders a node's location as a WKT Point literal, longitude
// first, matching the axis order the converter and the geo:asWKT triples
// both use: "POINT(lon lat)".
func WKTPoint(loc Location) string {
	var b strings.Builder
	b.WriteString("POINT(")
	b.WriteString(loc.LonText)
	b.WriteByte(' ')
	b.WriteString(loc.LatText)
	b.WriteByte(')')
	return b.String()
}

// ParseWKTPoint parses a "POINT(lon lat)" literal (optionally carrying a
// trailing "^^geo:wktLiteral" or similar datatype suffix, which is ignored)
// back into a Location. It is the inverse of WKTPoint for the subset of WKT
// this system ever needs to read back: plain points.
func ParseWKTPoint(s string) (Location, bool) {
	s = strings.TrimSpace(s)
	if caret := strings.Index(s, "^^"); caret >= 0 {
		s = strings.TrimSpace(s[:caret])
	}
	s = strings.Trim(s, "\"")
	const prefix = "POINT("
	if !strings.HasPrefix(s, prefix) || !strings.HasSuffix(s, ")") {
		return Location{}, false
	}
	inner := s[len(prefix) : len(s)-1]
	parts := strings.Fields(inner)
	if len(parts) != 2 {
		return Location{}, false
	}
	if _, err := strconv.ParseFloat(parts[0], 64); err != nil {
		return Location{}, false
	}
	if _, err := strconv.ParseFloat(parts[1], 64); err != nil {
		return Location{}, false
	}
	return Location{LonText: parts[0], LatText: parts[1]}, true
}
