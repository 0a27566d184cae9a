package osm

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError reports a malformed identifier or sequence number, with enough
// context to surface directly in a diagnostic.
type ParseError struct {
	Input string
	Kind  string // what we expected, e.g. "osm object IRI"
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed %s: %q", e.Kind, e.Input)
}

// kindByIRI and kindByPrefix map the known IRI stems and SPARQL prefixed-name
// prefixes to their Kind. Each entry carries its trailing "/" or ":", so a
// prefix match never stops partway through a longer name.
var kindByIRI = []struct {
	stem string
	kind Kind
}{
	{NamespaceOSMNode, KindNode},
	{NamespaceOSMWay, KindWay},
	{NamespaceOSMRel, KindRelation},
}

var kindByPrefix = []struct {
	prefix string
	kind   Kind
}{
	{PrefixOSMNode + ":", KindNode},
	{PrefixOSMWay + ":", KindWay},
	{PrefixOSMRel + ":", KindRelation},
}

// trimWrapping strips the `<...>` IRI wrapping or a surrounding pair of `"`
// quotes that a SPARQL JSON result or a raw query fragment may carry.
func trimWrapping(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '<' && s[len(s)-1] == '>' {
		return s[1 : len(s)-1]
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// ParseIdentifier recognizes an OSM object reference in any of the three
// forms this system encounters: a full IRI ("https://www.openstreetmap.org/
// way/123"), optionally angle-bracket wrapped, or a SPARQL prefixed name
// ("osmway:123"). It returns the object's Kind and numeric ID.
func ParseIdentifier(raw string) (Kind, ID, error) {
	s := trimWrapping(raw)

	for _, pfx := range kindByPrefix {
		if strings.HasPrefix(s, pfx.prefix) {
			n, err := strconv.ParseInt(s[len(pfx.prefix):], 10, 64)
			if err != nil {
				return 0, 0, &ParseError{Input: raw, Kind: "osm object prefixed name"}
			}
			return pfx.kind, ID(n), nil
		}
	}
	for _, stem := range kindByIRI {
		if strings.HasPrefix(s, stem.stem) {
			n, err := strconv.ParseInt(s[len(stem.stem):], 10, 64)
			if err != nil {
				return 0, 0, &ParseError{Input: raw, Kind: "osm object IRI"}
			}
			return stem.kind, ID(n), nil
		}
	}
	return 0, 0, &ParseError{Input: raw, Kind: "osm object reference"}
}

// IRI renders the canonical full IRI for an object of the given kind and id.
func IRI(k Kind, id ID) string {
	return NamespaceForKind(k) + strconv.FormatInt(int64(id), 10)
}

// WrappedIRI renders IRI wrapped in angle brackets, as it appears in SPARQL
// query bodies.
func WrappedIRI(k Kind, id ID) string {
	return "<" + IRI(k, id) + ">"
}

// QName renders the prefixed-name form of an object reference, e.g.
// "osmway:123".
func QName(k Kind, id ID) string {
	return PrefixForKind(k) + ":" + strconv.FormatInt(int64(id), 10)
}

// FormatSequenceNumber renders a replication sequence number in the
// slash-grouped, zero-padded form the replication server's directory layout
// uses: "123456789" -> "123/456/789" (spec.md §4.1). The layout's sequence
// field is 9 digits wide; seq outside [0, 999999999] is rejected rather
// than clamped or silently truncated.
func FormatSequenceNumber(seq int64) (string, error) {
	if seq < 0 || seq > 999999999 {
		return "", fmt.Errorf("sequence number %d is out of the representable 9-digit range", seq)
	}
	padded := fmt.Sprintf("%09d", seq)
	return padded[0:3] + "/" + padded[3:6] + "/" + padded[6:9], nil
}

// ParseSequenceNumber parses a "123/456/789" or plain "123456789" directory
// path fragment back into a sequence number.
func ParseSequenceNumber(s string) (int64, error) {
	s = strings.TrimSpace(s)
	digits := strings.ReplaceAll(s, "/", "")
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, &ParseError{Input: s, Kind: "replication sequence number"}
	}
	return n, nil
}
