package osm

import "testing"

func TestClassifyAction(t *testing.T) {
	cases := []struct {
		name string
		meta Meta
		want Action
	}{
		{"deleted always wins", Meta{Deleted: true, Version: 5}, ActionDelete},
		{"version 1 is create", Meta{Version: 1}, ActionCreate},
		{"version >1 is modify", Meta{Version: 2}, ActionModify},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ClassifyAction(c.meta); got != c.want {
				t.Fatalf("ClassifyAction(%+v) = %v, want %v", c.meta, got, c.want)
			}
		})
	}
}

func TestLocationEqualNormalizesTrailingZeros(t *testing.T) {
	a := Location{LonText: "7.8500000", LatText: "48.0000000"}
	b := Location{LonText: "7.85", LatText: "48"}
	if !a.Equal(b) {
		t.Fatalf("expected %+v to equal %+v after normalization", a, b)
	}

	c := Location{LonText: "7.851", LatText: "48"}
	if a.Equal(c) {
		t.Fatalf("expected %+v not to equal %+v", a, c)
	}
}

func TestLocationEqualNegative(t *testing.T) {
	a := Location{LonText: "-7.850", LatText: "-0.000"}
	b := Location{LonText: "-7.85", LatText: "0"}
	if !a.Equal(b) {
		t.Fatalf("expected %+v to equal %+v", a, b)
	}
}

func TestWayMembersEqual(t *testing.T) {
	a := WayMembers{1, 2, 3}
	b := WayMembers{1, 2, 3}
	c := WayMembers{1, 3, 2}
	if !a.Equal(b) {
		t.Fatal("expected equal member lists to compare equal")
	}
	if a.Equal(c) {
		t.Fatal("expected order-sensitive comparison to reject reordered members")
	}
}

func TestRelationMembersEqual(t *testing.T) {
	a := RelationMembers{{ID: 1, Kind: KindNode, Role: "outer"}}
	b := RelationMembers{{ID: 1, Kind: KindNode, Role: "outer"}}
	c := RelationMembers{{ID: 1, Kind: KindNode, Role: "inner"}}
	if !a.Equal(b) {
		t.Fatal("expected equal relation member lists to compare equal")
	}
	if a.Equal(c) {
		t.Fatal("expected role difference to break equality")
	}
}

func TestTypeTagValueAndMultipolygon(t *testing.T) {
	tags := []Tag{{Key: "name", Value: "x"}, {Key: "type", Value: "multipolygon"}}
	if got := TypeTagValue(tags); got != "multipolygon" {
		t.Fatalf("TypeTagValue = %q, want multipolygon", got)
	}
	if !IsMultipolygonType("multipolygon") || !IsMultipolygonType("boundary") {
		t.Fatal("expected multipolygon and boundary to be area types")
	}
	if IsMultipolygonType("route") {
		t.Fatal("route should not be an area type")
	}
	if got := TypeTagValue(nil); got != "" {
		t.Fatalf("TypeTagValue(nil) = %q, want empty", got)
	}
}
