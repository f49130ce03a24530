package doc

import "testing"

func TestFilterByUid(t *testing.T) {
	var f Filter
	f.ByUid("alice")
	where, args := f.Build()
	if where != "uid = $1" {
		t.Fatalf("got %q", where)
	}
	if len(args) != 1 || args[0] != "alice" {
		t.Fatalf("got %v", args)
	}
}

func TestFilterChainShiftsPlaceholders(t *testing.T) {
	var f Filter
	f.ByUid("alice")
	f.ByNamespace("_chan")
	where, args := f.Build()
	want := "uid = $1 AND ns = $2"
	if where != want {
		t.Fatalf("got %q want %q", where, want)
	}
	if len(args) != 2 || args[0] != "alice" || args[1] != "_chan" {
		t.Fatalf("got %v", args)
	}
}

func TestFilterRangeBothBounds(t *testing.T) {
	lo, hi := 1.0, 10.0
	var f Filter
	f.FieldRange("_0", &lo, &hi)
	where, args := f.Build()
	if len(args) != 2 {
		t.Fatalf("expected two bound args, got %v", args)
	}
	if where == "" {
		t.Fatalf("expected non-empty where clause")
	}
}

func TestFilterGeoSphereUsesThreeArgs(t *testing.T) {
	var f Filter
	f.ByUid("alice")
	f.GeoSphere(37.7, -122.4, 5000)
	_, args := f.Build()
	if len(args) != 4 {
		t.Fatalf("expected 1 (uid) + 3 (geo) args, got %d: %v", len(args), args)
	}
}

func TestFilterEmptyBuild(t *testing.T) {
	var f Filter
	where, args := f.Build()
	if where != "" || args != nil {
		t.Fatalf("expected empty filter to produce no clause, got %q %v", where, args)
	}
}
