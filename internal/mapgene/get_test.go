package mapgene

import (
	"encoding/json"
	"testing"

	"github.com/voxov/voxov/internal/store/doc"
)

func TestGetArgUnmarshalIndexedRange(t *testing.T) {
	var a GetArg
	err := json.Unmarshal([]byte(`{"_0":{"0":1,"1":10},"_ns":"notes"}`), &a)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if a.Idx[0] == nil || a.Idx[0].Lo == nil || *a.Idx[0].Lo != 1 || a.Idx[0].Hi == nil || *a.Idx[0].Hi != 10 {
		t.Fatalf("indexed range not parsed: %+v", a.Idx[0])
	}
	if a.Ns == nil || *a.Ns != "notes" {
		t.Fatalf("ns not parsed: %v", a.Ns)
	}
}

func TestGetArgUnmarshalPlainFields(t *testing.T) {
	var a GetArg
	if err := json.Unmarshal([]byte(`{"_id":"abc","_uid":"def"}`), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if a.Id == nil || *a.Id != "abc" {
		t.Fatalf("id not parsed: %v", a.Id)
	}
	if a.Uid == nil || *a.Uid != "def" {
		t.Fatalf("uid not parsed: %v", a.Uid)
	}
}

func TestApplyRangeEqualityWhenOnlyLo(t *testing.T) {
	var f doc.Filter
	lo := 3.0
	applyRange(&f, "_tip", &numRange{Lo: &lo})
	where, args := f.Build()
	if where == "" || len(args) != 1 {
		t.Fatalf("expected one condition, got %q %v", where, args)
	}
}

func TestApplyRangeBothBounds(t *testing.T) {
	var f doc.Filter
	lo, hi := 1.0, 5.0
	applyRange(&f, "_tip", &numRange{Lo: &lo, Hi: &hi})
	where, args := f.Build()
	if where == "" || len(args) != 2 {
		t.Fatalf("expected two conditions, got %q %v", where, args)
	}
}

func TestFormatNumInteger(t *testing.T) {
	if got := formatNum(3.0); got != "3" {
		t.Fatalf("expected 3, got %s", got)
	}
}

func TestFormatNumFloat(t *testing.T) {
	if got := formatNum(3.5); got != "3.5" {
		t.Fatalf("expected 3.5, got %s", got)
	}
}

func TestItoa(t *testing.T) {
	cases := map[int]string{0: "0", 1: "1", 9: "9", 10: "10", 123: "123"}
	for in, want := range cases {
		if got := itoa(in); got != want {
			t.Fatalf("itoa(%d) = %s, want %s", in, got, want)
		}
	}
}
