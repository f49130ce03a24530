package transport

import (
	"net/http/httptest"
	"testing"

	"github.com/voxov/voxov/internal/ids"
	"github.com/voxov/voxov/internal/voerr"
)

func TestParseMissingTypeFails(t *testing.T) {
	r := httptest.NewRequest("POST", "/", nil)
	_, err := Parse(r)
	if !voerr.Is(err, voerr.ApiMissingQueryType) {
		t.Fatalf("expected ApiMissingQueryType, got %v", err)
	}
}

func TestParseCostsAndGid(t *testing.T) {
	r := httptest.NewRequest("POST", "/", nil)
	r.Header.Set("type", "Gene")
	r.Header.Set("gid", "map_1")
	r.Header.Set("arg", `{"_type":"Get"}`)
	r.Header.Set("time", "10")
	r.Header.Set("space", "20")
	r.Header.Set("traffic", "30")
	r.Header.Set("tip", "5")

	req, err := Parse(r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if req.Type != "Gene" {
		t.Fatalf("type mismatch: %s", req.Type)
	}
	gid, err := req.RequireGid()
	if err != nil || gid != "map_1" {
		t.Fatalf("gid: %v %v", gid, err)
	}
	if req.Costs.Time != 10 || req.Costs.Space != 20 || req.Costs.Traffic != 30 || req.Costs.Tip != 5 {
		t.Fatalf("costs mismatch: %+v", req.Costs)
	}
}

func TestParseBadAccessId(t *testing.T) {
	r := httptest.NewRequest("POST", "/", nil)
	r.Header.Set("type", "CostGet")
	r.Header.Set("access", "not-hex")
	_, err := Parse(r)
	if !voerr.Is(err, voerr.ApiParseId) {
		t.Fatalf("expected ApiParseId, got %v", err)
	}
}

func TestRequireAccessMissing(t *testing.T) {
	req := &Request{}
	_, err := req.RequireAccess()
	if !voerr.Is(err, voerr.ApiMissingEntry) {
		t.Fatalf("expected ApiMissingEntry, got %v", err)
	}
}

func TestRequireArgDefaultsToEmptyObject(t *testing.T) {
	req := &Request{}
	if got := req.RequireArg(); got != "{}" {
		t.Fatalf("expected {}, got %s", got)
	}
}

func TestRequireHashValidatesFormat(t *testing.T) {
	req := &Request{}
	if _, err := req.RequireHash(); !voerr.Is(err, voerr.ApiParseHash) {
		t.Fatalf("expected ApiParseHash for missing hash, got %v", err)
	}

	h := ids.SumHash([]byte("hello")).String()
	req2 := &Request{Hash: &h}
	got, err := req2.RequireHash()
	if err != nil || got != h {
		t.Fatalf("expected valid hash round trip, got %v %v", got, err)
	}
}
