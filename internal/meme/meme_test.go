package meme

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/voxov/voxov/internal/costmodel"
	"github.com/voxov/voxov/internal/gene"
	"github.com/voxov/voxov/internal/ids"
	"github.com/voxov/voxov/internal/voerr"
)

func TestMetaRoundTrip(t *testing.T) {
	m := Meta{Uid: "u1", Oid: 7, Hash: "abc", Size: 100, Public: true, Tip: 5, Eol: 123}
	body, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Meta
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != m {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, m)
	}
}

func TestMemePutRejectsZeroDays(t *testing.T) {
	g := &gene.Ctx{Uid: ids.MustNew(), Costs: costmodel.Costs{Traffic: 1000, Space: 1000}}
	_, err := MemePut(context.Background(), g, nil, nil, costmodel.Rates{}, 0, strings.NewReader("x"))
	if !voerr.Is(err, voerr.ApiParseNum) {
		t.Fatalf("expected ApiParseNum, got %v", err)
	}
}

func TestMemePutRejectsInsufficientTrafficGuard(t *testing.T) {
	g := &gene.Ctx{Uid: ids.MustNew(), Costs: costmodel.Costs{Traffic: 1, Space: 1000}}
	rates := costmodel.Rates{SpaceObj: 1}
	_, err := MemePut(context.Background(), g, nil, nil, rates, 1, strings.NewReader("x"))
	if !voerr.Is(err, voerr.CostTraffic) {
		t.Fatalf("expected CostTraffic, got %v", err)
	}
}
