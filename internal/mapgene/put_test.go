package mapgene

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/voxov/voxov/internal/gene"
)

func TestPutArgUnmarshalSplitsReservedAndIndexed(t *testing.T) {
	var p PutArg
	err := json.Unmarshal([]byte(`{"_eol":123,"_tip":5,"_ns":"notes","_0":"x","title":"hi"}`), &p)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Eol != 123 || p.Tip != 5 || p.Ns != "notes" {
		t.Fatalf("reserved fields not parsed: %+v", p)
	}
	if string(p.Idx[0]) != `"x"` {
		t.Fatalf("indexed field not parsed: %v", p.Idx[0])
	}
	if string(p.Fields["title"]) != `"hi"` {
		t.Fatalf("user field not parsed: %v", p.Fields)
	}
}

func TestPutArgUnmarshalId(t *testing.T) {
	var p PutArg
	if err := json.Unmarshal([]byte(`{"_id":"doc1","_eol":1}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Id == nil || *p.Id != "doc1" {
		t.Fatalf("expected id doc1, got %v", p.Id)
	}
}

func TestRefundOldSpaceZeroWhenExpired(t *testing.T) {
	g := &gene.Ctx{}
	now := time.Now()
	old := Document{Size: 4096, Eol: now.Add(-time.Hour).Unix()}
	refundOldSpace(g, old, 1, now)
	if g.Costs.Space != 0 {
		t.Fatalf("expected no refund for already-expired doc, got %d", g.Costs.Space)
	}
}

func TestRefundOldSpaceComputesRemainingDays(t *testing.T) {
	g := &gene.Ctx{}
	// Eol is stored in whole seconds, so now is truncated to match and the
	// document has exactly 3 days left.
	now := time.Unix(time.Now().Unix(), 0)
	old := Document{Size: 2048, Eol: now.Add(3 * 24 * time.Hour).Unix()}
	refundOldSpace(g, old, 10, now)
	if g.Costs.Space != 60 {
		t.Fatalf("expected refund 60 (2kb * 3 days * rate 10), got %d", g.Costs.Space)
	}
}
