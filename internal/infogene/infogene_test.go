package infogene

import (
	"encoding/json"
	"testing"

	"github.com/voxov/voxov/internal/config"
)

func TestBuildEncodesRatesAndGenes(t *testing.T) {
	cfg := &config.Config{Maintainer: "ops@example.com", TimeCost: 1, SpaceCostDoc: 2, SpaceCostObj: 3, TrafficCost: 4}
	payload, err := Build(cfg, []string{"map_1", "msg_1", "info_1"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	var got info
	if err := json.Unmarshal([]byte(payload), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Maintainer != "ops@example.com" {
		t.Fatalf("maintainer mismatch: %+v", got)
	}
	if got.Rates.SpaceObj != 3 {
		t.Fatalf("rates mismatch: %+v", got.Rates)
	}
	if len(got.Genes) != 3 {
		t.Fatalf("genes mismatch: %v", got.Genes)
	}
}

func TestDispatchIgnoresInputs(t *testing.T) {
	fn := Dispatch(`{"ok":true}`)
	out, err := fn("any-uid", "any-arg")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if out != `{"ok":true}` {
		t.Fatalf("expected fixed payload, got %s", out)
	}
}
