package gene

import (
	"context"
	"testing"
	"time"

	"github.com/voxov/voxov/internal/costlayer"
	"github.com/voxov/voxov/internal/costmodel"
	"github.com/voxov/voxov/internal/ids"
	"github.com/voxov/voxov/internal/voerr"
)

func TestTrafficDeductsAndFails(t *testing.T) {
	g := &Ctx{Costs: costmodel.Costs{Traffic: 100}, Rates: costmodel.Rates{Traffic: 2}}
	if err := g.Traffic(10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Costs.Traffic != 80 {
		t.Fatalf("got %d want 80", g.Costs.Traffic)
	}
	if err := g.Traffic(1000); !voerr.Is(err, voerr.CostTraffic) {
		t.Fatalf("expected CostTraffic, got %v", err)
	}
}

func TestTimeFailsPastDeadline(t *testing.T) {
	g := &Ctx{Deadline: time.Now().Add(-time.Second)}
	err := g.Time()
	if !voerr.Is(err, voerr.CostTime) {
		t.Fatalf("expected CostTime, got %v", err)
	}
	if g.Costs.Time != 0 {
		t.Fatalf("expected zeroed time budget, got %d", g.Costs.Time)
	}
}

func TestTimeComputesFromHeadroom(t *testing.T) {
	g := &Ctx{Deadline: time.Now().Add(2 * time.Second), Rates: costmodel.Rates{Time: 1}}
	if err := g.Time(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Costs.Time <= 0 {
		t.Fatalf("expected positive remaining time budget, got %d", g.Costs.Time)
	}
}

func TestRefundZeroSumSkipsLedger(t *testing.T) {
	g := &Ctx{Costs: costmodel.Costs{}}
	if err := g.Refund(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !g.refunded {
		t.Fatalf("expected refunded flag to be set")
	}
}

func TestDispatchUnknownGeneId(t *testing.T) {
	r := NewRegistry()
	_, _, err := r.Dispatch(context.Background(), "nope", ids.MustNew(), costlayer.Reservation{}, nil, costmodel.Rates{}, "")
	if !voerr.Is(err, voerr.ApiUnknownQueryType) {
		t.Fatalf("expected ApiUnknownQueryType, got %v", err)
	}
}

func TestDispatchSuccessWithZeroRemainderSkipsLedger(t *testing.T) {
	r := NewRegistry()
	r.Register("noop", func(ctx context.Context, g *Ctx, arg string) (string, error) {
		return "ok", nil
	})
	result, remainder, err := r.Dispatch(context.Background(), "noop", ids.MustNew(), costlayer.Reservation{}, nil, costmodel.Rates{}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Fatalf("got %q", result)
	}
	if !remainder.IsZero() {
		t.Fatalf("expected zero remainder, got %+v", remainder)
	}
}
