// Package gene implements the Gene layer: dispatch by gene id to a
// registered operation, and the common refund/error accounting every
// operation is wrapped in.
package gene

import (
	"context"
	"fmt"
	"time"

	"github.com/voxov/voxov/internal/audit"
	"github.com/voxov/voxov/internal/costlayer"
	"github.com/voxov/voxov/internal/costmodel"
	"github.com/voxov/voxov/internal/ids"
	"github.com/voxov/voxov/internal/voerr"
)

// Ctx is handed to every gene operation. It carries the live remaining
// budget and exposes the three refund primitives operations use to account
// for their own work.
type Ctx struct {
	Uid       ids.Id
	Costs     costmodel.Costs
	Deadline  time.Time
	Ledger    *audit.Ledger
	Rates     costmodel.Rates
	refunded  bool
}

// Traffic subtracts n bytes' worth of traffic cost from the remaining
// budget, failing CostTraffic if that would make it negative.
func (g *Ctx) Traffic(n int64) error {
	cost := n * g.Rates.Traffic
	if g.Costs.Traffic-cost < 0 {
		return voerr.New(voerr.CostTraffic)
	}
	g.Costs.Traffic -= cost
	return nil
}

// Time recomputes the time budget from the remaining headroom to the
// deadline, failing CostTime if the deadline has already passed.
func (g *Ctx) Time() error {
	remaining := time.Until(g.Deadline)
	if remaining < 0 {
		g.Costs.Time = 0
		return voerr.New(voerr.CostTime)
	}
	g.Costs.Time = remaining.Milliseconds() * g.Rates.Time
	return nil
}

// Refund credits the caller with the current Costs.Sum() and marks this
// context as refunded, so the outer dispatch does not refund it again.
func (g *Ctx) Refund(ctx context.Context) error {
	sum := g.Costs.Sum()
	g.refunded = true
	if sum <= 0 {
		return nil
	}
	if err := g.Ledger.IncrCredit(ctx, g.Uid, sum, "CostRefund"); err != nil {
		return err
	}
	return nil
}

// Func is a registered gene operation. arg is the raw gene argument string
// (typically JSON); the return value is the raw result string to place in
// the response body.
type Func func(ctx context.Context, g *Ctx, arg string) (string, error)

// Registry holds gene operations keyed by gene id (e.g. "map_1", "msg_1").
type Registry struct {
	genes map[string]Func
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{genes: make(map[string]Func)}
}

// Register adds an operation under gid. A second registration under the
// same gid replaces the first.
func (r *Registry) Register(gid string, fn Func) {
	r.genes[gid] = fn
}

// Dispatch runs the operation registered under gid, applying the common
// refund/error protocol:
//
//   - On success, if the operation did not call Refund itself, the outer
//     layer refunds whatever budget remains.
//   - On error, the outer layer recomputes the time dimension from the
//     remaining headroom and refunds the full current Costs -- a failed
//     operation forfeits only the time it actually consumed.
func (r *Registry) Dispatch(ctx context.Context, gid string, uid ids.Id, reservation costlayer.Reservation, ledger *audit.Ledger, rates costmodel.Rates, arg string) (string, costmodel.Costs, error) {
	fn, ok := r.genes[gid]
	if !ok {
		return "", costmodel.Costs{}, voerr.New(voerr.ApiUnknownQueryType)
	}

	g := &Ctx{
		Uid:      uid,
		Costs:    reservation.Remaining,
		Deadline: reservation.Deadline,
		Ledger:   ledger,
		Rates:    rates,
	}

	result, opErr := fn(ctx, g, arg)
	if opErr != nil {
		_ = g.Time()
		if refundErr := g.Refund(ctx); refundErr != nil {
			return "", g.Costs, fmt.Errorf("refunding after gene error: %w", refundErr)
		}
		return "", g.Costs, opErr
	}

	if !g.refunded {
		if err := g.Refund(ctx); err != nil {
			return "", g.Costs, err
		}
	}
	return result, g.Costs, nil
}
