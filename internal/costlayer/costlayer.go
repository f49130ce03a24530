// Package costlayer implements the Cost layer: direct handling of the
// administrative CostGet/CostPay/CostCheckIn requests, and the pessimistic
// debit-then-refund reservation for every billable request.
package costlayer

import (
	"context"
	"fmt"
	"time"

	"github.com/voxov/voxov/internal/audit"
	"github.com/voxov/voxov/internal/costmodel"
	"github.com/voxov/voxov/internal/ids"
	"github.com/voxov/voxov/internal/store/kv"
	"github.com/voxov/voxov/internal/voerr"
)

// Config is the subset of the gateway configuration the Cost layer needs.
type Config struct {
	CreditLimit    int64
	Rates          costmodel.Rates
	CheckInAward   int64
	CheckInRefresh time.Duration
}

// Cost is the Cost layer.
type Cost struct {
	kv     *kv.Store
	ledger *audit.Ledger
	cfg    Config
}

// New creates the Cost layer.
func New(kvStore *kv.Store, ledger *audit.Ledger, cfg Config) *Cost {
	return &Cost{kv: kvStore, ledger: ledger, cfg: cfg}
}

// Get reads uid's current credit balance.
func (c *Cost) Get(ctx context.Context, uid ids.Id) (int64, error) {
	return c.ledger.Balance(ctx, uid)
}

// Pay returns a vendor URI the client should be redirected to for a
// top-up; payment processing itself is outside the gateway's scope.
func (c *Cost) Pay(ctx context.Context, vendor ids.Id) (string, error) {
	return fmt.Sprintf("https://pay.example/v1/checkout?vendor=%s", vendor.String()), nil
}

// CheckIn atomically bumps uid's daily check-in counter. ExpireXX renews
// the counter's TTL on every increment once it has one, so each repeat
// check-in within the cooldown window restarts the window. A counter
// transition from 0 to 1 means this is the first check-in since the TTL
// last expired: the TTL is then set with Expire and the award credited;
// any later increment within the window fails CheckInTooEarly.
func (c *Cost) CheckIn(ctx context.Context, uid ids.Id) (int64, error) {
	key := kv.Key(kv.Uid2CheckIn, uid)
	n, err := c.kv.Incr(ctx, key)
	if err != nil {
		return 0, err
	}
	if _, err := c.kv.ExpireXX(ctx, key, c.cfg.CheckInRefresh); err != nil {
		return 0, err
	}
	if n != 1 {
		return 0, voerr.New(voerr.CostCheckInTooEarly)
	}
	if err := c.kv.Expire(ctx, key, c.cfg.CheckInRefresh); err != nil {
		return 0, err
	}
	if err := c.ledger.IncrCredit(ctx, uid, c.cfg.CheckInAward, "CheckIn"); err != nil {
		return 0, err
	}
	return c.cfg.CheckInAward, nil
}

// Reservation is the state Cost hands to Fed: the remaining budget and the
// absolute deadline the request must complete by.
type Reservation struct {
	Remaining costmodel.Costs
	Deadline  time.Time
}

// Reserve debits uid's balance by the full declared budget up front
// (pessimistic reservation) and computes the request deadline from the
// time dimension. The full Costs value is returned as the remaining
// budget; downstream layers decrement it as work happens.
func (c *Cost) Reserve(ctx context.Context, uid ids.Id, costs costmodel.Costs) (Reservation, error) {
	sum := costs.Sum()
	if sum < 0 {
		return Reservation{}, voerr.New(voerr.NumCheck)
	}
	if err := c.ledger.DecrCredit(ctx, uid, sum, c.cfg.CreditLimit, "CostReserve"); err != nil {
		return Reservation{}, err
	}

	deadline := time.Now().Add(time.Duration(costs.Time) * time.Millisecond / timeUnitsPerMs(c.cfg.Rates.Time))
	return Reservation{Remaining: costs, Deadline: deadline}, nil
}

// timeUnitsPerMs guards against a zero/negative configured rate, which
// would make every deadline computation divide by zero.
func timeUnitsPerMs(rate int64) time.Duration {
	if rate <= 0 {
		return 1
	}
	return time.Duration(rate)
}
