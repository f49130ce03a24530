// Package ripper implements the background reaper: a single periodic task
// that deletes expired meme objects/metadata and map documents by eol, and
// prunes credit log entries past their retention window. Errors are
// logged, not fatal; one failed sweep does not stop the next.
package ripper

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/voxov/voxov/internal/store/doc"
	"github.com/voxov/voxov/internal/store/object"
)

// Config controls sweep cadence and batch size.
type Config struct {
	Disabled          bool
	Interval          time.Duration
	SweepLimit        int
	CreditLogRetention time.Duration
}

// Ripper owns the document and object stores it sweeps.
type Ripper struct {
	docs   *doc.Store
	objs   *object.Store
	logger *slog.Logger
	cfg    Config
}

// New constructs a Ripper. Run it on exactly one cluster member.
func New(docs *doc.Store, objs *object.Store, logger *slog.Logger, cfg Config) *Ripper {
	return &Ripper{docs: docs, objs: objs, logger: logger, cfg: cfg}
}

// Run loops sweeping every Interval until ctx is cancelled. It returns
// immediately if the ripper is disabled for this instance.
func (r *Ripper) Run(ctx context.Context) {
	if r.cfg.Disabled {
		return
	}
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweepOnce(ctx)
		}
	}
}

// sweepOnce runs the three collection sweeps concurrently: they touch
// disjoint tables and share nothing but the context, so one slow sweep
// never delays the others. Each sweep logs its own failure; none is
// allowed to cancel the others.
func (r *Ripper) sweepOnce(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error {
		if err := r.ripMeme(ctx); err != nil {
			r.logger.Error("ripper: meme sweep failed", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := r.ripMap1(ctx); err != nil {
			r.logger.Error("ripper: map1 sweep failed", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := r.ripCreditLog(ctx); err != nil {
			r.logger.Error("ripper: credit log sweep failed", "error", err)
		}
		return nil
	})
	_ = g.Wait()
}

type memeMeta struct {
	Oid uint32 `json:"oid"`
}

// ripMeme deletes the object before its metadata row, to prevent orphaned
// bytes from lingering if the process crashes mid-sweep.
func (r *Ripper) ripMeme(ctx context.Context) error {
	rows, err := r.docs.ExpiredBefore(ctx, doc.MemeMeta, time.Now(), r.cfg.SweepLimit)
	if err != nil {
		return err
	}
	for _, row := range rows {
		var m memeMeta
		if err := json.Unmarshal(row.Body, &m); err != nil {
			r.logger.Error("ripper: malformed meme metadata", "id", row.ID, "error", err)
			continue
		}
		if err := r.objs.Delete(ctx, m.Oid); err != nil {
			r.logger.Error("ripper: deleting meme object", "id", row.ID, "oid", m.Oid, "error", err)
			continue
		}
		if _, err := r.docs.DeleteByID(ctx, doc.MemeMeta, row.ID); err != nil {
			r.logger.Error("ripper: deleting meme metadata", "id", row.ID, "error", err)
		}
	}
	return nil
}

// ripMap1 deletes map documents by eol.
func (r *Ripper) ripMap1(ctx context.Context) error {
	rows, err := r.docs.ExpiredBefore(ctx, doc.Map1, time.Now(), r.cfg.SweepLimit)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := r.docs.DeleteByID(ctx, doc.Map1, row.ID); err != nil {
			r.logger.Error("ripper: deleting map document", "id", row.ID, "error", err)
		}
	}
	return nil
}

// ripCreditLog prunes log entries older than the configured retention
// window. The ledger's balances live in the KV store and are never
// affected; this only trims the append-only audit trail.
func (r *Ripper) ripCreditLog(ctx context.Context) error {
	cutoff := time.Now().Add(-r.cfg.CreditLogRetention).Unix()
	rows, err := r.docs.OlderThan(ctx, doc.CreditLog, "at", cutoff, r.cfg.SweepLimit)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := r.docs.DeleteByID(ctx, doc.CreditLog, row.ID); err != nil {
			r.logger.Error("ripper: deleting credit log entry", "id", row.ID, "error", err)
		}
	}
	return nil
}
