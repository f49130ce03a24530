// Package meme implements the MemeMeta/MemePut/MemeGet operations: a
// content-addressed blob store layered over internal/store/object (bytes)
// and internal/store/doc's "mm" collection (metadata). Unlike map_1/msg_1,
// these are top-level request types, not gid-dispatched genes, since
// MemePut/MemeGet stream raw bytes rather than exchanging a JSON arg/result
// pair.
package meme

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/voxov/voxov/internal/audit"
	"github.com/voxov/voxov/internal/costmodel"
	"github.com/voxov/voxov/internal/gene"
	"github.com/voxov/voxov/internal/ids"
	"github.com/voxov/voxov/internal/store/doc"
	"github.com/voxov/voxov/internal/store/object"
	"github.com/voxov/voxov/internal/voerr"
)

// Meta is a meme's metadata document, stored in the "mm" collection.
type Meta struct {
	Uid    string `json:"uid"`
	Oid    uint32 `json:"oid"`
	Hash   string `json:"hash"`
	Size   int64  `json:"size"`
	Public bool   `json:"public"`
	Tip    int64  `json:"tip"`
	Eol    int64  `json:"eol"`
}

const frameSize = 64 * 1024

// MemeMeta looks up a meme's metadata by content hash, returning it only if
// it is public or owned by the caller.
func MemeMeta(ctx context.Context, g *gene.Ctx, docs *doc.Store, hash string) (string, error) {
	var f doc.Filter
	f.FieldEquals("hash", hash)
	rows, err := docs.Query(ctx, doc.MemeMeta, f)
	if err != nil {
		return "", err
	}
	for _, row := range rows {
		var m Meta
		if err := json.Unmarshal(row.Body, &m); err != nil {
			continue
		}
		if m.Public || m.Uid == g.Uid.String() {
			if err := g.Time(); err != nil {
				return "", err
			}
			if err := g.Refund(ctx); err != nil {
				return "", err
			}
			return string(row.Body), nil
		}
	}
	return "", voerr.New(voerr.MemeNotFound)
}

// MemePut streams body into a new object, metering space cost per frame as
// the bytes arrive, and records the resulting metadata document. It
// returns the content hash.
func MemePut(ctx context.Context, g *gene.Ctx, docs *doc.Store, objs *object.Store, rates costmodel.Rates, days int64, body io.Reader) (ids.Hash, error) {
	if days < 1 {
		return ids.Hash{}, voerr.New(voerr.ApiParseNum)
	}

	guardCost := int64(frameSize) * rates.SpaceObj * days
	if guardCost < 0 {
		return ids.Hash{}, voerr.New(voerr.CostSpaceTooLarge)
	}
	if g.Costs.Traffic < guardCost {
		return ids.Hash{}, voerr.New(voerr.CostTraffic)
	}

	var size int64
	onFrame := func(frame []byte) error {
		if time.Now().After(g.Deadline) {
			return voerr.New(voerr.CostTime)
		}
		n := int64(len(frame))
		cost := n * rates.SpaceObj * days
		if cost < 0 || cost/days != n*rates.SpaceObj {
			return voerr.New(voerr.CostSpaceTooLarge)
		}
		if g.Costs.Space-cost < 0 {
			return voerr.New(voerr.CostSpace)
		}
		g.Costs.Space -= cost
		size += n
		return nil
	}

	oid, hash, err := objs.Put(ctx, body, onFrame)
	if err != nil {
		return ids.Hash{}, err
	}

	docCost := rates.SpaceDoc * days
	if g.Costs.Space-docCost < 0 {
		_ = objs.Delete(ctx, oid)
		return ids.Hash{}, voerr.New(voerr.CostSpace)
	}
	g.Costs.Space -= docCost

	now := time.Now()
	eol := now.Add(time.Duration(days) * 24 * time.Hour)
	m := Meta{
		Uid:  g.Uid.String(),
		Oid:  oid,
		Hash: hash.String(),
		Size: size,
		Eol:  eol.Unix(),
	}
	mbody, err := json.Marshal(m)
	if err != nil {
		return ids.Hash{}, fmt.Errorf("marshaling meme metadata: %w", err)
	}
	row := doc.Row{ID: ids.MustNew().String(), Uid: m.Uid, Eol: &eol, Body: mbody}
	if err := docs.Insert(ctx, doc.MemeMeta, row); err != nil {
		return ids.Hash{}, err
	}

	if err := g.Time(); err != nil {
		return ids.Hash{}, err
	}
	if err := g.Refund(ctx); err != nil {
		return ids.Hash{}, err
	}
	return hash, nil
}

// MemeGet resolves hash to the cheapest (lowest-tip) visible meme, meters
// its full size against the traffic budget, transfers tip to the owner on
// a public read, and streams its bytes to dst.
func MemeGet(ctx context.Context, g *gene.Ctx, docs *doc.Store, objs *object.Store, ledger *audit.Ledger, rates costmodel.Rates, hash string, public bool, dst io.Writer) error {
	var f doc.Filter
	f.FieldEquals("hash", hash)
	if public {
		f.FieldEquals("public", "true")
	} else {
		f.ByUid(g.Uid.String())
	}
	f.OrderBy = "(body->>'tip')::bigint ASC"
	f.Limit = 1

	rows, err := docs.Query(ctx, doc.MemeMeta, f)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return voerr.New(voerr.MemeNotFound)
	}

	var m Meta
	if err := json.Unmarshal(rows[0].Body, &m); err != nil {
		return fmt.Errorf("unmarshaling meme metadata: %w", err)
	}

	trafficCost := m.Size * rates.Traffic
	if g.Costs.Traffic-trafficCost < 0 {
		return voerr.New(voerr.CostTraffic)
	}
	g.Costs.Traffic -= trafficCost

	if public && m.Tip > 0 {
		if m.Tip > g.Costs.Tip {
			return voerr.New(voerr.CostTip)
		}
		g.Costs.Tip -= m.Tip
		owner, err := ids.Parse(m.Uid)
		if err == nil {
			if err := ledger.IncrCredit(ctx, owner, m.Tip, "MemeTip"); err != nil {
				return err
			}
		}
	}

	if err := objs.Get(ctx, m.Oid, dst, nil); err != nil {
		return err
	}

	if err := g.Time(); err != nil {
		return err
	}
	return g.Refund(ctx)
}
