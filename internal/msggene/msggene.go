// Package msggene implements the msg_1 gene: a direct-message inbox/outbox
// layered entirely on top of map_1, using the reserved "_chan" namespace
// and indexed fields _0.._5 for from/to/sent/read/tip/type.
package msggene

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/voxov/voxov/internal/audit"
	"github.com/voxov/voxov/internal/gene"
	"github.com/voxov/voxov/internal/ids"
	"github.com/voxov/voxov/internal/mapgene"
	"github.com/voxov/voxov/internal/store/doc"
	"github.com/voxov/voxov/internal/store/kv"
	"github.com/voxov/voxov/internal/voerr"
)

const ns = "_chan"

// Indices into Document.Idx, matching the original gene's _0.._5 layout.
const (
	idxFrom = 0
	idxTo   = 1
	idxSent = 2
	idxRead = 3
	idxTip  = 4
	idxType = 5
)

// SendArg is the parsed request body for a msg_1 Send.
type SendArg struct {
	Id    *string `json:"id,omitempty"`
	Eol   int64   `json:"eol"`
	To    string  `json:"to"`
	Tip   int64   `json:"tip"`
	Type  string  `json:"type"`
	Value string  `json:"value"`
}

// Send delivers a message to request.To, transferring tip credits from the
// sender to the recipient. Re-sending with an existing Id edits a message
// the caller still owns (mirrors map_1 Put's upsert-by-id).
func Send(ctx context.Context, g *gene.Ctx, docs *doc.Store, kvs *kv.Store, ledger *audit.Ledger, spaceCostPerKbDay int64, arg string) (mapgene.Document, error) {
	var a SendArg
	if err := json.Unmarshal([]byte(arg), &a); err != nil {
		return mapgene.Document{}, voerr.New(voerr.ApiParseId)
	}

	if a.Id != nil {
		row, found, err := docs.FindByID(ctx, doc.Map1, *a.Id)
		if err != nil {
			return mapgene.Document{}, err
		}
		if !found || row.Uid != g.Uid.String() || row.Namespace != ns {
			return mapgene.Document{}, voerr.New(voerr.GeneInvalidId)
		}
	}

	to, err := ids.Parse(a.To)
	if err != nil {
		return mapgene.Document{}, voerr.New(voerr.ApiParseId)
	}
	exists, err := kvs.Exists(ctx, kv.Key(kv.Uid2Credit, to))
	if err != nil {
		return mapgene.Document{}, err
	}
	if !exists {
		return mapgene.Document{}, voerr.New(voerr.AuthInvalidUid)
	}

	if a.Tip < 0 || a.Tip > g.Costs.Tip {
		return mapgene.Document{}, voerr.New(voerr.CostTip)
	}
	if err := ledger.IncrCredit(ctx, to, a.Tip, "GeneMsg1Tip"); err != nil {
		return mapgene.Document{}, err
	}
	g.Costs.Tip -= a.Tip

	putArg := map[string]any{
		"_eol": a.Eol,
		"_ns":  ns,
		"_0":   g.Uid.String(),
		"_1":   a.To,
		"_2":   time.Now().Unix(),
		"_4":   a.Tip,
		"_5":   a.Type,
		"value": a.Value,
	}
	if a.Id != nil {
		putArg["_id"] = *a.Id
	}
	body, err := json.Marshal(putArg)
	if err != nil {
		return mapgene.Document{}, fmt.Errorf("marshaling send->put arg: %w", err)
	}

	return mapgene.Put(ctx, g, docs, spaceCostPerKbDay, string(body), true)
}

// Sent runs an outbox query: a map_1 Get scoped to messages this caller
// sent (_0 == caller).
func Sent(ctx context.Context, g *gene.Ctx, docs *doc.Store, ledger *audit.Ledger, trafficCostPerByte int64, arg string) (string, error) {
	return query(ctx, g, docs, ledger, trafficCostPerByte, arg, idxFrom, g.Uid.String())
}

// Receive runs an inbox query: a map_1 Get scoped to messages this caller
// received (_1 == caller).
func Receive(ctx context.Context, g *gene.Ctx, docs *doc.Store, ledger *audit.Ledger, trafficCostPerByte int64, arg string) (string, error) {
	return query(ctx, g, docs, ledger, trafficCostPerByte, arg, idxTo, g.Uid.String())
}

// query rewrites arg into a map_1 GetArg pinned to ns and the given
// fixed index field, then runs it through map_1 Get.
func query(ctx context.Context, g *gene.Ctx, docs *doc.Store, ledger *audit.Ledger, trafficCostPerByte int64, arg string, fixedIdx int, fixedValue string) (string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(arg), &raw); err != nil {
		return "", voerr.New(voerr.ApiParseId)
	}
	raw["_ns"] = mustMarshal(ns)
	raw[fieldName(fixedIdx)] = mustMarshal(fixedValue)
	body, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("marshaling query arg: %w", err)
	}
	return mapgene.Get(ctx, g, docs, ledger, trafficCostPerByte, string(body))
}

func fieldName(idx int) string {
	return fmt.Sprintf("_%d", idx)
}

func mustMarshal(v string) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

// ReadArg/UnreadArg/DeleteArg/ReportArg all carry just the target message id.
type ReadArg struct {
	Id string `json:"id"`
}
type UnreadArg struct {
	Id string `json:"id"`
}
type DeleteArg struct {
	Id string `json:"id"`
}
type ReportArg struct {
	Id string `json:"id"`
}

// Read marks a received message as read (sets the _3 field to now), only
// for the message's recipient.
func Read(ctx context.Context, docs *doc.Store, uid string, arg string) error {
	var a ReadArg
	if err := json.Unmarshal([]byte(arg), &a); err != nil {
		return voerr.New(voerr.ApiParseId)
	}
	return setRead(ctx, docs, uid, a.Id, true)
}

// Unread clears a message's read marker, only for the message's recipient.
func Unread(ctx context.Context, docs *doc.Store, uid string, arg string) error {
	var a UnreadArg
	if err := json.Unmarshal([]byte(arg), &a); err != nil {
		return voerr.New(voerr.ApiParseId)
	}
	return setRead(ctx, docs, uid, a.Id, false)
}

func setRead(ctx context.Context, docs *doc.Store, uid, id string, read bool) error {
	row, found, err := docs.FindByID(ctx, doc.Map1, id)
	if err != nil {
		return err
	}
	if !found || row.Namespace != ns {
		return voerr.New(voerr.GeneMapNotFound)
	}
	var d mapgene.Document
	if err := json.Unmarshal(row.Body, &d); err != nil {
		return err
	}
	if fieldString(d.Idx[idxTo]) != uid {
		return voerr.New(voerr.GeneMapNotFound)
	}
	if read {
		ts, _ := json.Marshal(time.Now().Unix())
		d.Idx[idxRead] = ts
	} else {
		d.Idx[idxRead] = nil
	}
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}
	return docs.Upsert(ctx, doc.Map1, doc.Row{ID: row.ID, Uid: row.Uid, Namespace: row.Namespace, Eol: row.Eol, Body: body})
}

// Delete removes a message; either the sender or the recipient may do so.
func Delete(ctx context.Context, docs *doc.Store, uid string, arg string) error {
	var a DeleteArg
	if err := json.Unmarshal([]byte(arg), &a); err != nil {
		return voerr.New(voerr.ApiParseId)
	}
	row, found, err := docs.FindByID(ctx, doc.Map1, a.Id)
	if err != nil {
		return err
	}
	if !found || row.Namespace != ns {
		return voerr.New(voerr.GeneMapNotFound)
	}
	var d mapgene.Document
	if err := json.Unmarshal(row.Body, &d); err != nil {
		return err
	}
	if fieldString(d.Idx[idxFrom]) != uid && fieldString(d.Idx[idxTo]) != uid {
		return voerr.New(voerr.GeneMapNotFound)
	}
	deleted, err := docs.DeleteByID(ctx, doc.Map1, a.Id)
	if err != nil {
		return err
	}
	if !deleted {
		return voerr.New(voerr.GeneMapNotFound)
	}
	return nil
}

// Report is reserved for future abuse-reporting; not implemented, matching
// the original gene's stub.
func Report(ctx context.Context, arg string) error {
	return voerr.New(voerr.GeneUnimplemented)
}

func fieldString(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
