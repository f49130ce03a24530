package mapgene

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/voxov/voxov/internal/gene"
	"github.com/voxov/voxov/internal/ids"
	"github.com/voxov/voxov/internal/store/doc"
	"github.com/voxov/voxov/internal/voerr"
)

// PutArg is the parsed request body for a map_1 Put.
type PutArg struct {
	Id     *string                    `json:"_id,omitempty"`
	Eol    int64                      `json:"_eol"`
	Tip    int64                      `json:"_tip,omitempty"`
	Ns     string                     `json:"_ns,omitempty"`
	Geo    []float64                  `json:"_geo,omitempty"`
	Idx    [8]json.RawMessage         `json:"-"`
	Fields map[string]json.RawMessage `json:"-"`
}

func (p *PutArg) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Fields = make(map[string]json.RawMessage)
	for k, v := range raw {
		switch k {
		case "_id":
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return err
			}
			p.Id = &s
		case "_type":
			// The map_1 request tag, not a document field.
		case "_eol":
			if err := json.Unmarshal(v, &p.Eol); err != nil {
				return err
			}
		case "_tip":
			if err := json.Unmarshal(v, &p.Tip); err != nil {
				return err
			}
		case "_ns":
			if err := json.Unmarshal(v, &p.Ns); err != nil {
				return err
			}
		case "_geo":
			if err := json.Unmarshal(v, &p.Geo); err != nil {
				return err
			}
		default:
			if idx := indexedFieldIndex(k); idx >= 0 {
				p.Idx[idx] = v
				continue
			}
			p.Fields[k] = v
		}
	}
	return nil
}

const minEol = 24 * time.Hour

// Put implements the map_1 Put operation. internalCaller permits namespaces
// starting with "_" (used by msg_1, layered on map_1 via the reserved
// "_chan" namespace); external callers may never set such a namespace.
func Put(ctx context.Context, g *gene.Ctx, docs *doc.Store, spaceCostPerKbDay int64, arg string, internalCaller bool) (Document, error) {
	var p PutArg
	if err := json.Unmarshal([]byte(arg), &p); err != nil {
		return Document{}, voerr.New(voerr.ApiParseId)
	}

	now := time.Now()
	eol := time.Unix(p.Eol, 0)
	if eol.Sub(now) < minEol {
		return Document{}, voerr.New(voerr.CostTime)
	}
	if p.Tip < 0 || p.Tip > g.Costs.Tip {
		return Document{}, voerr.New(voerr.CostTip)
	}
	if p.Ns != "" && p.Ns[0] == '_' && !internalCaller {
		return Document{}, voerr.New(voerr.Namespace)
	}
	if len(p.Geo) != 0 && len(p.Geo) != 2 {
		return Document{}, voerr.New(voerr.GeoDim)
	}
	if err := ValidateUserFields(p.Fields); err != nil {
		return Document{}, err
	}

	id := p.Id
	var docId string
	if id != nil {
		docId = *id
	} else {
		docId = ids.MustNew().String()
	}

	d := Document{
		Id:     docId,
		Uid:    g.Uid.String(),
		Pub:    false,
		Eol:    p.Eol,
		Tip:    p.Tip,
		Ns:     p.Ns,
		Idx:    p.Idx,
		Geo:    p.Geo,
		Fields: p.Fields,
	}
	size, err := Size(d)
	if err != nil {
		return Document{}, fmt.Errorf("sizing document: %w", err)
	}
	d.Size = size

	days := int64(math.Ceil(eol.Sub(now).Hours() / 24))
	spaceCost := ceilKb(size) * days * spaceCostPerKbDay
	if g.Costs.Space-spaceCost < 0 {
		return Document{}, voerr.New(voerr.CostSpace)
	}
	g.Costs.Space -= spaceCost

	body, err := json.Marshal(d)
	if err != nil {
		return Document{}, fmt.Errorf("marshaling document: %w", err)
	}
	row := doc.Row{ID: d.Id, Uid: d.Uid, Namespace: d.Ns, Eol: &eol, Body: body}

	if id != nil {
		old, found, err := docs.FindByID(ctx, doc.Map1, *id)
		if err != nil {
			return Document{}, err
		}
		if !found || old.Uid != d.Uid {
			return Document{}, voerr.New(voerr.GeneMapNotFound)
		}
		var oldDoc Document
		if err := json.Unmarshal(old.Body, &oldDoc); err == nil {
			refundOldSpace(g, oldDoc, spaceCostPerKbDay, now)
		}
		if err := docs.Upsert(ctx, doc.Map1, row); err != nil {
			return Document{}, err
		}
	} else {
		if err := docs.Insert(ctx, doc.Map1, row); err != nil {
			return Document{}, err
		}
	}

	return d, nil
}

func refundOldSpace(g *gene.Ctx, old Document, spaceCostPerKbDay int64, now time.Time) {
	oldEol := time.Unix(old.Eol, 0)
	daysLeft := int64(math.Floor(oldEol.Sub(now).Hours() / 24))
	if daysLeft <= 0 {
		return
	}
	refund := (old.Size / 1024) * daysLeft * spaceCostPerKbDay
	g.Costs.Space += refund
}

func ceilKb(size int64) int64 {
	return (size + 1023) / 1024
}
