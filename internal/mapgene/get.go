package mapgene

import (
	"context"
	"encoding/json"

	"github.com/voxov/voxov/internal/audit"
	"github.com/voxov/voxov/internal/gene"
	"github.com/voxov/voxov/internal/ids"
	"github.com/voxov/voxov/internal/store/doc"
	"github.com/voxov/voxov/internal/voerr"
)

// numRange is a range filter: (lo, hi) translates to lo <= field < hi
// when an upper bound is present (the lower bound may then be omitted),
// and to equality when only the lower bound is given.
type numRange struct {
	Lo *float64 `json:"0,omitempty"`
	Hi *float64 `json:"1,omitempty"`
}

// GetArg is the parsed request body for a map_1 Get.
type GetArg struct {
	Id    *string             `json:"_id,omitempty"`
	Uid   *string             `json:"_uid,omitempty"`
	Eol   *numRange           `json:"_eol,omitempty"`
	Tip   *numRange           `json:"_tip,omitempty"`
	Size  *numRange           `json:"_size,omitempty"`
	Ns    *string             `json:"_ns,omitempty"`
	Idx   [8]*numRange        `json:"-"`
	Geo   []float64           `json:"_geo,omitempty"` // length 3: [lon, lat, radius]
	N     *int                `json:"_n,omitempty"`
}

func (a *GetArg) UnmarshalJSON(data []byte) error {
	type shadow GetArg
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var s shadow
	for i, key := range reservedIndexed {
		if v, ok := raw[key]; ok {
			var r numRange
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			s.Idx[i] = &r
			delete(raw, key)
		}
	}
	rest, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(rest, (*plainGetArg)(&s)); err != nil {
		return err
	}
	*a = GetArg(s)
	return nil
}

// plainGetArg avoids UnmarshalJSON recursion when decoding the remaining
// (non-indexed) fields.
type plainGetArg GetArg

func applyRange(f *doc.Filter, field string, r *numRange) {
	if r == nil {
		return
	}
	if r.Hi != nil {
		f.FieldRange(field, r.Lo, r.Hi)
	} else if r.Lo != nil {
		f.FieldEquals(field, formatNum(*r.Lo))
	}
}

func formatNum(f float64) string {
	if f == float64(int64(f)) {
		return jsonInt(int64(f))
	}
	return jsonFloat(f)
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func jsonFloat(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}

// Get implements the map_1 Get operation.
func Get(ctx context.Context, g *gene.Ctx, docs *doc.Store, ledger *audit.Ledger, trafficCostPerByte int64, arg string) (string, error) {
	var a GetArg
	if err := json.Unmarshal([]byte(arg), &a); err != nil {
		return "", voerr.New(voerr.ApiParseId)
	}

	var f doc.Filter
	if a.Id != nil {
		f.FieldEquals("_id", *a.Id)
	}
	if a.Uid != nil {
		if *a.Uid == g.Uid.String() {
			// owner may see own private documents
			f.ByUid(*a.Uid)
		} else {
			f.ByUid(*a.Uid)
			f.Public()
		}
	} else {
		f.VisibleTo(g.Uid.String())
	}
	if a.Ns != nil {
		f.ByNamespace(*a.Ns)
	}
	applyRange(&f, "_eol", a.Eol)
	applyRange(&f, "_tip", a.Tip)
	applyRange(&f, "_size", a.Size)
	for i, r := range a.Idx {
		applyRange(&f, reservedIndexed[i], r)
	}
	if len(a.Geo) == 3 {
		f.GeoSphere(a.Geo[0], a.Geo[1], a.Geo[2])
	} else if len(a.Geo) != 0 {
		return "", voerr.New(voerr.GeoDim)
	}
	if a.N != nil {
		f.Limit = *a.N
	}

	rows, err := docs.Query(ctx, doc.Map1, f)
	if err != nil {
		return "", err
	}

	out := make(map[string]json.RawMessage, len(rows))
	for i, row := range rows {
		if a.N != nil && i >= *a.N {
			out["_error"] = json.RawMessage(`"n"`)
			break
		}

		var d Document
		if err := json.Unmarshal(row.Body, &d); err != nil {
			continue
		}

		if err := g.Traffic(int64(len(row.Body))); err != nil {
			return "", err
		}

		if d.Uid != g.Uid.String() && d.Tip > 0 {
			if d.Tip > g.Costs.Tip {
				return "", voerr.New(voerr.CostTip)
			}
			g.Costs.Tip -= d.Tip
			if ledger != nil {
				if ownerId, perr := ids.Parse(d.Uid); perr == nil {
					if err := ledger.IncrCredit(ctx, ownerId, d.Tip, "MapTip"); err != nil {
						return "", err
					}
				}
			}
		}

		out[itoa(i)] = row.Body
	}

	body, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := []byte{}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}
