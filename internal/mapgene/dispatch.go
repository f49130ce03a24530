package mapgene

import (
	"context"
	"encoding/json"

	"github.com/voxov/voxov/internal/audit"
	"github.com/voxov/voxov/internal/gene"
	"github.com/voxov/voxov/internal/store/doc"
	"github.com/voxov/voxov/internal/voerr"
)

type typeTag struct {
	Type string `json:"_type"`
}

// Dispatch routes a map_1 request by its "_type" tag to Put, Get or Drop,
// matching spec's tagged JSON union `{_type: Put|Get|Drop, ...}`. It is
// registered as the map_1 gene.Func.
func Dispatch(docs *doc.Store, ledger *audit.Ledger, spaceCostPerKbDay, trafficCostPerByte int64) gene.Func {
	return func(ctx context.Context, g *gene.Ctx, arg string) (string, error) {
		var t typeTag
		if err := json.Unmarshal([]byte(arg), &t); err != nil {
			return "", voerr.New(voerr.ApiParseId)
		}
		switch t.Type {
		case "Put":
			if _, err := Put(ctx, g, docs, spaceCostPerKbDay, arg, false); err != nil {
				return "", err
			}
			return "{}", nil
		case "Get":
			return Get(ctx, g, docs, ledger, trafficCostPerByte, arg)
		case "Drop":
			if err := Drop(ctx, g, docs, spaceCostPerKbDay, arg); err != nil {
				return "", err
			}
			return "{}", nil
		default:
			return "", voerr.New(voerr.ApiUnknownQueryType)
		}
	}
}
