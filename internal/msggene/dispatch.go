package msggene

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/voxov/voxov/internal/audit"
	"github.com/voxov/voxov/internal/gene"
	"github.com/voxov/voxov/internal/store/doc"
	"github.com/voxov/voxov/internal/store/kv"
	"github.com/voxov/voxov/internal/voerr"
)

type typeTag struct {
	Type string `json:"_type"`
}

// Dispatch routes a msg_1 request by its "_type" tag to Send, Sent,
// Receive, Read, Unread, Delete or Report. It is registered as the msg_1
// gene.Func.
func Dispatch(docs *doc.Store, kvs *kv.Store, ledger *audit.Ledger, spaceCostPerKbDay, trafficCostPerByte int64) gene.Func {
	return func(ctx context.Context, g *gene.Ctx, arg string) (string, error) {
		var t typeTag
		if err := json.Unmarshal([]byte(arg), &t); err != nil {
			return "", voerr.New(voerr.ApiParseId)
		}
		switch t.Type {
		case "Send":
			d, err := Send(ctx, g, docs, kvs, ledger, spaceCostPerKbDay, arg)
			if err != nil {
				return "", err
			}
			body, err := json.Marshal(d)
			if err != nil {
				return "", fmt.Errorf("marshaling send result: %w", err)
			}
			return string(body), nil
		case "Sent":
			return Sent(ctx, g, docs, ledger, trafficCostPerByte, arg)
		case "Receive":
			return Receive(ctx, g, docs, ledger, trafficCostPerByte, arg)
		case "Read":
			if err := Read(ctx, docs, g.Uid.String(), arg); err != nil {
				return "", err
			}
			return "{}", nil
		case "Unread":
			if err := Unread(ctx, docs, g.Uid.String(), arg); err != nil {
				return "", err
			}
			return "{}", nil
		case "Delete":
			if err := Delete(ctx, docs, g.Uid.String(), arg); err != nil {
				return "", err
			}
			return "{}", nil
		case "Report":
			if err := Report(ctx, arg); err != nil {
				return "", err
			}
			return "{}", nil
		default:
			return "", voerr.New(voerr.ApiUnknownQueryType)
		}
	}
}
