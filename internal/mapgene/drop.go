package mapgene

import (
	"context"
	"encoding/json"
	"time"

	"github.com/voxov/voxov/internal/gene"
	"github.com/voxov/voxov/internal/store/doc"
	"github.com/voxov/voxov/internal/voerr"
)

// DropArg is the parsed request body for a map_1 Drop.
type DropArg struct {
	Id string `json:"_id"`
}

// Drop implements the map_1 Drop operation: delete by (_id, _uid=caller),
// refunding the remaining space of the deleted document.
func Drop(ctx context.Context, g *gene.Ctx, docs *doc.Store, spaceCostPerKbDay int64, arg string) error {
	var a DropArg
	if err := json.Unmarshal([]byte(arg), &a); err != nil {
		return voerr.New(voerr.ApiParseId)
	}

	row, found, err := docs.FindByID(ctx, doc.Map1, a.Id)
	if err != nil {
		return err
	}
	if !found || row.Uid != g.Uid.String() {
		return voerr.New(voerr.GeneMapNotFound)
	}

	var d Document
	if err := json.Unmarshal(row.Body, &d); err != nil {
		return err
	}

	deleted, err := docs.DeleteByIDAndUid(ctx, doc.Map1, a.Id, g.Uid.String())
	if err != nil {
		return err
	}
	if !deleted {
		return voerr.New(voerr.GeneMapNotFound)
	}

	refundOldSpace(g, d, spaceCostPerKbDay, time.Now())
	return nil
}
