// Package fed implements the Fed layer: a reserved dispatch point for
// federated (cross-instance) requests. No federation protocol is
// specified; a request naming a federation target always fails with
// GeneUnimplemented, reserving the header for future use.
package fed

import (
	"context"

	"github.com/voxov/voxov/internal/costlayer"
	"github.com/voxov/voxov/internal/ids"
	"github.com/voxov/voxov/internal/voerr"
)

// LocalDispatch is called when a request has no federation target, i.e.
// it should be handled by this instance's own Gene layer.
type LocalDispatch func(ctx context.Context, uid ids.Id, reservation costlayer.Reservation) (any, error)

// Fed is the Fed layer.
type Fed struct{}

// New creates the Fed layer.
func New() *Fed {
	return &Fed{}
}

// Dispatch inspects the optional federation target. A nil/zero target
// forwards to local; any non-zero target is a remote dispatch, which this
// instance does not implement.
func (f *Fed) Dispatch(ctx context.Context, target *ids.Id, uid ids.Id, reservation costlayer.Reservation, local LocalDispatch) (any, error) {
	if target == nil || target.IsZero() {
		return local(ctx, uid, reservation)
	}
	return nil, voerr.New(voerr.GeneUnimplemented)
}
