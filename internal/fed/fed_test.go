package fed

import (
	"context"
	"testing"

	"github.com/voxov/voxov/internal/costlayer"
	"github.com/voxov/voxov/internal/ids"
	"github.com/voxov/voxov/internal/voerr"
)

func TestDispatchNilTargetGoesLocal(t *testing.T) {
	f := New()
	called := false
	_, err := f.Dispatch(context.Background(), nil, ids.MustNew(), costlayer.Reservation{}, func(ctx context.Context, uid ids.Id, r costlayer.Reservation) (any, error) {
		called = true
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatalf("expected local dispatch to be called")
	}
}

func TestDispatchNonZeroTargetUnimplemented(t *testing.T) {
	f := New()
	target := ids.MustNew()
	_, err := f.Dispatch(context.Background(), &target, ids.MustNew(), costlayer.Reservation{}, func(ctx context.Context, uid ids.Id, r costlayer.Reservation) (any, error) {
		t.Fatal("local dispatch should not be called")
		return nil, nil
	})
	if !voerr.Is(err, voerr.GeneUnimplemented) {
		t.Fatalf("expected GeneUnimplemented, got %v", err)
	}
}
