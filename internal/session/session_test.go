package session

import (
	"testing"

	"github.com/voxov/voxov/internal/ids"
	"github.com/voxov/voxov/internal/voerr"
)

func TestParseUidEmptyIsZero(t *testing.T) {
	uid, err := parseUid("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !uid.IsZero() {
		t.Fatalf("expected zero uid for empty string")
	}
}

func TestParseUidRoundTrip(t *testing.T) {
	id := ids.MustNew()
	uid, err := parseUid(id.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uid != id {
		t.Fatalf("got %v want %v", uid, id)
	}
}

func TestParseUidRejectsGarbage(t *testing.T) {
	_, err := parseUid("not-hex")
	if !voerr.Is(err, voerr.AuthInvalidUid) {
		t.Fatalf("expected AuthInvalidUid, got %v", err)
	}
}
