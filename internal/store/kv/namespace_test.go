package kv

import (
	"testing"

	"github.com/voxov/voxov/internal/ids"
)

func TestKeyDeterministic(t *testing.T) {
	id := ids.MustNew()
	k1 := Key(Access, id)
	k2 := Key(Access, id)
	if k1 != k2 {
		t.Errorf("Key should be deterministic, got %q and %q", k1, k2)
	}
}

func TestKeyDistinguishesTags(t *testing.T) {
	id := ids.MustNew()
	access := Key(Access, id)
	refresh := Key(Refresh, id)
	if access == refresh {
		t.Errorf("different tags should produce different keys, both = %q", access)
	}
}

func TestKeyPhoneMessageComposite(t *testing.T) {
	m1 := ids.MustNew()
	m2 := ids.MustNew()
	k1 := KeyPhoneMessage(SmsSendTo, "+15550001111", m1)
	k2 := KeyPhoneMessage(SmsSendTo, "+15550001111", m2)
	if k1 == k2 {
		t.Errorf("different message ids should produce different keys")
	}
}

func TestKeyPhonePrefixedByTag(t *testing.T) {
	k := KeyPhone(Phone2Uid, "+15550001111")
	want := "5:+15550001111"
	if k != want {
		t.Errorf("got %q want %q", k, want)
	}
}
