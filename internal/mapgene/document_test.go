package mapgene

import (
	"encoding/json"
	"testing"

	"github.com/voxov/voxov/internal/voerr"
)

func TestDocumentRoundTrip(t *testing.T) {
	d := Document{
		Id:     "abc",
		Uid:    "def",
		Pub:    true,
		Eol:    1234,
		Tip:    5,
		Size:   100,
		Ns:     "notes",
		Fields: map[string]json.RawMessage{"title": json.RawMessage(`"hello"`)},
	}
	d.Idx[0] = json.RawMessage(`"x"`)

	body, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got Document
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Id != d.Id || got.Uid != d.Uid || got.Pub != d.Pub || got.Eol != d.Eol || got.Tip != d.Tip {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if string(got.Fields["title"]) != `"hello"` {
		t.Fatalf("user field lost: %v", got.Fields)
	}
	if string(got.Idx[0]) != `"x"` {
		t.Fatalf("indexed field lost: %v", got.Idx[0])
	}
}

func TestUnmarshalRejectsUnknownReservedKey(t *testing.T) {
	var d Document
	err := json.Unmarshal([]byte(`{"_id":"a","_uid":"b","_unknown":1}`), &d)
	if !voerr.Is(err, voerr.ReservedKey) {
		t.Fatalf("expected ReservedKey, got %v", err)
	}
}

func TestValidateUserFieldsRejectsUnderscore(t *testing.T) {
	err := ValidateUserFields(map[string]json.RawMessage{"_sneaky": json.RawMessage(`1`)})
	if !voerr.Is(err, voerr.ReservedKey) {
		t.Fatalf("expected ReservedKey, got %v", err)
	}
}

func TestCeilKb(t *testing.T) {
	cases := []struct{ size, want int64 }{
		{0, 0}, {1, 1}, {1024, 1}, {1025, 2}, {2048, 2},
	}
	for _, c := range cases {
		if got := ceilKb(c.size); got != c.want {
			t.Fatalf("ceilKb(%d) = %d, want %d", c.size, got, c.want)
		}
	}
}
