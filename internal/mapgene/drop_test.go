package mapgene

import (
	"encoding/json"
	"testing"
)

func TestDropArgUnmarshal(t *testing.T) {
	var a DropArg
	if err := json.Unmarshal([]byte(`{"_id":"doc1"}`), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if a.Id != "doc1" {
		t.Fatalf("expected doc1, got %s", a.Id)
	}
}
