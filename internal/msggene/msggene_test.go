package msggene

import (
	"encoding/json"
	"testing"
)

func TestFieldName(t *testing.T) {
	if got := fieldName(idxFrom); got != "_0" {
		t.Fatalf("expected _0, got %s", got)
	}
	if got := fieldName(idxTo); got != "_1" {
		t.Fatalf("expected _1, got %s", got)
	}
}

func TestFieldStringNilIsEmpty(t *testing.T) {
	if got := fieldString(nil); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestFieldStringRoundTrip(t *testing.T) {
	raw, _ := json.Marshal("uid-123")
	if got := fieldString(raw); got != "uid-123" {
		t.Fatalf("expected uid-123, got %q", got)
	}
}

func TestSendArgUnmarshal(t *testing.T) {
	var a SendArg
	err := json.Unmarshal([]byte(`{"eol":123,"to":"abc","tip":5,"type":"text","value":"hi"}`), &a)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if a.Eol != 123 || a.To != "abc" || a.Tip != 5 || a.Type != "text" || a.Value != "hi" {
		t.Fatalf("unexpected parse: %+v", a)
	}
}
