package transport

import (
	"net/http/httptest"
	"testing"

	"github.com/voxov/voxov/internal/costmodel"
	"github.com/voxov/voxov/internal/voerr"
)

func TestWriteResultSetsHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	WriteResult(w, "Gene", costmodel.Costs{Time: 1, Space: 2, Traffic: 3, Tip: 4}, `{"ok":true}`)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("type") != "Gene" {
		t.Fatalf("type header mismatch: %s", w.Header().Get("type"))
	}
	if w.Header().Get("space") != "2" {
		t.Fatalf("space header mismatch: %s", w.Header().Get("space"))
	}
	if w.Body.String() != `{"ok":true}` {
		t.Fatalf("body mismatch: %s", w.Body.String())
	}
}

func TestWriteErrorSetsErrorHeaderAndStatus(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, costmodel.Costs{}, voerr.New(voerr.CostTraffic))

	if w.Header().Get("type") != "Error" {
		t.Fatalf("expected type=Error, got %s", w.Header().Get("type"))
	}
	if w.Header().Get("error") != "CostTraffic" {
		t.Fatalf("expected error=CostTraffic, got %s", w.Header().Get("error"))
	}
	if w.Code != 500 {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestWriteErrorApiKindsAre400(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, costmodel.Costs{}, voerr.New(voerr.ApiParseId))
	if w.Code != 400 {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
