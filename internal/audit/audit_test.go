package audit

import (
	"log/slog"
	"testing"
	"time"

	"github.com/voxov/voxov/internal/ids"
)

func TestLogBlocksUntilDrained(t *testing.T) {
	l := NewLedger(nil, nil, slog.Default())

	for i := 0; i < bufferSize; i++ {
		l.log(Entry{Uid: ids.MustNew(), Delta: 1})
	}

	done := make(chan struct{})
	go func() {
		l.log(Entry{Uid: ids.MustNew(), Delta: 1})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("log should have blocked with a full, undrained buffer")
	case <-time.After(50 * time.Millisecond):
	}

	<-l.entries // drain one slot
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("log did not unblock after the buffer was drained")
	}
}

func TestIncrCreditRejectsNegative(t *testing.T) {
	l := NewLedger(nil, nil, slog.Default())
	if err := l.IncrCredit(nil, ids.MustNew(), -1, "test"); err == nil {
		t.Fatal("expected error for negative delta")
	}
}

func TestDecrCreditRejectsNegative(t *testing.T) {
	l := NewLedger(nil, nil, slog.Default())
	if err := l.DecrCredit(nil, ids.MustNew(), -1, 0, "test"); err == nil {
		t.Fatal("expected error for negative delta")
	}
}

func TestIncrCreditZeroIsNoop(t *testing.T) {
	l := NewLedger(nil, nil, slog.Default())
	if err := l.IncrCredit(nil, ids.MustNew(), 0, "test"); err != nil {
		t.Fatalf("expected no error for zero delta, got %v", err)
	}
	if len(l.entries) != 0 {
		t.Fatalf("expected no log entry for a zero-delta credit, got %d", len(l.entries))
	}
}
