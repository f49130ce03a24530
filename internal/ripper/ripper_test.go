package ripper

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

func TestRunReturnsImmediatelyWhenDisabled(t *testing.T) {
	r := New(nil, nil, slog.Default(), Config{Disabled: true, Interval: time.Hour})

	done := make(chan struct{})
	go func() {
		r.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return promptly when disabled")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	r := New(nil, nil, slog.Default(), Config{Interval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return promptly after context cancel")
	}
}
