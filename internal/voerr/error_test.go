package voerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorString(t *testing.T) {
	err := New(CostInsufficientCredit)
	if err.Error() != "CostInsufficientCredit" {
		t.Fatalf("got %q", err.Error())
	}
}

func TestWrapIncludesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(MemePut, cause)
	if got := err.Error(); got != "MemePut: connection reset" {
		t.Fatalf("got %q", got)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to unwrap to cause")
	}
}

func TestIs(t *testing.T) {
	err := New(GeneMapNotFound)
	if !Is(err, GeneMapNotFound) {
		t.Fatalf("expected Is to match")
	}
	if Is(err, GeneMapExpired) {
		t.Fatalf("expected Is to reject mismatched kind")
	}
	if Is(errors.New("plain"), GeneMapNotFound) {
		t.Fatalf("expected Is to reject non-voerr errors")
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"voerr", New(AuthInvalidPhone), AuthInvalidPhone},
		{"foreign", fmt.Errorf("boom"), Logical},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}
