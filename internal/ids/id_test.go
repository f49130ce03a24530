package ids

import "testing"

func TestIdRoundTrip(t *testing.T) {
	id, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if id.IsZero() {
		t.Fatalf("random id unexpectedly zero")
	}

	s := id.String()
	if len(s) != Len*2 {
		t.Fatalf("String() length = %d, want %d", len(s), Len*2)
	}

	got, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != id {
		t.Fatalf("Parse(String()) = %v, want %v", got, id)
	}
}

func TestZeroIsAnonymous(t *testing.T) {
	if !Zero.IsZero() {
		t.Fatalf("Zero.IsZero() = false, want true")
	}
	if Zero.String() != "00000000000000000000000000000000" {
		t.Fatalf("Zero.String() = %q", Zero.String())
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	cases := []string{"", "zz", "00", hex32()}
	for _, c := range cases {
		if _, err := Parse(c); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", c)
		}
	}
}

// hex32 returns a syntactically valid hex string of the wrong length.
func hex32() string {
	b := make([]byte, 64)
	for i := range b {
		b[i] = 'a'
	}
	return string(b)
}
