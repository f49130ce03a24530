package costmodel

import "testing"

func TestSum(t *testing.T) {
	c := Costs{Time: 1, Space: 2, Traffic: 3, Tip: 4}
	if got := c.Sum(); got != 10 {
		t.Fatalf("got %d", got)
	}
}

func TestIsZero(t *testing.T) {
	if !(Costs{}).IsZero() {
		t.Fatalf("expected zero value to be zero")
	}
	if (Costs{Tip: 1}).IsZero() {
		t.Fatalf("expected non-zero tip to not be zero")
	}
}

func TestSubAdd(t *testing.T) {
	full := Costs{Time: 10, Space: 10, Traffic: 10, Tip: 10}
	spent := Costs{Time: 3, Space: 0, Traffic: 5, Tip: 1}
	remainder := full.Sub(spent)
	want := Costs{Time: 7, Space: 10, Traffic: 5, Tip: 9}
	if remainder != want {
		t.Fatalf("got %+v want %+v", remainder, want)
	}
	if remainder.Add(spent) != full {
		t.Fatalf("add is not the inverse of sub")
	}
}

func TestPrice(t *testing.T) {
	r := Rates{Time: 2, SpaceDoc: 5, SpaceObj: 1, Traffic: 3}
	c := Costs{Time: 1, Space: 4, Traffic: 2, Tip: 7}
	if got := r.Price(c, r.SpaceDoc); got != 2*1+5*4+3*2+7 {
		t.Fatalf("got %d", got)
	}
	if got := r.Price(c, r.SpaceObj); got != 2*1+1*4+3*2+7 {
		t.Fatalf("got %d", got)
	}
}
