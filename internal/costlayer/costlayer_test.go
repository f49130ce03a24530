package costlayer

import "testing"

func TestTimeUnitsPerMsGuardsZero(t *testing.T) {
	if got := timeUnitsPerMs(0); got != 1 {
		t.Fatalf("got %v want 1", got)
	}
	if got := timeUnitsPerMs(-5); got != 1 {
		t.Fatalf("got %v want 1", got)
	}
	if got := timeUnitsPerMs(3); got != 3 {
		t.Fatalf("got %v want 3", got)
	}
}
