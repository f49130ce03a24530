package ids

import "testing"

func TestSumHashStability(t *testing.T) {
	data := []byte("hello")
	h1 := SumHash(data)
	h2 := SumHash(data)
	if h1 != h2 {
		t.Fatalf("SumHash not stable: %v != %v", h1, h2)
	}

	parsed, err := ParseHash(h1.String())
	if err != nil {
		t.Fatalf("ParseHash: %v", err)
	}
	if parsed != h1 {
		t.Fatalf("ParseHash(String()) = %v, want %v", parsed, h1)
	}
}

func TestHasherMatchesSumHash(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	want := SumHash(data)

	h := NewHasher()
	// Feed in multiple chunks to exercise the incremental path.
	_, _ = h.Write(data[:10])
	_, _ = h.Write(data[10:])
	got := h.Sum()

	if got != want {
		t.Fatalf("incremental hash = %v, want %v", got, want)
	}
}
