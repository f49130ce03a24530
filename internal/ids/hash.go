package ids

import (
	"encoding/hex"
	"fmt"

	"lukechampine.com/blake3"
)

// HashLen is the byte length of a Hash.
const HashLen = 32

// Hash is a 32-byte BLAKE3 content hash, rendered as hex.
type Hash [HashLen]byte

// String renders h as lowercase hex.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// ParseHash decodes a lowercase-hex-rendered Hash.
func ParseHash(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("ids: parse hash: %w", err)
	}
	if len(b) != HashLen {
		return h, fmt.Errorf("ids: parse hash: want %d bytes, got %d", HashLen, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// SumHash computes the BLAKE3 hash of b.
func SumHash(b []byte) Hash {
	var h Hash
	sum := blake3.Sum256(b)
	copy(h[:], sum[:])
	return h
}

// Hasher is an incremental BLAKE3 hasher for streamed content (used by
// MemePut, which consumes the request body frame by frame).
type Hasher struct {
	h *blake3.Hasher
}

// NewHasher creates a fresh incremental hasher.
func NewHasher() *Hasher {
	return &Hasher{h: blake3.New(32, nil)}
}

// Write feeds more bytes into the running hash. Never returns an error.
func (h *Hasher) Write(p []byte) (int, error) {
	return h.h.Write(p)
}

// Sum finalizes the hash computed so far.
func (h *Hasher) Sum() Hash {
	var out Hash
	copy(out[:], h.h.Sum(nil))
	return out
}
