package core

import (
	"encoding/binary"
	"math"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// Fingerprint is a compact, deterministic cache key derived from normalized
// query input using BLAKE2b hashing.
type Fingerprint uint64

// fingerprintComponents is how many leading vector components participate in
// a vector fingerprint. Keying on a prefix keeps keys compact; embeddings of
// distinct queries diverge within the first few components in practice.
const fingerprintComponents = 8

// NormalizeQuery canonicalizes query text for fingerprinting and embedding.
// The same normalized text must feed both the cache key and the embedding
// call, so cache hits and embeddings always agree.
func NormalizeQuery(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// QueryFingerprint derives a fingerprint from query text. Identical text up
// to casing and surrounding whitespace produces the same fingerprint.
func QueryFingerprint(text string) Fingerprint {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(NormalizeQuery(text)))
	sum := h.Sum(nil)
	return Fingerprint(binary.LittleEndian.Uint64(sum))
}

// VectorFingerprint derives a fingerprint for a vector search from the first
// fingerprintComponents components of the query vector plus the search
// parameters.
func VectorFingerprint(vector []float32, limit int, minScore float64) Fingerprint {
	h, _ := blake2b.New(8, nil)
	buf := make([]byte, 8)
	n := len(vector)
	if n > fingerprintComponents {
		n = fingerprintComponents
	}
	for _, v := range vector[:n] {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
		h.Write(buf[:4])
	}
	binary.LittleEndian.PutUint64(buf, uint64(limit))
	h.Write(buf)
	binary.LittleEndian.PutUint64(buf, math.Float64bits(minScore))
	h.Write(buf)
	sum := h.Sum(nil)
	return Fingerprint(binary.LittleEndian.Uint64(sum))
}
