package canonical

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows a future algorithm change.
const (
	DomainImage    = "deckmirror/image/v1"
	DomainSnapshot = "deckmirror/snapshot/v1"
)

// Hash computes SHA256(domain + 0x00 + data). The null separator prevents
// ambiguity between the domain and data boundary.
func Hash(domain string, data []byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)

	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// HexHash is Hash rendered as lowercase hex.
func HexHash(domain string, data []byte) string {
	sum := Hash(domain, data)
	return hex.EncodeToString(sum[:])
}
