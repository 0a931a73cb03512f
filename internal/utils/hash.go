// internal/utils/hash.go
package utils

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// ContentHash computes the keccak256 digest of the given parts, 0x-prefixed.
// Keccak keeps the hash comparable with hashes computed on the EVM side of
// the registration protocol.
func ContentHash(parts ...string) string {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return "0x" + hex.EncodeToString(h.Sum(nil))
}
