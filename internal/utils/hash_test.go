// internal/utils/hash_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentHash(t *testing.T) {
	h := ContentHash("dream text", "synopsis")

	assert.Len(t, h, 66) // 0x + 32 bytes hex
	assert.Equal(t, "0x", h[:2])

	// Deterministic, and sensitive to every part.
	assert.Equal(t, h, ContentHash("dream text", "synopsis"))
	assert.NotEqual(t, h, ContentHash("dream text", "other synopsis"))
	assert.NotEqual(t, h, ContentHash("dream text"))
}
