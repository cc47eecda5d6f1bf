package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashBytesIsStable(t *testing.T) {
	a := HashBytes([]byte("receipt"))
	assert.Len(t, a, 64)
	assert.Equal(t, a, HashBytes([]byte("receipt")))
	assert.NotEqual(t, a, HashBytes([]byte("invoice")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello world", 5))
	assert.Equal(t, "short", Truncate("short", 100))
	assert.Equal(t, "", Truncate("anything", 0))
	assert.Equal(t, "€€", Truncate("€€€", 2))
}
