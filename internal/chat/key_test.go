package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveKeyCommutative(t *testing.T) {
	pairs := [][2]string{
		{"u1", "u2"},
		{"42", "7"},
		{"alice", "bob"},
		{"9f1c", "0a2b"},
	}
	for _, p := range pairs {
		assert.Equal(t, DeriveKey(p[0], p[1]), DeriveKey(p[1], p[0]))
	}
}

func TestDeriveKeyDeterministic(t *testing.T) {
	assert.Equal(t, "u1:u2", DeriveKey("u2", "u1"))
	assert.Equal(t, "u1:u2", DeriveKey("u1", "u2"))
}

func TestDeriveKeyDistinctPairs(t *testing.T) {
	assert.NotEqual(t, DeriveKey("u1", "u2"), DeriveKey("u1", "u3"))
	assert.NotEqual(t, DeriveKey("u1", "u2"), DeriveKey("u2", "u3"))
}
