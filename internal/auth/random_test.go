package auth

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomToken(t *testing.T) {
	seen := map[string]bool{}
	for range 100 {
		token, err := RandomToken()
		require.NoError(t, err)

		raw, err := base64.StdEncoding.DecodeString(token)
		require.NoError(t, err)
		assert.Len(t, raw, TokenBytes)

		assert.False(t, seen[token], "token generated twice")
		seen[token] = true
	}
}

func TestRandomURLToken(t *testing.T) {
	token, err := RandomURLToken()
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)
	assert.Len(t, raw, TokenBytes)
	assert.NotContains(t, token, "+")
	assert.NotContains(t, token, "/")
}
