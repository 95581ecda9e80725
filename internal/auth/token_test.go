// internal/auth/token_test.go
package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconnectTokenRoundTrip(t *testing.T) {
	Init()

	tok, err := CreateReconnectToken("alice")
	require.NoError(t, err)

	name, err := VerifyReconnectToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", name)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	Init()

	_, err := VerifyReconnectToken("not.a.token")
	assert.Error(t, err)
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	Init()
	tok, err := CreateReconnectToken("alice")
	require.NoError(t, err)

	// Rotating the key pair invalidates outstanding tokens.
	Init()
	_, err = VerifyReconnectToken(tok)
	assert.Error(t, err)
}
