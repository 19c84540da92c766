package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaker_RoundTrip(t *testing.T) {
	maker := NewMaker("test-secret", time.Minute)

	token, err := maker.GenerateToken("storefront", "service")
	require.NoError(t, err)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "storefront", claims.Actor)
	assert.Equal(t, "service", claims.Role)
}

func TestMaker_WrongSecret(t *testing.T) {
	maker := NewMaker("secret-a", time.Minute)
	token, err := maker.GenerateToken("storefront", "service")
	require.NoError(t, err)

	other := NewMaker("secret-b", time.Minute)
	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestMaker_Expired(t *testing.T) {
	maker := NewMaker("test-secret", -time.Minute)
	token, err := maker.GenerateToken("storefront", "service")
	require.NoError(t, err)

	_, err = maker.ParseToken(token)
	assert.Error(t, err)
}
