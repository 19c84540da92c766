package credentials

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePassword(t *testing.T) {
	seen := make(map[string]bool)
	for range 10 {
		pass, err := GeneratePassword()
		require.NoError(t, err)
		assert.Len(t, pass, PasswordLength)
		for _, r := range pass {
			assert.True(t, strings.ContainsRune(passwordAlphabet, r))
		}
		assert.False(t, seen[pass], "passwords must not repeat")
		seen[pass] = true
	}
}

func TestUsername(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	got := Username("+62 812-3456-789", now)
	assert.True(t, strings.HasPrefix(got, "user628123456789"))
	assert.NotEqual(t, "user628123456789", got, "timestamp suffix expected")
}

func TestEmail(t *testing.T) {
	assert.Equal(t, "628123456789@panel.example.com", Email("+62-812-3456-789", "panel.example.com"))
}
