package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret-pass", hash)
	assert.True(t, CheckPassword(hash, "s3cret-pass"))
	assert.False(t, CheckPassword(hash, "wrong-pass"))
	assert.False(t, CheckPassword("not-a-hash", "s3cret-pass"))
}

func TestGenerateVerificationCode(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 50; i++ {
		code, err := GenerateVerificationCode()
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
	}
}

func TestSecureCompare(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		given    string
		want     bool
	}{
		{"match", "key", "key", true},
		{"mismatch", "key", "other", false},
		{"unset expected", "", "", false},
		{"unset expected with input", "", "key", false},
		{"prefix", "key", "ke", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SecureCompare(tt.expected, tt.given))
		})
	}
}
