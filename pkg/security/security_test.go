package security_test

import (
	"strings"
	"testing"

	"elibrary/pkg/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := security.HashPassword("Valid1Pass!")
	require.NoError(t, err)

	parts := strings.Split(hash, ":")
	require.Len(t, parts, 2)

	assert.True(t, security.VerifyPassword("Valid1Pass!", hash))
	assert.False(t, security.VerifyPassword("Valid1Pass?", hash))
	assert.False(t, security.VerifyPassword("", hash))
}

func TestHashPassword_UsesFreshSalt(t *testing.T) {
	first, err := security.HashPassword("Valid1Pass!")
	require.NoError(t, err)
	second, err := security.HashPassword("Valid1Pass!")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, security.VerifyPassword("Valid1Pass!", first))
	assert.True(t, security.VerifyPassword("Valid1Pass!", second))
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	for _, stored := range []string{
		"",
		"no-separator",
		"a:b:c",
		"!!notbase64:AAAA",
		"AAAA:",
	} {
		assert.False(t, security.VerifyPassword("Valid1Pass!", stored), stored)
	}
}

func TestIsStrong(t *testing.T) {
	tests := []struct {
		password string
		ok       bool
		reason   string
	}{
		{"short1!", false, security.ReasonTooShort},
		{"", false, security.ReasonTooShort},
		{"alllower1!", false, security.ReasonMissingUpper},
		{"ALLUPPER1!", false, security.ReasonMissingLower},
		{"NoDigits!", false, security.ReasonMissingDigit},
		{"NoSpecial1", false, security.ReasonMissingSpecial},
		{"Valid1Pass!", true, ""},
		{"Str0ng!Pw", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			ok, reason := security.IsStrong(tt.password)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestIsStrong_ReportsFirstFailure(t *testing.T) {
	// Missing everything except lowercase: uppercase is checked first.
	ok, reason := security.IsStrong("abcdefgh")
	assert.False(t, ok)
	assert.Equal(t, security.ReasonMissingUpper, reason)
}
