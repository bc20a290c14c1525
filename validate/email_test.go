package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"plain", "a@b.com", "a@b.com", true},
		{"display name stripped", "Alice <alice@example.com>", "alice@example.com", true},
		{"subaddress kept", "alice+tag@example.com", "alice+tag@example.com", true},
		{"missing domain", "alice@", "", false},
		{"missing local", "@example.com", "", false},
		{"no at sign", "not-an-email", "", false},
		{"empty", "", "", false},
		{"spaces inside", "al ice@example.com", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Canonicalize(tc.raw)
			if !tc.ok {
				require.ErrorIs(t, err, ErrInvalidEmail)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLowercaseNormalizer(t *testing.T) {
	assert.Equal(t, "alice@example.com", LowercaseNormalizer("Alice@Example.COM"))
	assert.Equal(t, "a@b.com", LowercaseNormalizer("a@b.com"))
}

func TestNormalizedAddressesCollide(t *testing.T) {
	first, err := Canonicalize("Alice@Example.com")
	require.NoError(t, err)
	second, err := Canonicalize("alice@example.COM")
	require.NoError(t, err)
	assert.Equal(t, LowercaseNormalizer(first), LowercaseNormalizer(second))
}

func TestMinLengthPolicy(t *testing.T) {
	policy := MinLengthPolicy(3)

	require.NoError(t, policy("abc"))
	require.NoError(t, policy("a long passphrase"))

	err := policy("ab")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWeakPassword))
}

func TestDefaultStrengthPolicy(t *testing.T) {
	require.NoError(t, DefaultStrengthPolicy("pw1"))
	require.ErrorIs(t, DefaultStrengthPolicy("pw"), ErrWeakPassword)
}
