package secret

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/directory-auth/services"
)

func TestHasher_RoundTrip(t *testing.T) {
	h := NewHasher(MinCost)

	secrets := []string{"correct-secret", "", "ünïcødé ✓", strings.Repeat("x", 72)}
	for _, s := range secrets {
		digest, err := h.Hash(s)
		require.NoError(t, err)
		if s != "" {
			assert.NotContains(t, digest, s, "digest must not embed the secret")
		}

		ok, err := h.Verify(s, digest)
		require.NoError(t, err)
		assert.True(t, ok, "secret %q should verify", s)
	}
}

func TestHasher_Mismatch(t *testing.T) {
	h := NewHasher(MinCost)

	digest, err := h.Hash("correct-secret")
	require.NoError(t, err)

	for _, other := range []string{"wrong-secret", "correct-secreT", "correct-secret ", ""} {
		ok, err := h.Verify(other, digest)
		require.NoError(t, err, "mismatch is not an error")
		assert.False(t, ok, "%q must not verify", other)
	}
}

func TestHasher_SaltedOutput(t *testing.T) {
	h := NewHasher(MinCost)

	first, err := h.Hash("same-secret")
	require.NoError(t, err)
	second, err := h.Hash("same-secret")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasPrefix(first, "$2a$04$"))
}

func TestHasher_InvalidCost(t *testing.T) {
	for _, cost := range []int{0, MinCost - 1, MaxCost + 1, -5} {
		_, err := NewHasher(cost).Hash("secret")
		require.Error(t, err)
		assert.ErrorIs(t, err, services.ErrHashing)
	}
}

func TestHasher_SecretTooLong(t *testing.T) {
	_, err := NewHasher(MinCost).Hash(strings.Repeat("x", 73))
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrHashing)
}

func TestHasher_LongerSecretSharingPrefixDoesNotMatch(t *testing.T) {
	h := NewHasher(MinCost)
	stored := strings.Repeat("a", 72)

	digest, err := h.Hash(stored)
	require.NoError(t, err)

	ok, err := h.Verify(stored, digest)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(stored+"different-tail", digest)
	require.NoError(t, err)
	assert.False(t, ok)

	// 72 runes, more than 72 bytes
	ok, err = h.Verify(strings.Repeat("é", 72), digest)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_MalformedDigestWithLongSecret(t *testing.T) {
	ok, err := NewHasher(MinCost).Verify(strings.Repeat("x", 100), "not-a-hash")
	assert.False(t, ok)
	assert.ErrorIs(t, err, services.ErrMalformedHash)
}

func TestHasher_MalformedDigest(t *testing.T) {
	h := NewHasher(MinCost)

	digests := []string{
		"",
		"not-a-hash",
		"$2a$04$tooShort",
		"$9z$04$" + strings.Repeat("a", 53),
	}
	for _, d := range digests {
		ok, err := h.Verify("secret", d)
		assert.False(t, ok)
		require.Error(t, err, "digest %q", d)
		assert.ErrorIs(t, err, services.ErrMalformedHash)
	}
}

func TestValidCost(t *testing.T) {
	assert.True(t, ValidCost(DefaultCost))
	assert.True(t, ValidCost(MinCost))
	assert.True(t, ValidCost(MaxCost))
	assert.False(t, ValidCost(MinCost-1))
	assert.False(t, ValidCost(MaxCost+1))
}
