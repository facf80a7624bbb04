package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSHA256(t *testing.T) {
	h := SHA256{}

	d1, err := h.Hash("secret")
	require.NoError(t, err)
	d2, _ := h.Hash("secret")

	assert.Equal(t, d1, d2, "digest must be deterministic")
	assert.NotEqual(t, "secret", d1)
	assert.Equal(t, "2bb80d537b1da3e38bd30361aa855686bde0eacd7162fef6a25fe97bf527a25b", d1)

	assert.True(t, h.Verify("secret", d1))
	assert.False(t, h.Verify("wrong", d1))

	empty, err := h.Hash("")
	require.NoError(t, err)
	assert.True(t, h.Verify("", empty))
	assert.False(t, h.Verify("x", empty))
}

func TestSHA256DistinctInputs(t *testing.T) {
	h := SHA256{}
	inputs := []string{"a", "b", "ab", "ba", "secret", "Secret", " secret", "пароль"}
	for _, p1 := range inputs {
		d, _ := h.Hash(p1)
		assert.True(t, h.Verify(p1, d), p1)
		for _, p2 := range inputs {
			if p1 != p2 {
				assert.False(t, h.Verify(p2, d), "%q must not verify against digest of %q", p2, p1)
			}
		}
	}
}

func TestBcrypt(t *testing.T) {
	h := Bcrypt{Cost: bcrypt.MinCost}

	d1, err := h.Hash("secret")
	require.NoError(t, err)
	d2, err := h.Hash("secret")
	require.NoError(t, err)

	assert.NotEqual(t, d1, d2, "bcrypt digests are salted")
	assert.True(t, h.Verify("secret", d1))
	assert.True(t, h.Verify("secret", d2))
	assert.False(t, h.Verify("wrong", d1))
}

func TestNew(t *testing.T) {
	h, err := New("", 0)
	require.NoError(t, err)
	assert.Equal(t, SHA256Name, h.Name())

	h, err = New(BcryptName, 0)
	require.NoError(t, err)
	assert.Equal(t, Bcrypt{Cost: bcrypt.DefaultCost}, h)

	_, err = New(BcryptName, 99)
	assert.Error(t, err)

	_, err = New("md5", 0)
	assert.ErrorIs(t, err, ErrUnknownHasher)
}
