package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundtrip(t *testing.T) {
	c := NewCodec("operator-secret")

	encoded, err := c.Encode("app-password-1234")
	require.NoError(t, err)
	assert.True(t, IsEncoded(encoded))
	assert.NotContains(t, encoded, "app-password-1234")

	plain, err := c.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, "app-password-1234", plain)
}

func TestEncodeIsIdempotent(t *testing.T) {
	c := NewCodec("operator-secret")

	once, err := c.Encode("value")
	require.NoError(t, err)
	twice, err := c.Encode(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice, "re-saving a settings blob must not double-encode")
}

func TestEncodeEmptyPassesThrough(t *testing.T) {
	c := NewCodec("operator-secret")
	encoded, err := c.Encode("")
	require.NoError(t, err)
	assert.Equal(t, "", encoded)
}

func TestDecodePlaintextPassesThrough(t *testing.T) {
	c := NewCodec("operator-secret")
	plain, err := c.Decode("legacy-plaintext")
	require.NoError(t, err)
	assert.Equal(t, "legacy-plaintext", plain)
}

func TestDecodeWithWrongKeyFails(t *testing.T) {
	encoded, err := NewCodec("key-a").Encode("value")
	require.NoError(t, err)

	_, err = NewCodec("key-b").Decode(encoded)
	assert.Error(t, err)
}
