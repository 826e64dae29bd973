// Package secrets encodes stored credentials so they are never written to
// the options table in plaintext. Values are sealed with NaCl secretbox and
// decoded only at the point of use.
package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const encodedPrefix = "enc:v1:"

// Codec seals and opens credential strings with a key derived from the
// operator-supplied secret_key config value.
type Codec struct {
	key [32]byte
}

// NewCodec derives a fixed-size key from the configured secret.
func NewCodec(secret string) *Codec {
	c := &Codec{key: sha256.Sum256([]byte(secret))}
	return c
}

// Encode seals a plaintext credential. Empty and already-encoded values pass
// through unchanged so re-saving a settings blob is idempotent.
func (c *Codec) Encode(plain string) (string, error) {
	if plain == "" || strings.HasPrefix(plain, encodedPrefix) {
		return plain, nil
	}

	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], []byte(plain), &nonce, &c.key)
	return encodedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decode opens an encoded credential. Plaintext values (pre-migration data)
// are returned unchanged.
func (c *Codec) Decode(stored string) (string, error) {
	if !strings.HasPrefix(stored, encodedPrefix) {
		return stored, nil
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, encodedPrefix))
	if err != nil {
		return "", fmt.Errorf("decode credential: %w", err)
	}
	if len(raw) < 24 {
		return "", fmt.Errorf("decode credential: payload too short")
	}

	var nonce [24]byte
	copy(nonce[:], raw[:24])
	plain, ok := secretbox.Open(nil, raw[24:], &nonce, &c.key)
	if !ok {
		return "", fmt.Errorf("decode credential: key mismatch")
	}
	return string(plain), nil
}

// IsEncoded reports whether the stored value carries the encoding marker.
func IsEncoded(stored string) bool {
	return strings.HasPrefix(stored, encodedPrefix)
}
