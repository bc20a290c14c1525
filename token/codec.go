package token

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

const (
	// KeySize is the required symmetric key length in bytes (AES-256).
	KeySize = 32

	verificationSecretSize = 32
)

// ErrDecrypt is returned for every decryption failure: malformed encoding,
// truncated input, wrong key, tampered ciphertext. Callers must not attempt
// to tell these apart; the single sentinel is what prevents an oracle.
var ErrDecrypt = errors.New("token decrypt failed")

// ErrKeySize is returned by New when the supplied key is not KeySize bytes.
var ErrKeySize = errors.New("token codec key must be 32 bytes")

// Codec encrypts opaque strings (record identifiers, verification tokens)
// into URL-safe ciphertexts so they can travel in a public link without
// revealing structure.
//
// A Codec holds an immutable key and is safe for concurrent use.
type Codec struct {
	aead cipher.AEAD
	rand io.Reader
}

// New builds a Codec from a 32-byte key. The random source feeds IV and
// verification-token generation; pass nil to use crypto/rand.
func New(key []byte, random io.Reader) (*Codec, error) {
	if len(key) != KeySize {
		return nil, ErrKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if random == nil {
		random = rand.Reader
	}
	return &Codec{aead: aead, rand: random}, nil
}

// Encrypt seals plaintext under the codec key with a fresh random IV and
// returns base64url(iv || ciphertext), unpadded.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := io.ReadFull(c.rand, iv); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(iv, iv, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Every failure mode collapses to ErrDecrypt.
func (c *Codec) Decrypt(encoded string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrDecrypt
	}
	if len(raw) < c.aead.NonceSize()+c.aead.Overhead() {
		return "", ErrDecrypt
	}

	iv := raw[:c.aead.NonceSize()]
	plain, err := c.aead.Open(nil, iv, raw[c.aead.NonceSize():], nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plain), nil
}

// NewVerificationToken returns a fresh opaque token for email-verification
// and password-reset links: 32 random bytes, base64url without padding.
func (c *Codec) NewVerificationToken() (string, error) {
	var secret [verificationSecretSize]byte
	if _, err := io.ReadFull(c.rand, secret[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(secret[:]), nil
}
