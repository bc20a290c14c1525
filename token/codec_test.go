package token

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func testKey() []byte {
	key := make([]byte, KeySize)
	copy(key, "0123456789abcdef0123456789abcdef")
	return key
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	codec, err := New(testKey(), nil)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	for _, plaintext := range []string{
		"",
		"1",
		"42",
		"a-record-id",
		"kC9vXz_0aH3mQ2nL8pR5tY7wB1dF4gJ6",
		strings.Repeat("long plaintext block boundary test ", 8),
	} {
		encoded, err := codec.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt(%q) error: %v", plaintext, err)
		}
		got, err := codec.Decrypt(encoded)
		if err != nil {
			t.Fatalf("Decrypt of Encrypt(%q) error: %v", plaintext, err)
		}
		if got != plaintext {
			t.Fatalf("round trip mismatch: got %q want %q", got, plaintext)
		}
	}
}

func TestEncryptFreshIVPerCall(t *testing.T) {
	codec, err := New(testKey(), nil)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	first, err := codec.Encrypt("same plaintext")
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}
	second, err := codec.Encrypt("same plaintext")
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}
	if first == second {
		t.Fatal("two encryptions of the same plaintext must differ")
	}
}

func TestDecryptRejectsTamperedInput(t *testing.T) {
	codec, err := New(testKey(), nil)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	encoded, err := codec.Encrypt("record-7")
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}

	cases := []struct {
		name  string
		input string
	}{
		{"not base64url", "%%%not-base64%%%"},
		{"empty", ""},
		{"truncated", encoded[:len(encoded)/2]},
		{"short raw", base64.RawURLEncoding.EncodeToString(raw[:8])},
		{"flipped last byte", flipByte(raw, len(raw)-1)},
		{"flipped iv byte", flipByte(raw, 3)},
		{"appended byte", base64.RawURLEncoding.EncodeToString(append(bytes.Clone(raw), 0x01))},
	}
	for _, tc := range cases {
		if _, err := codec.Decrypt(tc.input); !errors.Is(err, ErrDecrypt) {
			t.Fatalf("%s: expected ErrDecrypt, got %v", tc.name, err)
		}
	}
}

func TestDecryptWrongKey(t *testing.T) {
	codec, err := New(testKey(), nil)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	otherKey := testKey()
	otherKey[0] ^= 0xff
	other, err := New(otherKey, nil)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	encoded, err := codec.Encrypt("record-7")
	if err != nil {
		t.Fatalf("Encrypt error: %v", err)
	}
	if _, err := other.Decrypt(encoded); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt under the wrong key, got %v", err)
	}
}

func TestNewRejectsBadKey(t *testing.T) {
	if _, err := New([]byte("short"), nil); !errors.Is(err, ErrKeySize) {
		t.Fatalf("expected ErrKeySize, got %v", err)
	}
}

func TestNewVerificationToken(t *testing.T) {
	codec, err := New(testKey(), nil)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	seen := map[string]bool{}
	for i := 0; i < 32; i++ {
		tok, err := codec.NewVerificationToken()
		if err != nil {
			t.Fatalf("NewVerificationToken error: %v", err)
		}
		if len(tok) != base64.RawURLEncoding.EncodedLen(32) {
			t.Fatalf("unexpected token length %d", len(tok))
		}
		if seen[tok] {
			t.Fatal("verification token repeated")
		}
		seen[tok] = true
	}
}

func flipByte(raw []byte, i int) string {
	mutated := bytes.Clone(raw)
	mutated[i] ^= 0x80
	return base64.RawURLEncoding.EncodeToString(mutated)
}
