package password

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
)

// legacySaltLength is the number of leading characters of a legacy hash that
// hold the salt. The remainder is hex(md5(salt || password)), lowercase.
const legacySaltLength = 5

const legacyDigestHexLength = md5.Size * 2

func isLegacyFormat(encodedHash string) bool {
	if len(encodedHash) != legacySaltLength+legacyDigestHexLength {
		return false
	}
	for _, r := range encodedHash[legacySaltLength:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}

// verifyLegacy checks password against the pre-Argon2 encoding. It exists
// only for stored hashes produced by earlier releases; nothing in this
// package can produce a new legacy hash.
func verifyLegacy(password, encodedHash string) (bool, error) {
	if !isLegacyFormat(encodedHash) {
		return false, ErrUnknownHashFormat
	}

	salt := encodedHash[:legacySaltLength]
	digest := md5.Sum([]byte(salt + password))
	computed := hex.EncodeToString(digest[:])

	return subtle.ConstantTimeCompare([]byte(computed), []byte(encodedHash[legacySaltLength:])) == 1, nil
}
