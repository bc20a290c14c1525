// Package token implements the symmetric codec that makes internal record
// identifiers and verification tokens safe to embed in public URLs.
//
// Ciphertexts are AES-256-GCM with a per-call random IV, encoded with
// unpadded base64url. Decryption failures are deliberately indistinct: the
// caller learns only that the value did not decrypt, never why.
package token
