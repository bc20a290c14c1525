// Package password implements dual-scheme password hashing and verification.
//
// # Output format
//
// New hashes are Argon2id encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Verification also accepts the encoding of a previous release: a 5-character
// salt prefix followed by hex(md5(salt || password)). That scheme is
// verify-only; [Hasher.Hash] can never emit it, and [Hasher.NeedsRehash]
// reports true for it so callers can upgrade on the next successful login.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords — callers supply plaintext and receive hashes.
//   - Log plaintext passwords or hash parameters at runtime.
//   - Produce new hashes under the legacy scheme.
package password
