// Package validate holds the input-validation primitives of the
// authentication flows: email canonicalization, site normalization, and the
// pluggable password strength policy.
package validate
