// Package quillauth implements an embeddable email-based authentication
// engine: register with optional password, prove email ownership through a
// time-limited link, log in with email and password, and recover access
// through a forgot/reset-password flow.
//
// The package owns the authentication state machine and its cryptographic
// primitives only. Routing, persistence, outbound mail, CSRF, and sessions
// are collaborators injected through [Builder]: persistence behind
// [CredentialStore], mail behind [Notifier]. Ready-made collaborators live
// in stores/, notify/, and httpapi/.
//
// # Construction
//
//	engine, err := quillauth.New().
//		WithStore(store).
//		WithNotifier(notifier).
//		WithTokenKey(key).
//		WithConfig(quillauth.Config{
//			VerificationURLBase: "https://example.com/verify",
//			ResetURLBase:        "https://example.com/reset-password",
//		}).
//		Build()
//
// Engine methods are safe for concurrent use; the engine keeps no mutable
// state beyond its metric counters. Durable state lives in the store, whose
// unique-email constraint is what keeps two concurrent registrations from
// creating two records for one address.
//
// # What this package must NOT do
//
//   - Retry a store or notifier call; every flow runs to one terminal response.
//   - Disclose which token sub-check failed in an error a caller can see.
//   - Log or return a cleartext password or a raw hash.
package quillauth
