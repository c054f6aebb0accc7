// Package authgate implements the account authentication and
// session-revocation core behind the /user HTTP contract: registration
// with email verification, login and logout, and password recovery via
// one-time codes, backed by a token blacklist for immediate revocation.
//
// The [Engine] is the only externally reachable component. It
// orchestrates a [CredentialStore] (user records), a Redis-backed
// one-time-code store and rate limiter, a stateless JWT issuer, and the
// revocation blacklist. Construct one through [New]:
//
//	engine, err := authgate.New().
//		WithConfig(cfg).
//		WithRedis(rdb).
//		WithCredentialStore(store).
//		WithMailer(mailer).
//		Build()
//
// Tokens are stateless and revocation is stateful: a token verifies
// from its signature, expiry, and a blacklist lookup on every call,
// never from a server-side session table.
package authgate
