// Package blacklist records revoked token identifiers so that a token
// which is still cryptographically valid can be rejected immediately.
//
// Entries live in Redis with a TTL equal to the token's remaining
// natural lifetime: once the token would be rejected as expired anyway,
// the entry's absence is equivalent, so Redis expiry is the garbage
// collector and no background sweeper is needed.
package blacklist
