// Package stores holds the Redis persistence for one-time verification
// codes. One key exists per (email, purpose), so issuing a new code
// atomically supersedes the previous one; consumption runs under
// WATCH/MULTI so exactly one of any number of concurrent submissions
// wins.
package stores
