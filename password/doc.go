// Package password implements the one-way credential digest used for
// account passwords.
//
// Two algorithms are available: Argon2id (default, PHC string encoding) and
// bcrypt. [Verifier] hashes with the configured algorithm and verifies digests
// of either algorithm by their prefix, so changing the algorithm never locks
// out existing accounts; [Verifier.NeedsUpgrade] reports digests that should
// be rehashed on the next successful login.
//
// # What this package must NOT do
//
//   - Normalize or trim passwords; raw string bytes are hashed as provided.
//   - Return an error for a wrong password; only malformed digests error.
package password
