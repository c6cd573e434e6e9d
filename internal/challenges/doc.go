// Package challenges issues and validates the two single-use secrets an
// account can hold: the six-digit email verification code and the password
// reset token.
//
// Functions here are pure over the values passed in. Persisting, clearing
// and consuming secrets is the caller's job, done in the same store update
// that applies the resulting state change.
//
// # What this package must NOT do
//
//   - Touch the store, the mailer, or any clock other than the supplied now.
//   - Persist or log a raw reset token.
package challenges
