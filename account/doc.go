// Package account defines the account record and the persistence contract
// shared by every store adapter.
//
// # Concurrency
//
// Store.Update is a compare-and-swap keyed on Account.Version. Callers read a
// record, mutate a copy, and submit it; the write is applied only if nobody
// else advanced the version in between. Adapters maintain the email,
// verification-code and reset-digest indexes inside the same atomic unit.
//
// # What this package must NOT do
//
//   - Hash passwords, generate secrets, or decide state transitions.
//   - Import goAccount or any internal package.
package account
