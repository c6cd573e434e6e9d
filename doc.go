// Package goAccount manages account credentials and the identity lifecycle
// around them: registration, email verification, login with brute-force
// protection, password reset and session-token issuance.
//
// The public surface is [Builder], [Engine], [Config] and the request and
// view types. An Engine is safe for concurrent use after [Builder.Build].
//
// # Architecture boundaries
//
// Persistence is an [account.Store] supplied by the caller (memory, Redis
// and Postgres adapters live under account/). Email goes through a
// [mailer.Mailer]. Flow orchestration, secret generation, the login guard,
// the mail throttle and audit dispatch live under internal/ and are never
// exported.
//
// Every read-modify-write of an account is a compare-and-swap on its
// version, so concurrent logins, verifications and resets against the same
// account never lose an update and single-use secrets are consumed once.
//
// # What this package must NOT do
//
//   - Return password digests, verification codes or reset digests in any
//     view type.
//   - Reveal through its error values whether an email address is
//     registered, except where registration itself reports a conflict.
//   - Hold an account-level lock across password hashing or email dispatch.
package goAccount
