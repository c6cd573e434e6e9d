// Package flows contains the orchestrators behind every Engine operation.
//
// Each Run* function takes a [Deps] value and works only through it: the
// account store, the password hasher, the token issuer, the mailer, the
// login guard and the mail throttle. Account transitions are computed as
// pure changes to a cloned record and written with Store.Update; on a version
// conflict the record is reloaded and the decision is made again from the
// fresh state.
//
// # Architecture boundaries
//
// Flows decide outcomes and map store errors onto the error values supplied
// in [Errors]. They do NOT own any resource; the Engine builds Deps once and
// owns the store, mailer and dispatcher.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goAccount (to avoid import cycles).
//   - Hold an account-level lock across mail dispatch or password hashing.
//   - Log or audit passwords, codes, raw reset tokens or digests.
package flows
