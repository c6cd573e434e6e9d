// Package limiters holds the account-level policies that decide when to stop
// honouring requests.
//
// # Limiters
//
//   - [Guard]: pure brute-force guard over the failure counter and lock
//     expiry stored on the account record.
//   - [MailThrottle]: per-email cap on verification and reset mail dispatch,
//     built on internal/rate. Nil-safe: a nil throttle allows everything.
//
// # What this package must NOT do
//
//   - Import goAccount or any sibling internal package except internal/rate.
//   - Persist guard state; flows write the returned state through the store.
package limiters
