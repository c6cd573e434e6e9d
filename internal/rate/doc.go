// Package rate provides the Redis fixed-window counter that the mail
// throttle is built on.
//
// # Window semantics
//
// Fixed-window counters: INCR + EXPIRE on first hit. Keys are
// "<prefix>:<scope>:<identifier>" with the default prefix "am".
//
// # What this package must NOT do
//
//   - Implement domain-specific policies (those live in internal/limiters).
//   - Be imported outside the goAccount module.
package rate
