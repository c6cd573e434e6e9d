// Package internal contains helpers private to goAccount, mainly secure
// random generation for verification codes and reset tokens.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - challenges: verification code and reset token validation
//   - flows: flow orchestrators for every Engine operation
//   - limiters: login guard and mail throttle
//   - logging: context-aware structured logger
//   - rate: Redis fixed-window counters
//   - security: posture report behind Engine.SecurityReport
//
// # What this package must NOT do
//
//   - Be imported by any package outside the goAccount module.
package internal
