// Package middleware adapts goAccount engine checks to net/http.
//
// # Guards
//
//   - [Guard] verifies the bearer token with Engine.Authenticate. No store
//     read.
//   - [RequireAccount] also loads the account, rejecting tokens whose account
//     was deleted after issue.
//   - [OptionalToken] attaches claims when a valid bearer is present and
//     passes the request through otherwise.
//
// [RequestContext] copies the client IP and request id onto the request
// context so engine audit events carry them.
//
// Guards never parse JWTs themselves and make no decision beyond pass or
// reject on the engine's answer.
package middleware
