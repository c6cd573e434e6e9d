// Package jwt issues and verifies the signed session tokens handed to
// clients after login.
//
// Tokens carry the account id (sub), the account email, iat and exp, plus
// iss and an optional aud. Signatures are checked before any claim is
// trusted; rejections are reported as one of [ErrMalformed],
// [ErrSignatureInvalid], [ErrExpired] or [ErrInvalidClaims] and never carry
// claim contents.
//
// # What this package must NOT do
//
//   - Load accounts or decide whether an account may hold a token.
//   - Keep server-side token state; tokens are self-contained.
package jwt
