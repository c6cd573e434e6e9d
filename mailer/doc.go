// Package mailer sends the three transactional emails an account receives:
// the verification code, the password reset token and the welcome note.
//
// [SMTP] delivers through an SMTP relay using github.com/wneessen/go-mail.
// [LogMailer] writes a structured log line instead and is meant for local
// development. Bodies are plain text.
package mailer
