package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

const (
	codeMin        = 100000
	codeSpan       = 900000
	resetTokenSize = 32
)

var errInvalidResetToken = errors.New("invalid reset token encoding")

// Reader is the entropy source. Tests may swap it.
var Reader io.Reader = rand.Reader

// NewVerificationCode returns a six-digit decimal code uniformly drawn from
// 100000..999999.
func NewVerificationCode() (string, error) {
	// Rejection sampling keeps the distribution uniform.
	const limit = (1 << 32) / codeSpan * codeSpan
	var buf [4]byte
	for {
		if _, err := io.ReadFull(Reader, buf[:]); err != nil {
			return "", err
		}
		n := binary.BigEndian.Uint32(buf[:])
		if n < limit {
			return fmt.Sprintf("%06d", codeMin+n%codeSpan), nil
		}
	}
}

// NewResetToken returns 256 random bits, hex encoded.
func NewResetToken() (string, error) {
	var raw [resetTokenSize]byte
	if _, err := io.ReadFull(Reader, raw[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw[:]), nil
}

// DigestResetToken returns hex(sha256(raw)). Only the digest is persisted.
func DigestResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// ValidResetTokenShape reports whether raw looks like a token produced by
// NewResetToken.
func ValidResetTokenShape(raw string) error {
	if len(raw) != resetTokenSize*2 {
		return errInvalidResetToken
	}
	if _, err := hex.DecodeString(raw); err != nil {
		return errInvalidResetToken
	}
	return nil
}
