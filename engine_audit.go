package goAccount

import (
	"context"
	"errors"

	"github.com/MrEthical07/goAccount/internal/audit"
	"github.com/MrEthical07/goAccount/internal/flows"
)

const (
	auditEventRegister             = "account_register"
	auditEventRegisterRollback     = "account_register_rollback"
	auditEventVerificationResend   = "email_verification_resend"
	auditEventVerification         = "email_verification_confirm"
	auditEventLogin                = "login"
	auditEventAccountLocked        = "account_locked"
	auditEventPasswordResetRequest = "password_reset_request"
	auditEventPasswordResetConfirm = "password_reset_confirm"
	auditEventPasswordChange       = "password_change"
	auditEventTokenRefresh         = "token_refresh"
	auditEventProfileUpdate        = "profile_update"
)

// AuditErrorCode is the stable failure code carried by audit events.
type AuditErrorCode string

const (
	auditErrValidation         AuditErrorCode = "validation"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrNotVerified        AuditErrorCode = "account_unverified"
	auditErrAccountLocked      AuditErrorCode = "account_locked"
	auditErrInvalidCode        AuditErrorCode = "invalid_code"
	auditErrInvalidToken       AuditErrorCode = "invalid_token"
	auditErrNotFound           AuditErrorCode = "not_found"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func flowEvents() flows.Events {
	return flows.Events{
		Register:             auditEventRegister,
		RegisterRollback:     auditEventRegisterRollback,
		VerificationResend:   auditEventVerificationResend,
		Verification:         auditEventVerification,
		Login:                auditEventLogin,
		AccountLocked:        auditEventAccountLocked,
		PasswordResetRequest: auditEventPasswordResetRequest,
		PasswordResetConfirm: auditEventPasswordResetConfirm,
		PasswordChange:       auditEventPasswordChange,
		TokenRefresh:         auditEventTokenRefresh,
		ProfileUpdate:        auditEventProfileUpdate,
	}
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	accountID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := audit.Event{
		Timestamp: e.now().UTC(),
		Type:      eventType,
		AccountID: accountID,
		IP:        clientIPFromContext(ctx),
		RequestID: RequestIDFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Code = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return auditErrValidation
	case errors.Is(err, ErrConflict):
		return auditErrDuplicate
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrNotVerified):
		return auditErrNotVerified
	case errors.Is(err, ErrAccountLocked):
		return auditErrAccountLocked
	case errors.Is(err, ErrInvalidOrExpiredCode):
		return auditErrInvalidCode
	case errors.Is(err, ErrInvalidOrExpiredToken):
		return auditErrInvalidToken
	case errors.Is(err, ErrNotFound):
		return auditErrNotFound
	case errors.Is(err, ErrDependency):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
