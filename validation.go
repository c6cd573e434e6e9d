package goAccount

import (
	"errors"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// maxSecretLength bounds codes and tokens before they reach the store.
const maxSecretLength = 128

func (e *Engine) validateRegister(r RegisterRequest) error {
	v := e.config.Validation
	return fieldErrors(validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.RuneLength(v.MinNameLength, v.MaxNameLength)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, v.MaxEmailLength), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(v.MinPasswordLength, e.config.newPasswordMax())),
		validation.Field(&r.ProfileImage, validation.Length(0, v.MaxProfileImage)),
	))
}

func (e *Engine) validateEmail(email string) error {
	r := struct {
		Email string `json:"email"`
	}{Email: email}
	return fieldErrors(validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, e.config.Validation.MaxEmailLength), is.Email),
	))
}

// validateCode accepts an empty email, which leaves the lookup unscoped.
func (e *Engine) validateCode(email, code string) error {
	r := struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}{Email: email, Code: code}
	return fieldErrors(validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Length(3, e.config.Validation.MaxEmailLength), is.Email),
		validation.Field(&r.Code, validation.Required, validation.Length(0, maxSecretLength)),
	))
}

func (e *Engine) validateLogin(email, password string) error {
	r := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}
	return fieldErrors(validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(0, e.config.Validation.MaxPasswordLength)),
	))
}

func (e *Engine) validateReset(token, password string) error {
	r := struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}{Token: token, Password: password}
	v := e.config.Validation
	return fieldErrors(validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required, validation.Length(0, maxSecretLength)),
		validation.Field(&r.Password, validation.Required, validation.Length(v.MinPasswordLength, e.config.newPasswordMax())),
	))
}

func (e *Engine) validateChange(current, next string) error {
	r := struct {
		Current string `json:"currentPassword"`
		New     string `json:"newPassword"`
	}{Current: current, New: next}
	v := e.config.Validation
	return fieldErrors(validation.ValidateStruct(&r,
		validation.Field(&r.Current, validation.Required, validation.Length(0, v.MaxPasswordLength)),
		validation.Field(&r.New,
			validation.Required,
			validation.Length(v.MinPasswordLength, e.config.newPasswordMax()),
			validation.By(differentFrom(current)),
		),
	))
}

func (e *Engine) validateProfile(u ProfileUpdate) error {
	v := e.config.Validation
	return fieldErrors(validation.ValidateStruct(&u,
		validation.Field(&u.Name, validation.By(notBlank), validation.RuneLength(v.MinNameLength, v.MaxNameLength)),
		validation.Field(&u.ProfileImage, validation.Length(0, v.MaxProfileImage)),
	))
}

func notBlank(value interface{}) error {
	s, ok := value.(*string)
	if !ok || s == nil {
		return nil
	}
	if strings.TrimSpace(*s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}

func differentFrom(current string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != "" && s == current {
			return errors.New("must differ from the current password")
		}
		return nil
	}
}

// fieldErrors converts ozzo errors into a *ValidationError with fields in
// a stable order.
func fieldErrors(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return &ValidationError{Fields: []FieldError{{Field: "request", Message: err.Error()}}}
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(errs))}
	for field, fe := range errs {
		if fe == nil {
			continue
		}
		out.Fields = append(out.Fields, FieldError{Field: field, Message: fe.Error()})
	}
	sort.Slice(out.Fields, func(i, j int) bool { return out.Fields[i].Field < out.Fields[j].Field })
	return out
}
