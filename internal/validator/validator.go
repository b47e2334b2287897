package validator

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aminshahid573/authapi/internal/domain"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func ValidateRegister(req domain.RegisterRequest) error {
	if err := ValidateEmail(req.Email); err != nil {
		return err
	}
	if err := ValidateName(req.Name); err != nil {
		return err
	}
	return ValidatePasswordPair("password1", req.Password1, req.Password2)
}

func ValidateLogin(req domain.LoginRequest) error {
	if err := ValidateEmail(req.Email); err != nil {
		return err
	}
	return ValidateRequired("password", req.Password)
}

func ValidatePasswordChange(req domain.PasswordChangeRequest) error {
	if err := ValidateRequired("old_password", req.OldPassword); err != nil {
		return err
	}
	return ValidatePasswordPair("new_password1", req.NewPassword1, req.NewPassword2)
}

func ValidatePasswordResetConfirm(req domain.PasswordResetConfirmRequest) error {
	if err := ValidateRequired("uid", req.UID); err != nil {
		return err
	}
	if err := ValidateRequired("token", req.Token); err != nil {
		return err
	}
	return ValidatePasswordPair("new_password1", req.NewPassword1, req.NewPassword2)
}

func ValidateUpdateUser(req domain.UpdateUserRequest) error {
	if req.Name == nil {
		return nil
	}
	return ValidateName(*req.Name)
}

// ValidatePasswordPair checks password strength and that the confirmation
// field repeats it. Errors are reported under field.
func ValidatePasswordPair(field, password, confirm string) error {
	if err := validatePassword(field, password); err != nil {
		return err
	}
	if password != confirm {
		return domain.ErrPasswordMismatch.WithDetails(map[string]string{
			"non_field_errors": "The two password fields didn't match.",
		})
	}
	return nil
}

func ValidateEmail(email string) error {
	if email == "" {
		return domain.ErrValidationFailed.WithDetails(map[string]string{
			"email": "is required",
		})
	}
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.ErrValidationFailed.WithDetails(map[string]string{
			"email": "invalid format",
		})
	}
	if !emailRegex.MatchString(email) {
		return domain.ErrValidationFailed.WithDetails(map[string]string{
			"email": "invalid format",
		})
	}
	return nil
}

func ValidatePassword(password string) error {
	return validatePassword("password", password)
}

func validatePassword(field, password string) error {
	if password == "" {
		return domain.ErrValidationFailed.WithDetails(map[string]string{
			field: "is required",
		})
	}
	if len(password) < 8 {
		return domain.ErrValidationFailed.WithDetails(map[string]string{
			field: "must be at least 8 characters",
		})
	}
	var hasUpper, hasLower, hasNumber bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}
	if !hasUpper || !hasLower || !hasNumber {
		return domain.ErrValidationFailed.WithDetails(map[string]string{
			field: "must contain uppercase, lowercase, and number",
		})
	}
	return nil
}

func ValidateName(name string) error {
	if err := ValidateRequired("name", name); err != nil {
		return err
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(name)); n < 2 || n > 100 {
		return domain.ErrValidationFailed.WithDetails(map[string]string{
			"name": "must be between 2 and 100 characters",
		})
	}
	return nil
}

func ValidateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.ErrValidationFailed.WithDetails(map[string]string{
			field: "is required",
		})
	}
	return nil
}
