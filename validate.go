package parley

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinPasswordLength is the shortest password accepted by the forms.
const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// LoginForm is the input of the login view.
type LoginForm struct {
	Email    string
	Password string
}

// RegistrationForm is the input of the register view.
type RegistrationForm struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// ValidateLoginForm checks a LoginForm before any network call. It returns
// nil when the form is valid, or a *ValidationError describing the first
// failed check.
func ValidateLoginForm(f LoginForm) error {
	fields := map[string]string{"email": f.Email, "password": f.Password}
	if missing := firstMissing(fields, "email", "password"); missing != "" {
		return &ValidationError{Field: missing, Message: "All fields are required."}
	}
	if err := validateEmail(f.Email); err != nil {
		return err
	}
	return validatePassword(f.Password)
}

// ValidateRegistrationForm checks a RegistrationForm before any network call.
// Checks run in order: required fields, email format, password length,
// password confirmation, name length.
func ValidateRegistrationForm(f RegistrationForm) error {
	fields := map[string]string{
		"name":             f.Name,
		"email":            f.Email,
		"password":         f.Password,
		"confirm_password": f.ConfirmPassword,
	}
	if missing := firstMissing(fields, "name", "email", "password", "confirm_password"); missing != "" {
		return &ValidationError{Field: missing, Message: "All fields are required."}
	}
	if err := validateEmail(f.Email); err != nil {
		return err
	}
	if err := validatePassword(f.Password); err != nil {
		return err
	}
	if f.Password != f.ConfirmPassword {
		return &ValidationError{Field: "confirm_password", Message: "Passwords do not match."}
	}
	if utf8.RuneCountInString(strings.TrimSpace(f.Name)) < 2 {
		return &ValidationError{Field: "name", Message: "Name must be at least 2 characters."}
	}
	return nil
}

func validateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return &ValidationError{Field: "email", Message: "Email format is invalid."}
	}
	return nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return &ValidationError{Field: "password", Message: "Password must be at least 6 characters."}
	}
	return nil
}

// firstMissing returns the first key in order whose value is empty.
func firstMissing(fields map[string]string, order ...string) string {
	for _, k := range order {
		if fields[k] == "" {
			return k
		}
	}
	return ""
}
