package auth

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// bcrypt ignores input past 72 bytes.
const maxPasswordLen = 72

var validate = validator.New(validator.WithRequiredStructEnabled())

type registerInput struct {
	Email    string `validate:"required,email,max=254"`
	Username string `validate:"required,max=100"`
	Password string `validate:"required,min=6,max=72"`
}

type requestResetInput struct {
	Email string `validate:"required"`
}

type resetPasswordInput struct {
	Password string `validate:"required,min=6,max=72"`
}

// validateInput runs the struct tags on in and reports the first failure as
// ErrInvalidInput with a client-readable message.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate input: %w", err)
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, fieldMessage(verrs[0]))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "Email":
		if fe.Tag() == "required" {
			return "email is required"
		}
		return "a valid email is required"
	case "Username":
		if fe.Tag() == "required" {
			return "username is required"
		}
		return "username is too long"
	case "Password":
		switch fe.Tag() {
		case "required", "min":
			return fmt.Sprintf("password must be at least %d characters", minPasswordLen)
		case "max":
			return fmt.Sprintf("password must be at most %d characters", maxPasswordLen)
		}
	}
	return fe.Field() + " is invalid"
}
