package auth

import (
	"chat-backend/domain"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type registerRequest struct {
	Name  string `validate:"required,min=2,max=64"`
	Email string `validate:"required,email"`
	Pass  string `validate:"required,min=8,max=72"`
}

// ValidateRegister checks a registration payload before any hashing or
// storage work happens.
func ValidateRegister(user domain.User) error {
	return validate.Struct(registerRequest{
		Name:  user.Name,
		Email: user.Email,
		Pass:  user.Pass,
	})
}
