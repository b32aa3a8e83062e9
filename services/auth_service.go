package services

import (
	"fmt"

	"chat-backend/auth"
	"chat-backend/contract"
	"chat-backend/domain"
	"chat-backend/errors"
)

type IAuthService interface {
	Register(user domain.User) (int, error)
	Login(name, pass string) (string, error)
}

type AuthService struct {
	users  contract.IUserRepository
	tokens *auth.TokenManager
}

func NewAuthService(users contract.IUserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Register validates the payload, hashes the password and persists the
// account. Validation runs before any cryptographic work.
func (s *AuthService) Register(user domain.User) (int, error) {
	if err := auth.ValidateRegister(user); err != nil {
		return 0, fmt.Errorf("register validation: %w", err)
	}

	hashed, err := auth.HashPassword(user.Pass)
	if err != nil {
		return 0, fmt.Errorf("hashing failed: %w", err)
	}
	user.Pass = hashed

	return s.users.AddUser(user)
}

// Login verifies the credentials and issues a signed token. Unknown user
// and wrong password collapse into one error to prevent enumeration.
func (s *AuthService) Login(name, pass string) (string, error) {
	user, err := s.users.FindUserByName(name)
	if err != nil {
		return "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(pass, user.Pass)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID, user.Name)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return token, nil
}
