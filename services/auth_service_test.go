package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"chat-backend/auth"
	"chat-backend/domain"
	"chat-backend/errors"
	"chat-backend/mocks"
)

func newTokenManager() *auth.TokenManager {
	return auth.NewTokenManager("test-secret", "chat-backend", "chat-backend", time.Hour)
}

func TestAuthService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockUsers := mocks.NewMockIUserRepository(ctrl)
	svc := NewAuthService(mockUsers, newTokenManager())

	t.Run("should register and store a hashed password", func(t *testing.T) {
		req := require.New(t)

		mockUsers.EXPECT().
			AddUser(gomock.Any()).
			DoAndReturn(func(user domain.User) (int, error) {
				// The plain password never reaches the repository
				req.NotEqual("Secret123456!", user.Pass)
				match, err := auth.ComparePassword("Secret123456!", user.Pass)
				req.NoError(err)
				req.True(match)
				return 1, nil
			}).
			Times(1)

		id, err := svc.Register(domain.User{Name: "alice", Email: "alice@example.com", Pass: "Secret123456!"})
		req.NoError(err)
		req.Equal(1, id)
	})

	t.Run("should fail validation before any hashing or storage", func(t *testing.T) {
		req := require.New(t)

		// Repository should NEVER be called
		mockUsers.EXPECT().AddUser(gomock.Any()).Times(0)

		_, err := svc.Register(domain.User{Name: "alice", Email: "not-an-email", Pass: "Secret123456!"})
		req.Error(err)
	})

	t.Run("should surface a duplicate name", func(t *testing.T) {
		req := require.New(t)

		mockUsers.EXPECT().
			AddUser(gomock.Any()).
			Return(0, errors.ErrUserAlreadyExists).
			Times(1)

		_, err := svc.Register(domain.User{Name: "alice", Email: "alice@example.com", Pass: "Secret123456!"})
		req.ErrorIs(err, errors.ErrUserAlreadyExists)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockUsers := mocks.NewMockIUserRepository(ctrl)
	tokens := newTokenManager()
	svc := NewAuthService(mockUsers, tokens)

	hashed, err := auth.HashPassword("Secret123456!")
	require.NoError(t, err)
	stored := domain.User{ID: 1, Name: "alice", Email: "alice@example.com", Pass: hashed}

	t.Run("should issue a token carrying the user's identity", func(t *testing.T) {
		req := require.New(t)
		mockUsers.EXPECT().FindUserByName("alice").Return(stored, nil).Times(1)

		token, err := svc.Login("alice", "Secret123456!")
		req.NoError(err)

		claims, err := tokens.Validate(token)
		req.NoError(err)
		req.Equal(1, claims.UserID)
		req.Equal("alice", claims.Username)
	})

	t.Run("wrong password collapses to invalid credentials", func(t *testing.T) {
		req := require.New(t)
		mockUsers.EXPECT().FindUserByName("alice").Return(stored, nil).Times(1)

		_, err := svc.Login("alice", "wrong")
		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})

	t.Run("unknown user collapses to invalid credentials", func(t *testing.T) {
		req := require.New(t)
		mockUsers.EXPECT().FindUserByName("ghost").Return(domain.User{}, errors.ErrUserNotFound).Times(1)

		_, err := svc.Login("ghost", "whatever")
		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})
}
