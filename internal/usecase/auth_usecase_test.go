package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/upiledger/internal/adapter/repository/memory"
	"github.com/iho/upiledger/internal/domain"
	"github.com/iho/upiledger/internal/usecase"
	"github.com/iho/upiledger/internal/usecase/mocks"
)

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (plainHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

type stubTokens struct{}

func (stubTokens) Generate(user *domain.User) (string, time.Time, error) {
	return "token-" + user.ID, time.Unix(1700000000, 0), nil
}

func newAuthUseCase(users usecase.UserRepository) *usecase.AuthUseCase {
	return usecase.NewAuthUseCase(users, plainHasher{}, stubTokens{}, mocks.NewSequentialIDGenerator("user"), nil)
}

func TestAuthUseCase_Register(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.RegisterInput
		wantErr error
	}{
		{name: "customer by default", input: usecase.RegisterInput{Email: "Alice@Example.com", Name: "Alice", Password: "secret123"}},
		{name: "operator", input: usecase.RegisterInput{Email: "ops@example.com", Password: "secret123", Role: domain.RoleOperator}},
		{name: "bad email", input: usecase.RegisterInput{Email: "nope", Password: "secret123"}, wantErr: domain.ErrInvalidEmail},
		{name: "weak password", input: usecase.RegisterInput{Email: "a@example.com", Password: "short"}, wantErr: domain.ErrPasswordTooWeak},
		{name: "unknown role", input: usecase.RegisterInput{Email: "a@example.com", Password: "secret123", Role: "admin"}, wantErr: domain.ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := newAuthUseCase(memory.NewUserRepository())

			result, err := uc.Register(context.Background(), tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "token-user-1", result.Token)
			assert.Empty(t, result.User.PasswordHash)
			assert.NotEqual(t, domain.Role(""), result.User.Role)
		})
	}
}

func TestAuthUseCase_RegisterDuplicateEmail(t *testing.T) {
	uc := newAuthUseCase(memory.NewUserRepository())
	ctx := context.Background()

	_, err := uc.Register(ctx, usecase.RegisterInput{Email: "a@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = uc.Register(ctx, usecase.RegisterInput{Email: "A@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestAuthUseCase_Login(t *testing.T) {
	users := memory.NewUserRepository()
	uc := newAuthUseCase(users)
	ctx := context.Background()

	_, err := uc.Register(ctx, usecase.RegisterInput{Email: "a@example.com", Password: "secret123"})
	require.NoError(t, err)

	result, err := uc.Login(ctx, usecase.LoginInput{Email: "A@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", result.User.Email)
	assert.Equal(t, domain.RoleCustomer, result.User.Role)

	_, err = uc.Login(ctx, usecase.LoginInput{Email: "a@example.com", Password: "wrong1234"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = uc.Login(ctx, usecase.LoginInput{Email: "ghost@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	user, err := uc.GetUser(ctx, result.User.ID)
	require.NoError(t, err)
	assert.Empty(t, user.PasswordHash)
}

func TestAuthUseCase_LoginStoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserRepository(ctrl)
	users.EXPECT().GetByEmail(gomock.Any(), "a@example.com").Return(nil, domain.StoreUnavailable(errors.New("down")))

	_, err := newAuthUseCase(users).Login(context.Background(), usecase.LoginInput{Email: "a@example.com", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
