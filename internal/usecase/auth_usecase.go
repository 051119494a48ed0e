package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iho/upiledger/internal/domain"
	"github.com/iho/upiledger/internal/infrastructure/metrics"
)

// AuthUseCase handles registration and login
type AuthUseCase struct {
	userRepo UserRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
	idGen    IDGenerator
	metrics  *metrics.Metrics
}

// NewAuthUseCase creates a new auth use case
func NewAuthUseCase(
	userRepo UserRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	idGen IDGenerator,
	m *metrics.Metrics,
) *AuthUseCase {
	return &AuthUseCase{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		idGen:    idGen,
		metrics:  m,
	}
}

// RegisterInput represents input for creating a user
type RegisterInput struct {
	Email    string
	Name     string
	Password string
	Role     domain.Role
}

// AuthResult is an authenticated user with a bearer token
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Register creates a new user and signs them in
func (uc *AuthUseCase) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	result, err := uc.register(ctx, input)
	uc.metrics.AuthAttempt("register", err)
	return result, err
}

func (uc *AuthUseCase) register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}

	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	if input.Role == "" {
		input.Role = domain.RoleCustomer
	}
	if !input.Role.IsValid() {
		return nil, domain.ErrInvalidRole
	}

	if _, err := uc.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := uc.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uc.idGen.Generate(),
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: hash,
		Role:         input.Role,
		CreatedAt:    time.Now().UTC(),
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return uc.issue(user)
}

// LoginInput represents authentication input
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies user credentials and issues a token
func (uc *AuthUseCase) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	result, err := uc.login(ctx, input)
	uc.metrics.AuthAttempt("login", err)
	return result, err
}

func (uc *AuthUseCase) login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := uc.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := uc.hasher.Compare(user.PasswordHash, input.Password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return uc.issue(user)
}

// GetUser retrieves a user by ID
func (uc *AuthUseCase) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

func (uc *AuthUseCase) issue(user *domain.User) (*AuthResult, error) {
	token, expiresAt, err := uc.tokens.Generate(user)
	if err != nil {
		return nil, err
	}

	// Don't return the hash
	user.PasswordHash = ""
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
