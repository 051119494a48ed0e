package domain

import (
	"errors"
	"time"
)

// User represents a registered identity that can own an account.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Role represents a user's access level
type Role string

const (
	// RoleCustomer can link one account, send money and raise requests
	RoleCustomer Role = "customer"

	// RoleOperator can additionally inspect flagged transfers and ledger consistency
	RoleOperator Role = "operator"
)

var validRoles = map[Role]bool{
	RoleCustomer: true,
	RoleOperator: true,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// CanOperate checks if the role may use operator-only endpoints
func (r Role) CanOperate() bool {
	return r == RoleOperator
}

// Authentication errors
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidRole        = errors.New("invalid role")
)
