package domain

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidHandle     = errors.New("invalid handle")
	ErrInvalidHolderName = errors.New("invalid account holder name")
	ErrInvalidIFSC       = errors.New("invalid IFSC code")
	ErrInvalidBankName   = errors.New("invalid bank name")
	ErrAmountTooLarge    = errors.New("amount exceeds maximum allowed")
	ErrAmountPrecision   = errors.New("amount has more than two decimal places")
	ErrNoteTooLong       = errors.New("note is too long")
	ErrMessageTooLong    = errors.New("message is too long")
	ErrInvalidEmail      = errors.New("invalid email format")
	ErrPasswordTooWeak   = errors.New("password does not meet requirements")
	ErrInvalidStatus     = errors.New("invalid status")
)

// Validation constants
const (
	AmountScale           = 2
	MaxTransferAmount     = "100000000" // 100 million
	MaxNoteLength         = 255
	MaxMessageLength      = 255
	MaxHolderNameLength   = 120
	MinPasswordLength     = 8
	MaxPasswordLength     = 128
	generatedHandlePrefix = "upi"
)

var (
	handleRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,64}(@[a-zA-Z0-9.-]{2,64})?$`)
	ifscRegex   = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	emailRegex  = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

var maxTransferAmount = decimal.RequireFromString(MaxTransferAmount)

// ValidateAmount validates a transfer or request amount.
// Amounts are fixed-point with AmountScale fractional digits.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if !amount.Equal(amount.Truncate(AmountScale)) {
		return fmt.Errorf("%w: %w", ErrInvalidAmount, ErrAmountPrecision)
	}

	if amount.GreaterThan(maxTransferAmount) {
		return fmt.Errorf("%w: %w: maximum amount is %s", ErrInvalidAmount, ErrAmountTooLarge, MaxTransferAmount)
	}

	return nil
}

// ValidateOpeningBalance validates the funds an account is linked with.
func ValidateOpeningBalance(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}

	if !amount.Equal(amount.Truncate(AmountScale)) {
		return fmt.Errorf("%w: %w", ErrInvalidAmount, ErrAmountPrecision)
	}

	return nil
}

// ValidateHandle validates a payment handle such as "alice@okbank" or "upi3fa94c1b2d07".
func ValidateHandle(handle string) error {
	if !handleRegex.MatchString(handle) {
		return fmt.Errorf("%w: %q", ErrInvalidHandle, handle)
	}
	return nil
}

// NormalizeHandle trims and lower-cases a handle.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}

// NewHandle generates a random handle of the form "upi" + 12 hex characters.
func NewHandle() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return generatedHandlePrefix + hex.EncodeToString(b), nil
}

// ValidateHolderName validates the bank account holder name.
func ValidateHolderName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidHolderName)
	}

	if len(name) > MaxHolderNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidHolderName, MaxHolderNameLength)
	}

	return nil
}

// ValidateBankName validates the name of the bank an account is held at.
func ValidateBankName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > MaxHolderNameLength {
		return ErrInvalidBankName
	}
	return nil
}

// ValidateIFSC validates an Indian Financial System Code. Empty is allowed.
func ValidateIFSC(code string) error {
	if code == "" {
		return nil
	}
	if !ifscRegex.MatchString(code) {
		return fmt.Errorf("%w: %s", ErrInvalidIFSC, code)
	}
	return nil
}

// ValidateNote validates the free-text note attached to a transfer.
func ValidateNote(note string) error {
	if len(note) > MaxNoteLength {
		return fmt.Errorf("%w: limit is %d characters", ErrNoteTooLong, MaxNoteLength)
	}
	return nil
}

// ValidateMessage validates the message attached to a money request.
func ValidateMessage(message string) error {
	if len(message) > MaxMessageLength {
		return fmt.Errorf("%w: limit is %d characters", ErrMessageTooLong, MaxMessageLength)
	}
	return nil
}

// ValidateEmail validates email format
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}

	return nil
}

// ValidatePassword validates password strength
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrPasswordTooWeak, MinPasswordLength)
	}

	if len(password) > MaxPasswordLength {
		return fmt.Errorf("%w: must not exceed %d characters", ErrPasswordTooWeak, MaxPasswordLength)
	}

	hasLetter := strings.ContainsFunc(password, func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
	})
	hasNumber := strings.ContainsFunc(password, func(r rune) bool { return r >= '0' && r <= '9' })

	if !hasLetter || !hasNumber {
		return fmt.Errorf("%w: must contain letters and numbers", ErrPasswordTooWeak)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 100
	const DefaultPageSize = 20

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
