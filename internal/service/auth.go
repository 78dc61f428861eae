// Package service provides the business logic for authentication, task
// management, and history reporting, delegating persistence to repositories.
package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/TaskKeeper/internal/models"
)

// bcryptCost is the fixed hashing cost for stored passwords.
const bcryptCost = 12

var (
	// ErrInvalidEmail means the email does not match a standard address shape.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrEmptyUsername means no username was supplied.
	ErrEmptyUsername = errors.New("username cannot be empty")
	// ErrEmailTaken means an account with that email already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUsernameTaken means an account with that username already exists.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrUnknownEmail means no account matches the email.
	ErrUnknownEmail = errors.New("email not found")
	// ErrWrongPassword means the password did not match the stored hash.
	ErrWrongPassword = errors.New("incorrect password")
)

// WeakPasswordError reports the first password rule the candidate fails,
// checked in order: length, uppercase, lowercase, digit.
type WeakPasswordError struct {
	Reason string
}

func (e *WeakPasswordError) Error() string { return e.Reason }

var validate = validator.New()

// CredentialRepository defines the persistence operations required by
// AuthService.
type CredentialRepository interface {
	// Load returns all accounts plus the number of malformed lines skipped.
	Load() ([]models.Account, int, error)
	// Rewrite replaces the whole credential store with the given accounts.
	Rewrite([]models.Account) error
}

// AuthService implements registration and authentication over a
// credential repository.
type AuthService struct {
	repo CredentialRepository
	log  *zap.Logger
}

// NewAuthService constructs an AuthService using the provided repository.
func NewAuthService(repo CredentialRepository, log *zap.Logger) *AuthService {
	return &AuthService{repo: repo, log: log}
}

// Register validates the new account, hashes the password, and persists
// the record by rewriting the whole credential store. Validation order:
// email shape, password strength, username presence, then duplicate email
// and duplicate username. The plaintext password is discarded after
// hashing; it is never stored or logged.
func (s *AuthService) Register(username, email, password string) (models.Account, error) {
	if err := validate.Var(email, "required,email"); err != nil {
		return models.Account{}, ErrInvalidEmail
	}
	if err := checkPassword(password); err != nil {
		return models.Account{}, err
	}
	if strings.TrimSpace(username) == "" {
		return models.Account{}, ErrEmptyUsername
	}

	accounts, skipped, err := s.repo.Load()
	if err != nil {
		return models.Account{}, fmt.Errorf("load accounts: %w", err)
	}
	if skipped > 0 {
		s.log.Warn("skipped malformed credential lines", zap.Int("count", skipped))
	}
	for _, a := range accounts {
		if a.Email == email {
			return models.Account{}, ErrEmailTaken
		}
	}
	for _, a := range accounts {
		if a.Username == username {
			return models.Account{}, ErrUsernameTaken
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return models.Account{}, fmt.Errorf("hash password: %w", err)
	}
	account := models.Account{Username: username, Email: email, PasswordHash: hash}
	if err := s.repo.Rewrite(append(accounts, account)); err != nil {
		return models.Account{}, fmt.Errorf("save accounts: %w", err)
	}
	s.log.Info("registered account", zap.String("username", username))
	return account, nil
}

// Authenticate looks the email up and compares the password against the
// stored hash. The unknown-email and wrong-password cases are reported as
// distinct errors, matching the application's historical messages.
func (s *AuthService) Authenticate(email, password string) (models.Account, error) {
	accounts, _, err := s.repo.Load()
	if err != nil {
		return models.Account{}, fmt.Errorf("load accounts: %w", err)
	}
	for _, a := range accounts {
		if a.Email != email {
			continue
		}
		if bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(password)) != nil {
			return models.Account{}, ErrWrongPassword
		}
		return a, nil
	}
	return models.Account{}, ErrUnknownEmail
}

// checkPassword enforces the password rules in order and names the first
// unmet one.
func checkPassword(password string) error {
	if len(password) < 8 {
		return &WeakPasswordError{Reason: "password must be at least 8 characters"}
	}
	if !strings.ContainsFunc(password, unicode.IsUpper) {
		return &WeakPasswordError{Reason: "password must contain an uppercase letter"}
	}
	if !strings.ContainsFunc(password, unicode.IsLower) {
		return &WeakPasswordError{Reason: "password must contain a lowercase letter"}
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		return &WeakPasswordError{Reason: "password must contain a digit"}
	}
	return nil
}
