package repository

import (
	"fmt"
	"strings"

	"github.com/atinyakov/TaskKeeper/internal/models"
)

// FileCredentialRepository stores one account per line as
// "username | email | hash". Registration rewrites the whole file rather
// than appending, which keeps the format free of partial-line corruption
// from a crashed append.
type FileCredentialRepository struct {
	// Path is the backing file.
	Path string
}

// NewFileCredentialRepository creates a credential repository over the given file.
func NewFileCredentialRepository(path string) *FileCredentialRepository {
	return &FileCredentialRepository{Path: path}
}

// Load parses every well-formed line into an account, in file order, and
// returns the number of malformed lines it skipped.
func (r *FileCredentialRepository) Load() ([]models.Account, int, error) {
	lines, err := readLines(r.Path)
	if err != nil {
		return nil, 0, err
	}

	var accounts []models.Account
	skipped := 0
	for _, line := range lines {
		account, err := parseAccount(line)
		if err != nil {
			skipped++
			continue
		}
		accounts = append(accounts, account)
	}
	return accounts, skipped, nil
}

// Rewrite replaces the whole file with the given accounts in order.
func (r *FileCredentialRepository) Rewrite(accounts []models.Account) error {
	lines := make([]string, 0, len(accounts))
	for _, a := range accounts {
		lines = append(lines, encodeAccount(a))
	}
	return writeLines(r.Path, lines)
}

func encodeAccount(a models.Account) string {
	return strings.Join([]string{a.Username, a.Email, string(a.PasswordHash)}, fieldSep)
}

func parseAccount(line string) (models.Account, error) {
	parts := strings.Split(line, fieldSep)
	if len(parts) != 3 {
		return models.Account{}, fmt.Errorf("credential record: want 3 fields, got %d", len(parts))
	}
	return models.Account{
		Username:     parts[0],
		Email:        parts[1],
		PasswordHash: []byte(parts[2]),
	}, nil
}
