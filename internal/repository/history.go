package repository

import (
	"github.com/atinyakov/TaskKeeper/internal/models"
)

// FileHistoryRepository is the append-only archive of terminal tasks.
// It shares the task record format, including the owner field in
// multi-user mode, and is never rewritten.
type FileHistoryRepository struct {
	// Path is the backing file.
	Path string
	// MultiUser selects the seven-field record variant with an owner.
	MultiUser bool
}

// NewFileHistoryRepository creates a history repository over the given file.
func NewFileHistoryRepository(path string, multiUser bool) *FileHistoryRepository {
	return &FileHistoryRepository{Path: path, MultiUser: multiUser}
}

// Append adds one archived task to the end of the file.
func (r *FileHistoryRepository) Append(entry models.HistoryEntry) error {
	return appendLine(r.Path, encodeTask(entry, r.MultiUser))
}

// Load parses every well-formed line into an entry, in file order, and
// returns the number of malformed lines it skipped. Owner and date
// filtering happen in the service layer.
func (r *FileHistoryRepository) Load() ([]models.HistoryEntry, int, error) {
	lines, err := readLines(r.Path)
	if err != nil {
		return nil, 0, err
	}

	var entries []models.HistoryEntry
	skipped := 0
	for _, line := range lines {
		entry, err := parseTask(line, r.MultiUser)
		if err != nil {
			skipped++
			continue
		}
		entries = append(entries, entry)
	}
	return entries, skipped, nil
}
