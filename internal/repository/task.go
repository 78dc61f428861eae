package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/atinyakov/TaskKeeper/internal/models"
)

// FileTaskRepository stores the active task set in a pipe-delimited text
// file. In multi-user mode every record carries a trailing owner field;
// in single-user mode the field is absent entirely, so the two variants
// have different fixed field counts.
type FileTaskRepository struct {
	// Path is the backing file.
	Path string
	// MultiUser selects the seven-field record variant with an owner.
	MultiUser bool
}

// NewFileTaskRepository creates a task repository over the given file.
func NewFileTaskRepository(path string, multiUser bool) *FileTaskRepository {
	return &FileTaskRepository{Path: path, MultiUser: multiUser}
}

// Load parses every well-formed line into a task, in file order, and
// returns the number of malformed lines it skipped. If owner is non-empty
// only that owner's tasks are returned; the skip count still covers the
// whole file.
func (r *FileTaskRepository) Load(owner string) ([]models.Task, int, error) {
	lines, err := readLines(r.Path)
	if err != nil {
		return nil, 0, err
	}

	var tasks []models.Task
	skipped := 0
	for _, line := range lines {
		task, err := parseTask(line, r.MultiUser)
		if err != nil {
			skipped++
			continue
		}
		if owner != "" && task.Owner != owner {
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, skipped, nil
}

// Append adds one task record to the end of the file.
func (r *FileTaskRepository) Append(task models.Task) error {
	return appendLine(r.Path, encodeTask(task, r.MultiUser))
}

// Rewrite replaces the whole file with the given tasks in order. Records
// have no identifier beyond their position, so every mutation other than
// creation goes through here.
func (r *FileTaskRepository) Rewrite(tasks []models.Task) error {
	lines := make([]string, 0, len(tasks))
	for _, t := range tasks {
		lines = append(lines, encodeTask(t, r.MultiUser))
	}
	return writeLines(r.Path, lines)
}

func encodeTask(t models.Task, multiUser bool) string {
	fields := []string{
		t.Name,
		t.Description,
		t.Start.Format(models.TimeLayout),
		t.Deadline.Format(models.TimeLayout),
		string(t.Priority),
		t.Status.String(),
	}
	if multiUser {
		fields = append(fields, t.Owner)
	}
	return strings.Join(fields, fieldSep)
}

func parseTask(line string, multiUser bool) (models.Task, error) {
	want := 6
	if multiUser {
		want = 7
	}
	parts := strings.Split(line, fieldSep)
	if len(parts) != want {
		return models.Task{}, fmt.Errorf("task record: want %d fields, got %d", want, len(parts))
	}

	start, err := time.Parse(models.TimeLayout, parts[2])
	if err != nil {
		return models.Task{}, fmt.Errorf("task record: start time: %w", err)
	}
	deadline, err := time.Parse(models.TimeLayout, parts[3])
	if err != nil {
		return models.Task{}, fmt.Errorf("task record: deadline: %w", err)
	}
	priority, err := models.ParsePriority(parts[4])
	if err != nil {
		return models.Task{}, fmt.Errorf("task record: %w", err)
	}
	status, err := models.ParseStatus(parts[5])
	if err != nil {
		return models.Task{}, fmt.Errorf("task record: %w", err)
	}

	task := models.Task{
		Name:        parts[0],
		Description: parts[1],
		Start:       start,
		Deadline:    deadline,
		Priority:    priority,
		Status:      status,
	}
	if multiUser {
		task.Owner = parts[6]
	}
	return task, nil
}
