package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/TaskKeeper/internal/models"
)

var (
	// ErrEmptyName means the task has no name.
	ErrEmptyName = errors.New("task name cannot be empty")
	// ErrInvalidPriority means the priority is outside the known set.
	ErrInvalidPriority = errors.New("invalid priority")
	// ErrDeadlineBeforeStart means the deadline does not come strictly
	// after the start time.
	ErrDeadlineBeforeStart = errors.New("deadline must be later than start time")
	// ErrTaskNotTerminal means the task is still due and cannot be archived.
	ErrTaskNotTerminal = errors.New("task cannot be moved to history while its status is still due")
	// ErrNoSuchTask means the position does not exist in the caller's view.
	ErrNoSuchTask = errors.New("no task at that position")
)

// TaskInput carries the user-editable fields of a task.
type TaskInput struct {
	Name        string
	Description string
	Start       time.Time
	Deadline    time.Time
	Priority    models.Priority
}

// TaskRepository defines the persistence operations required by TaskService.
type TaskRepository interface {
	// Load returns tasks in file order, filtered to owner when owner is
	// non-empty, plus the number of malformed lines skipped.
	Load(owner string) ([]models.Task, int, error)
	// Append adds one task record.
	Append(models.Task) error
	// Rewrite replaces the whole task store with the given tasks.
	Rewrite([]models.Task) error
}

// HistoryRepository defines the persistence operations required by
// TaskService and HistoryService.
type HistoryRepository interface {
	// Append adds one archived task record.
	Append(models.HistoryEntry) error
	// Load returns all entries plus the number of malformed lines skipped.
	Load() ([]models.HistoryEntry, int, error)
}

// TaskService implements CRUD over the active task set. Tasks have no
// identifier beyond their position in the store, so mutations address the
// index-th task of the owner's view and persist via full rewrite.
type TaskService struct {
	repo    TaskRepository
	history HistoryRepository
	log     *zap.Logger
}

// NewTaskService constructs a TaskService over the given repositories.
func NewTaskService(repo TaskRepository, history HistoryRepository, log *zap.Logger) *TaskService {
	return &TaskService{repo: repo, history: history, log: log}
}

// Load returns the owner's active tasks in file order. Before returning it
// runs the deadline-breach sweep: every task still due past its deadline is
// marked failed as of today and the transition is persisted. The sweep
// always covers the whole file, so a filtered load never drops other
// owners' records on rewrite.
func (s *TaskService) Load(owner string) ([]models.Task, error) {
	all, skipped, err := s.repo.Load("")
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	if skipped > 0 {
		s.log.Warn("skipped malformed task lines", zap.Int("count", skipped))
	}

	now := time.Now()
	swept := 0
	for i, t := range all {
		if t.Status.Kind == models.StatusDue && t.Deadline.Before(now) {
			all[i].Status = models.FailedOn(now)
			swept++
		}
	}
	if swept > 0 {
		if err := s.repo.Rewrite(all); err != nil {
			return nil, fmt.Errorf("persist deadline sweep: %w", err)
		}
		s.log.Info("failed past-deadline tasks", zap.Int("count", swept))
	}
	return filterOwner(all, owner), nil
}

// Create validates the input and appends a new due task.
func (s *TaskService) Create(owner string, input TaskInput) (models.Task, error) {
	if err := validateInput(input); err != nil {
		return models.Task{}, err
	}
	task := models.Task{
		Name:        input.Name,
		Description: input.Description,
		Start:       input.Start,
		Deadline:    input.Deadline,
		Priority:    input.Priority,
		Status:      models.Due(),
		Owner:       owner,
	}
	if err := s.repo.Append(task); err != nil {
		return models.Task{}, fmt.Errorf("append task: %w", err)
	}
	return task, nil
}

// Update replaces the editable fields of the index-th task of the owner's
// view. Editing reopens the task: its status resets to due.
func (s *TaskService) Update(owner string, index int, input TaskInput) (models.Task, error) {
	if err := validateInput(input); err != nil {
		return models.Task{}, err
	}
	return s.mutate(owner, index, func(t *models.Task) {
		t.Name = input.Name
		t.Description = input.Description
		t.Start = input.Start
		t.Deadline = input.Deadline
		t.Priority = input.Priority
		t.Status = models.Due()
	})
}

// MarkDone sets the task's status to done, stamped with today's date.
func (s *TaskService) MarkDone(owner string, index int) (models.Task, error) {
	return s.mutate(owner, index, func(t *models.Task) {
		t.Status = models.DoneOn(time.Now())
	})
}

// MarkFailed sets the task's status to failed, stamped with today's date.
func (s *TaskService) MarkFailed(owner string, index int) (models.Task, error) {
	return s.mutate(owner, index, func(t *models.Task) {
		t.Status = models.FailedOn(time.Now())
	})
}

// Delete removes the index-th task of the owner's view outright.
func (s *TaskService) Delete(owner string, index int) error {
	all, _, err := s.repo.Load("")
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	pos, err := viewIndex(all, owner, index)
	if err != nil {
		return err
	}
	all = append(all[:pos], all[pos+1:]...)
	if err := s.repo.Rewrite(all); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}

// ClearAll removes every task in the owner's view. In multi-user mode other
// owners' tasks survive.
func (s *TaskService) ClearAll(owner string) error {
	if owner == "" {
		if err := s.repo.Rewrite(nil); err != nil {
			return fmt.Errorf("save tasks: %w", err)
		}
		return nil
	}
	all, _, err := s.repo.Load("")
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	var keep []models.Task
	for _, t := range all {
		if t.Owner != owner {
			keep = append(keep, t)
		}
	}
	if err := s.repo.Rewrite(keep); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}

// Archive moves the index-th task of the owner's view into the history
// store. Only terminal tasks may be archived; a due task is rejected with
// neither store mutated. The history append happens before the task store
// rewrite so a failed append leaves the active set intact.
func (s *TaskService) Archive(owner string, index int) (models.HistoryEntry, error) {
	all, _, err := s.repo.Load("")
	if err != nil {
		return models.Task{}, fmt.Errorf("load tasks: %w", err)
	}
	pos, err := viewIndex(all, owner, index)
	if err != nil {
		return models.Task{}, err
	}
	task := all[pos]
	if !task.Status.Terminal() {
		return models.Task{}, ErrTaskNotTerminal
	}
	if err := s.history.Append(task); err != nil {
		return models.Task{}, fmt.Errorf("append history: %w", err)
	}
	all = append(all[:pos], all[pos+1:]...)
	if err := s.repo.Rewrite(all); err != nil {
		return models.Task{}, fmt.Errorf("save tasks: %w", err)
	}
	s.log.Info("archived task", zap.String("name", task.Name))
	return task, nil
}

// Upcoming returns the owner's due tasks whose deadline falls within the
// window, soonest first.
func (s *TaskService) Upcoming(owner string, within time.Duration) ([]models.Task, error) {
	tasks, err := s.Load(owner)
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().Add(within)
	var out []models.Task
	for _, t := range tasks {
		if t.Status.Kind == models.StatusDue && !t.Deadline.After(cutoff) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Deadline.Before(out[j].Deadline) })
	return out, nil
}

// mutate applies fn to the index-th task of the owner's view and rewrites
// the whole file. It reads the raw store, without the sweep, so a failed
// precondition leaves the file untouched.
func (s *TaskService) mutate(owner string, index int, fn func(*models.Task)) (models.Task, error) {
	all, _, err := s.repo.Load("")
	if err != nil {
		return models.Task{}, fmt.Errorf("load tasks: %w", err)
	}
	pos, err := viewIndex(all, owner, index)
	if err != nil {
		return models.Task{}, err
	}
	fn(&all[pos])
	if err := s.repo.Rewrite(all); err != nil {
		return models.Task{}, fmt.Errorf("save tasks: %w", err)
	}
	return all[pos], nil
}

// viewIndex translates an index within the owner's view into a position in
// the full record sequence.
func viewIndex(all []models.Task, owner string, index int) (int, error) {
	if index < 0 {
		return 0, ErrNoSuchTask
	}
	seen := 0
	for i, t := range all {
		if owner != "" && t.Owner != owner {
			continue
		}
		if seen == index {
			return i, nil
		}
		seen++
	}
	return 0, ErrNoSuchTask
}

func filterOwner(tasks []models.Task, owner string) []models.Task {
	if owner == "" {
		return tasks
	}
	var out []models.Task
	for _, t := range tasks {
		if t.Owner == owner {
			out = append(out, t)
		}
	}
	return out
}

func validateInput(input TaskInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return ErrEmptyName
	}
	if _, err := models.ParsePriority(string(input.Priority)); err != nil {
		return ErrInvalidPriority
	}
	if !input.Deadline.After(input.Start) {
		return ErrDeadlineBeforeStart
	}
	return nil
}
