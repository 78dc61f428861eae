package service

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/TaskKeeper/internal/models"
	"github.com/atinyakov/TaskKeeper/internal/repository"
)

func newTaskFixture(t *testing.T, multiUser bool) (*TaskService, *repository.FileTaskRepository, *repository.FileHistoryRepository) {
	dir := t.TempDir()
	taskRepo := repository.NewFileTaskRepository(filepath.Join(dir, "tasks.txt"), multiUser)
	histRepo := repository.NewFileHistoryRepository(filepath.Join(dir, "history.txt"), multiUser)
	return NewTaskService(taskRepo, histRepo, zap.NewNop()), taskRepo, histRepo
}

func input(name string, start, deadline time.Time) TaskInput {
	return TaskInput{
		Name:        name,
		Description: "desc",
		Start:       start,
		Deadline:    deadline,
		Priority:    models.PriorityMedium,
	}
}

func TestCreate_RejectsInvalidInput(t *testing.T) {
	svc, repo, _ := newTaskFixture(t, false)
	now := time.Now()

	cases := []struct {
		name  string
		input TaskInput
		want  error
	}{
		{"empty name", input("  ", now, now.Add(time.Hour)), ErrEmptyName},
		{"bad priority", TaskInput{Name: "x", Start: now, Deadline: now.Add(time.Hour), Priority: "Urgent"}, ErrInvalidPriority},
		{"inverted range", input("x", now.Add(2*time.Hour), now.Add(time.Hour)), ErrDeadlineBeforeStart},
		{"equal times", input("x", now, now), ErrDeadlineBeforeStart},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := svc.Create("", c.input)
			assert.ErrorIs(t, err, c.want)
		})
	}

	// No store mutation happened: the file was never created.
	_, err := os.Stat(repo.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestLoad_SweepsPastDeadlineTasks(t *testing.T) {
	svc, repo, _ := newTaskFixture(t, false)
	now := time.Now()

	_, err := svc.Create("", input("overdue", now.Add(-48*time.Hour), now.Add(-24*time.Hour)))
	require.NoError(t, err)
	_, err = svc.Create("", input("on track", now, now.Add(24*time.Hour)))
	require.NoError(t, err)

	tasks, err := svc.Load("")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, models.StatusFailed, tasks[0].Status.Kind)
	assert.Equal(t, models.DateOnly(time.Now()), tasks[0].Status.CompletedOn)
	assert.Equal(t, models.StatusDue, tasks[1].Status.Kind)

	// The transition is persisted: a second load sees the task already
	// failed and does not rewrite the file again.
	before, err := os.ReadFile(repo.Path)
	require.NoError(t, err)

	again, err := svc.Load("")
	require.NoError(t, err)
	assert.Equal(t, tasks, again)

	after, err := os.ReadFile(repo.Path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestMarkDone_EmbedsTodaysDate(t *testing.T) {
	svc, _, _ := newTaskFixture(t, false)
	now := time.Now()

	_, err := svc.Create("", input("ship release", now, now.Add(24*time.Hour)))
	require.NoError(t, err)

	task, err := svc.MarkDone("", 0)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, task.Status.Kind)
	assert.Equal(t, models.DateOnly(time.Now()), task.Status.CompletedOn)

	tasks, err := svc.Load("")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, task.Status, tasks[0].Status)
}

func TestMarkFailed_EmbedsTodaysDate(t *testing.T) {
	svc, _, _ := newTaskFixture(t, false)
	now := time.Now()

	_, err := svc.Create("", input("give up", now, now.Add(24*time.Hour)))
	require.NoError(t, err)

	task, err := svc.MarkFailed("", 0)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, task.Status.Kind)
	assert.Equal(t, models.DateOnly(time.Now()), task.Status.CompletedOn)
}

func TestUpdate_ReopensTask(t *testing.T) {
	svc, _, _ := newTaskFixture(t, false)
	now := time.Now()

	_, err := svc.Create("", input("draft", now, now.Add(24*time.Hour)))
	require.NoError(t, err)
	_, err = svc.MarkDone("", 0)
	require.NoError(t, err)

	task, err := svc.Update("", 0, input("final draft", now, now.Add(48*time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, "final draft", task.Name)
	assert.Equal(t, models.StatusDue, task.Status.Kind)
}

func TestArchive_DueTaskRejectedWithoutMutation(t *testing.T) {
	svc, taskRepo, histRepo := newTaskFixture(t, false)
	now := time.Now()

	_, err := svc.Create("", input("still due", now, now.Add(24*time.Hour)))
	require.NoError(t, err)

	before, err := os.ReadFile(taskRepo.Path)
	require.NoError(t, err)

	_, err = svc.Archive("", 0)
	assert.ErrorIs(t, err, ErrTaskNotTerminal)

	after, err := os.ReadFile(taskRepo.Path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	_, err = os.Stat(histRepo.Path)
	assert.True(t, os.IsNotExist(err), "history store must stay untouched")
}

func TestArchive_MovesTerminalTask(t *testing.T) {
	svc, _, histRepo := newTaskFixture(t, false)
	now := time.Now()

	_, err := svc.Create("", input("finish", now, now.Add(24*time.Hour)))
	require.NoError(t, err)
	done, err := svc.MarkDone("", 0)
	require.NoError(t, err)

	archived, err := svc.Archive("", 0)
	require.NoError(t, err)
	assert.Equal(t, done, archived)

	tasks, err := svc.Load("")
	require.NoError(t, err)
	assert.Empty(t, tasks)

	entries, _, err := histRepo.Load()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, done, entries[0])
}

func TestMultiUser_MutationsStayScoped(t *testing.T) {
	svc, _, _ := newTaskFixture(t, true)
	now := time.Now()

	_, err := svc.Create("alice", input("a1", now, now.Add(24*time.Hour)))
	require.NoError(t, err)
	_, err = svc.Create("bob", input("b1", now, now.Add(24*time.Hour)))
	require.NoError(t, err)
	_, err = svc.Create("alice", input("a2", now, now.Add(24*time.Hour)))
	require.NoError(t, err)

	alice, err := svc.Load("alice")
	require.NoError(t, err)
	require.Len(t, alice, 2)
	assert.Equal(t, "a1", alice[0].Name)
	assert.Equal(t, "a2", alice[1].Name)

	// Deleting alice's second task leaves bob's untouched.
	require.NoError(t, svc.Delete("alice", 1))
	bob, err := svc.Load("bob")
	require.NoError(t, err)
	require.Len(t, bob, 1)

	// Clearing alice removes only her records.
	require.NoError(t, svc.ClearAll("alice"))
	alice, err = svc.Load("alice")
	require.NoError(t, err)
	assert.Empty(t, alice)

	bob, err = svc.Load("bob")
	require.NoError(t, err)
	assert.Len(t, bob, 1)
}

func TestMutate_NoSuchTask(t *testing.T) {
	svc, _, _ := newTaskFixture(t, false)

	_, err := svc.MarkDone("", 0)
	assert.ErrorIs(t, err, ErrNoSuchTask)

	err = svc.Delete("", 3)
	assert.ErrorIs(t, err, ErrNoSuchTask)
}

func TestUpcoming_FiltersByWindow(t *testing.T) {
	svc, _, _ := newTaskFixture(t, false)
	now := time.Now()

	_, err := svc.Create("", input("far away", now, now.Add(10*24*time.Hour)))
	require.NoError(t, err)
	_, err = svc.Create("", input("soon", now, now.Add(24*time.Hour)))
	require.NoError(t, err)
	_, err = svc.Create("", input("already done", now, now.Add(48*time.Hour)))
	require.NoError(t, err)
	_, err = svc.MarkDone("", 2)
	require.NoError(t, err)

	upcoming, err := svc.Upcoming("", 7*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "soon", upcoming[0].Name)
}
