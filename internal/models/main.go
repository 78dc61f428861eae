// Package models defines the core data structures for accounts and tasks.
package models

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the on-disk layout of task start and deadline values.
const TimeLayout = "2006-01-02 15:04"

// DateLayout is the on-disk layout of completion dates embedded in statuses.
const DateLayout = "2006-01-02"

// Account represents a registered user with credentials.
type Account struct {
	// Username is the display and login handle chosen by the user.
	Username string
	// Email is the unique login identifier.
	Email string
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash []byte
}

// Priority ranks a task.
type Priority string

const (
	PriorityNone   Priority = "None"
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// ParsePriority converts the stored text form into a Priority.
// Anything outside the known set is an error.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(s); p {
	case PriorityNone, PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// StatusKind identifies the state a task is in.
type StatusKind string

const (
	// StatusDue marks an active task that has not been resolved yet.
	StatusDue StatusKind = "due"
	// StatusDone marks a task completed by the user.
	StatusDone StatusKind = "done"
	// StatusFailed marks a task the user gave up on or that breached its deadline.
	StatusFailed StatusKind = "failed"
)

// Status is the state of a task together with the date it reached a
// terminal state. CompletedOn is zero for due tasks and for failed records
// written by older versions that carried no date.
type Status struct {
	Kind        StatusKind
	CompletedOn time.Time
}

// Due returns the status of a freshly created task.
func Due() Status { return Status{Kind: StatusDue} }

// DoneOn returns a done status completed on the given day.
func DoneOn(day time.Time) Status {
	return Status{Kind: StatusDone, CompletedOn: DateOnly(day)}
}

// FailedOn returns a failed status stamped with the given day.
func FailedOn(day time.Time) Status {
	return Status{Kind: StatusFailed, CompletedOn: DateOnly(day)}
}

// Terminal reports whether the task is eligible for archival,
// i.e. anything other than due.
func (s Status) Terminal() bool { return s.Kind != StatusDue }

// String renders the status in its legacy on-disk text shape.
func (s Status) String() string {
	switch s.Kind {
	case StatusDone:
		return "done ✅ - Completed on " + s.CompletedOn.Format(DateLayout)
	case StatusFailed:
		if s.CompletedOn.IsZero() {
			return "failed ❌"
		}
		return "failed ❌ - Failed on " + s.CompletedOn.Format(DateLayout)
	default:
		return "due"
	}
}

// ParseStatus converts the stored text form back into a Status. Done
// records must carry a completion date; failed records may omit it
// (legacy data). Anything else is an error.
func ParseStatus(s string) (Status, error) {
	switch {
	case s == "due":
		return Due(), nil
	case strings.HasPrefix(s, "done"):
		day, ok := completionDate(s)
		if !ok {
			return Status{}, fmt.Errorf("done status %q has no completion date", s)
		}
		return Status{Kind: StatusDone, CompletedOn: day}, nil
	case strings.HasPrefix(s, "failed"):
		day, _ := completionDate(s)
		return Status{Kind: StatusFailed, CompletedOn: day}, nil
	}
	return Status{}, fmt.Errorf("unrecognized status %q", s)
}

// completionDate extracts the date following the last "on " marker.
func completionDate(s string) (time.Time, bool) {
	idx := strings.LastIndex(s, "on ")
	if idx < 0 {
		return time.Time{}, false
	}
	day, err := time.Parse(DateLayout, strings.TrimSpace(s[idx+len("on "):]))
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

// DateOnly truncates t to its calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Task represents a single to-do item.
type Task struct {
	// Name is the short title of the task.
	Name string
	// Description is free text and may be empty.
	Description string
	// Start is when work on the task begins.
	Start time.Time
	// Deadline is when the task must be resolved; always after Start.
	Deadline time.Time
	// Priority ranks the task.
	Priority Priority
	// Status is the current state of the task.
	Status Status
	// Owner is the username of the creating account. Set only in
	// multi-user mode; empty in single-user mode.
	Owner string
}

// HistoryEntry is a task snapshot archived with a terminal status.
type HistoryEntry = Task
