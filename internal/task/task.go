package task

import (
	"errors"
	"fmt"
	"time"
)

// Variant distinguishes one-off wishes from recurring routines.
type Variant string

const (
	VariantWish    Variant = "wish"
	VariantRoutine Variant = "routine"
)

// Status is the lifecycle field for wishes. Routines use Active instead.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Statuses lists all wish statuses in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Next returns the status after s in cycle order. Any status may move to
// any other; this is just the order the quick-cycle key walks through.
func (s Status) Next() Status {
	switch s {
	case StatusTodo:
		return StatusInProgress
	case StatusInProgress:
		return StatusDone
	default:
		return StatusTodo
	}
}

func (s Status) Label() string {
	switch s {
	case StatusInProgress:
		return "in progress"
	case StatusDone:
		return "done"
	default:
		return "todo"
	}
}

// Task is the canonical in-memory shape for both variants. Status is
// meaningful only when Variant is wish; Active, RemindAt, Recurrence,
// NotifyUsers and Notification only when Variant is routine.
type Task struct {
	ID          string
	Variant     Variant
	Title       string
	Description string

	Status     Status     // wish lifecycle
	TargetDate *time.Time // wish display hint, never enforced

	Active       bool       // routine lifecycle
	RemindAt     *time.Time // first/next fire anchor
	Recurrence   Recurrence
	NotifyUsers  []string
	Notification *Notification

	Images    []string
	CreatedAt time.Time
}

// Record is the wire shape as stores return it. Older records carry a
// bare done boolean and no status; newer ones carry the status enum.
// Normalize reconciles the two on every ingestion.
type Record struct {
	ID          string     `json:"id"`
	Variant     Variant    `json:"variant"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      *Status    `json:"status,omitempty"`
	LegacyDone  *bool      `json:"done,omitempty"`
	Active      *bool      `json:"isActive,omitempty"`
	TargetDate  *time.Time `json:"targetDate,omitempty"`
	RemindAt    *time.Time `json:"remindAt,omitempty"`
	Recurrence  string     `json:"recurrence,omitempty"`
	NotifyUsers []string   `json:"notifyUsers,omitempty"`

	Notification *Notification `json:"notification,omitempty"`
	Images       []string      `json:"images,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// Normalize converts a wire record to the canonical shape. An explicit
// status wins; otherwise the legacy done flag derives one (done=true →
// done, anything else → todo). Routines default to active when the store
// omits the flag.
func Normalize(r Record) Task {
	t := Task{
		ID:          r.ID,
		Variant:     r.Variant,
		Title:       r.Title,
		Description: r.Description,
		TargetDate:  r.TargetDate,
		RemindAt:    r.RemindAt,
		Recurrence:  Recurrence(r.Recurrence),
		NotifyUsers: r.NotifyUsers,
		Images:      r.Images,
		CreatedAt:   r.CreatedAt,
	}
	if r.Notification != nil {
		n := *r.Notification
		t.Notification = &n
	}

	switch r.Variant {
	case VariantRoutine:
		t.Active = r.Active == nil || *r.Active
	default:
		switch {
		case r.Status != nil && r.Status.Valid():
			t.Status = *r.Status
		case r.LegacyDone != nil && *r.LegacyDone:
			t.Status = StatusDone
		default:
			t.Status = StatusTodo
		}
	}
	return t
}

// NormalizeAll maps Normalize over a fetched page. Pages can mix record
// ages, so this runs on every fetch, not once per session.
func NormalizeAll(recs []Record) []Task {
	tasks := make([]Task, len(recs))
	for i, r := range recs {
		tasks[i] = Normalize(r)
	}
	return tasks
}

// ToRecord converts a canonical task back to the wire shape. The legacy
// done flag is never written; normalized records only carry the enum.
func (t Task) ToRecord() Record {
	r := Record{
		ID:          t.ID,
		Variant:     t.Variant,
		Title:       t.Title,
		Description: t.Description,
		TargetDate:  t.TargetDate,
		RemindAt:    t.RemindAt,
		Recurrence:  string(t.Recurrence),
		NotifyUsers: t.NotifyUsers,
		Images:      t.Images,
		CreatedAt:   t.CreatedAt,
	}
	switch t.Variant {
	case VariantRoutine:
		active := t.Active
		r.Active = &active
	default:
		status := t.Status
		r.Status = &status
	}
	if t.Notification != nil {
		n := *t.Notification
		r.Notification = &n
	}
	return r
}

var ErrEmptyTitle = errors.New("title must not be empty")

// Validate checks a task before it is persisted. Routine-only fields set
// on a wish are cleared rather than rejected, so a confused caller can
// never persist them.
func (t *Task) Validate() error {
	if t.Title == "" {
		return ErrEmptyTitle
	}

	switch t.Variant {
	case VariantWish:
		t.Recurrence = ""
		t.RemindAt = nil
		t.NotifyUsers = nil
		t.Notification = nil
		if !t.Status.Valid() {
			t.Status = StatusTodo
		}
	case VariantRoutine:
		t.Status = ""
		t.TargetDate = nil
		if err := t.Recurrence.Validate(); err != nil {
			return err
		}
		if t.Notification != nil {
			if err := t.Notification.Validate(); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown task variant %q", t.Variant)
	}
	return nil
}
