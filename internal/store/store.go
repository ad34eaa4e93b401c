// Package store abstracts the task store the app talks to. Two
// implementations exist: a local sqlite file and a client for the
// remote REST store. Both return wire records; callers normalize.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rota/internal/task"
)

var ErrNotFound = errors.New("task not found")

// ActiveFilter narrows a routine listing.
type ActiveFilter string

const (
	FilterAll    ActiveFilter = "all"
	FilterActive ActiveFilter = "active"
	FilterPaused ActiveFilter = "paused"
)

// Filters in the order the UI cycles through them.
var Filters = []ActiveFilter{FilterActive, FilterPaused, FilterAll}

// ParseFilter converts a user-supplied filter name, rejecting anything
// outside the known set.
func ParseFilter(s string) (ActiveFilter, error) {
	switch f := ActiveFilter(s); f {
	case FilterAll, FilterActive, FilterPaused:
		return f, nil
	}
	return "", fmt.Errorf("unknown filter %q (valid: active, paused, all)", s)
}

// ListOptions selects and pages a listing. PageSize 0 disables paging
// and returns everything (how wishes are fetched).
type ListOptions struct {
	Variant  task.Variant
	Filter   ActiveFilter
	Page     int // 1-based
	PageSize int
}

// Pagination describes the page a ListResult holds.
type Pagination struct {
	Page     int
	PageSize int
	Total    int
	HasMore  bool
}

type ListResult struct {
	Records    []task.Record
	Pagination Pagination
}

// Fields is a partial update; nil means leave the field alone. This is
// the only mutation shape the store accepts besides full creation.
type Fields struct {
	Title        *string
	Description  *string
	Status       *task.Status
	Active       *bool
	TargetDate   *time.Time
	ClearTarget  bool
	RemindAt     *time.Time
	ClearRemind  bool
	Recurrence   *task.Recurrence
	NotifyUsers  *[]string
	Notification **task.Notification
	Images       *[]string
}

// Store is the task store boundary. Create and Update return the
// authoritative post-mutation list for the mutated variant, which the
// caller adopts wholesale instead of patching incrementally.
type Store interface {
	List(ctx context.Context, opts ListOptions) (ListResult, error)
	Create(ctx context.Context, t task.Task) ([]task.Record, error)
	Update(ctx context.Context, id string, f Fields) ([]task.Record, error)
	Delete(ctx context.Context, id string) error

	// CheckIn acknowledges the current occurrence of a routine. What it
	// does to the next fire time is the store's business; callers
	// re-fetch afterwards.
	CheckIn(ctx context.Context, id string) (string, error)

	// TestNotification fires the routine's notification profile once,
	// out of band. It never mutates the task.
	TestNotification(ctx context.Context, id string) error
}
