// Package engine holds the client-side task state and coordinates
// mutations against the store: per-task in-flight guards, optimistic
// patches with rollback, and list retrieval for both variants. The UI
// and the CLI both drive it; neither touches the store directly.
package engine

import (
	"context"
	"errors"
	"sync"

	"rota/internal/store"
	"rota/internal/task"
)

// Op is an operation class. Each class keeps its own in-flight set, so
// a routine can be toggled while a check-in is pending, but a second
// check-in on the same routine is rejected.
type Op int

const (
	OpUpdate Op = iota
	OpToggle
	OpCheckIn
	OpDelete
	OpNotify
)

// ErrInFlight means the same operation class is already running for
// this task. Callers treat it as a silent no-op; the busy indicator is
// already showing.
var ErrInFlight = errors.New("operation already in flight for this task")

var ErrNotFound = errors.New("task not loaded")

// ErrWrongVariant means a lifecycle operation was aimed at the other
// task variant: a wish status on a routine, or a toggle/check-in on a
// wish. Each variant has exactly one lifecycle field, and no operation
// may touch the other one's.
var ErrWrongVariant = errors.New("operation does not apply to this task variant")

// snapshot is what rollback restores when a request fails.
type snapshot struct {
	t   task.Task
	idx int
}

// Engine is safe for concurrent use. The mutex guards local state only;
// it is never held across a store round-trip. Per-task exclusion during
// the round-trip is exactly what the in-flight sets provide.
type Engine struct {
	mu sync.Mutex
	st store.Store

	pageSize int

	wishes []task.Task

	routines []task.Task
	filter   store.ActiveFilter
	page     int
	hasMore  bool

	inflight map[Op]map[string]snapshot
}

func New(st store.Store, pageSize int) *Engine {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Engine{
		st:       st,
		pageSize: pageSize,
		filter:   store.FilterActive,
		inflight: make(map[Op]map[string]snapshot),
	}
}

// begin claims the (op, id) slot, remembering a rollback snapshot.
// Returns false when the slot is taken.
func (e *Engine) begin(op Op, id string, snap snapshot) bool {
	set := e.inflight[op]
	if set == nil {
		set = make(map[string]snapshot)
		e.inflight[op] = set
	}
	if _, busy := set[id]; busy {
		return false
	}
	set[id] = snap
	return true
}

// finish releases the slot no matter how the request ended.
func (e *Engine) finish(op Op, id string) snapshot {
	snap := e.inflight[op][id]
	delete(e.inflight[op], id)
	return snap
}

// InFlight reports whether (op, id) is currently pending. The UI uses
// it to draw busy markers.
func (e *Engine) InFlight(op Op, id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, busy := e.inflight[op][id]
	return busy
}

// Busy reports whether any operation is pending for id.
func (e *Engine) Busy(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, set := range e.inflight {
		if _, busy := set[id]; busy {
			return true
		}
	}
	return false
}

func (e *Engine) find(id string) (*task.Task, int) {
	for i := range e.wishes {
		if e.wishes[i].ID == id {
			return &e.wishes[i], i
		}
	}
	for i := range e.routines {
		if e.routines[i].ID == id {
			return &e.routines[i], i
		}
	}
	return nil, -1
}

// LoadWishes fetches the whole wish list. Normalization runs on every
// fetch because pages can mix record ages.
func (e *Engine) LoadWishes(ctx context.Context) error {
	res, err := e.st.List(ctx, store.ListOptions{Variant: task.VariantWish})
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.wishes = task.NormalizeAll(res.Records)
	e.mu.Unlock()
	return nil
}

// Wishes returns a copy of the loaded wish list.
func (e *Engine) Wishes() []task.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]task.Task(nil), e.wishes...)
}

// WishBuckets splits the wish list into the three display buckets.
func (e *Engine) WishBuckets() (todo, inProgress, done []task.Task) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, w := range e.wishes {
		switch w.Status {
		case task.StatusInProgress:
			inProgress = append(inProgress, w)
		case task.StatusDone:
			done = append(done, w)
		default:
			todo = append(todo, w)
		}
	}
	return todo, inProgress, done
}

// LoadRoutines fetches page one under filter, discarding any pages
// loaded before. Changing the filter always goes through here.
func (e *Engine) LoadRoutines(ctx context.Context, filter store.ActiveFilter) error {
	res, err := e.st.List(ctx, store.ListOptions{
		Variant:  task.VariantRoutine,
		Filter:   filter,
		Page:     1,
		PageSize: e.pageSize,
	})
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.routines = task.NormalizeAll(res.Records)
	e.filter = filter
	e.page = 1
	e.hasMore = res.Pagination.HasMore
	e.mu.Unlock()
	return nil
}

// MoreRoutines appends the next page, if any.
func (e *Engine) MoreRoutines(ctx context.Context) error {
	e.mu.Lock()
	if !e.hasMore {
		e.mu.Unlock()
		return nil
	}
	next := e.page + 1
	filter := e.filter
	e.mu.Unlock()

	res, err := e.st.List(ctx, store.ListOptions{
		Variant:  task.VariantRoutine,
		Filter:   filter,
		Page:     next,
		PageSize: e.pageSize,
	})
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.routines = append(e.routines, task.NormalizeAll(res.Records)...)
	e.page = next
	e.hasMore = res.Pagination.HasMore
	e.mu.Unlock()
	return nil
}

// Routines returns a copy of the loaded routine pages.
func (e *Engine) Routines() []task.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]task.Task(nil), e.routines...)
}

func (e *Engine) Filter() store.ActiveFilter {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filter
}

func (e *Engine) HasMore() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hasMore
}

// SetStatus moves a wish to status. The change is applied locally
// before the store confirms; on failure it reverts and the error is
// returned for the caller to surface.
func (e *Engine) SetStatus(ctx context.Context, id string, status task.Status) error {
	e.mu.Lock()
	t, idx := e.find(id)
	if t == nil {
		e.mu.Unlock()
		return ErrNotFound
	}
	if t.Variant != task.VariantWish {
		e.mu.Unlock()
		return ErrWrongVariant
	}
	if !e.begin(OpUpdate, id, snapshot{t: *t, idx: idx}) {
		e.mu.Unlock()
		return ErrInFlight
	}
	t.Status = status
	e.mu.Unlock()

	recs, err := e.st.Update(ctx, id, store.Fields{Status: &status})

	e.mu.Lock()
	defer e.mu.Unlock()
	snap := e.finish(OpUpdate, id)
	if err != nil {
		if t, _ := e.find(id); t != nil {
			t.Status = snap.t.Status
		}
		return err
	}
	e.wishes = task.NormalizeAll(recs)
	return nil
}

// ToggleActive flips a routine between active and paused. Recurrence
// and the reminder anchor ride along untouched.
func (e *Engine) ToggleActive(ctx context.Context, id string) error {
	e.mu.Lock()
	t, idx := e.find(id)
	if t == nil {
		e.mu.Unlock()
		return ErrNotFound
	}
	if t.Variant != task.VariantRoutine {
		e.mu.Unlock()
		return ErrWrongVariant
	}
	if !e.begin(OpToggle, id, snapshot{t: *t, idx: idx}) {
		e.mu.Unlock()
		return ErrInFlight
	}
	next := !t.Active
	t.Active = next
	e.mu.Unlock()

	_, err := e.st.Update(ctx, id, store.Fields{Active: &next})

	e.mu.Lock()
	snap := e.finish(OpToggle, id)
	if err != nil {
		if t, _ := e.find(id); t != nil {
			t.Active = snap.t.Active
		}
		e.mu.Unlock()
		return err
	}
	filter := e.filter
	e.mu.Unlock()

	// The toggled routine may have left the filtered listing; re-run
	// retrieval rather than patch around the filter.
	return e.LoadRoutines(ctx, filter)
}

// CheckIn acknowledges the current occurrence of a routine. No
// optimistic patch: the store decides what happens to the next fire, so
// the list is re-fetched afterwards.
func (e *Engine) CheckIn(ctx context.Context, id string) (string, error) {
	e.mu.Lock()
	t, _ := e.find(id)
	if t == nil {
		e.mu.Unlock()
		return "", ErrNotFound
	}
	if t.Variant != task.VariantRoutine {
		e.mu.Unlock()
		return "", ErrWrongVariant
	}
	if !e.begin(OpCheckIn, id, snapshot{}) {
		e.mu.Unlock()
		return "", ErrInFlight
	}
	filter := e.filter
	e.mu.Unlock()

	msg, err := e.st.CheckIn(ctx, id)

	e.mu.Lock()
	e.finish(OpCheckIn, id)
	e.mu.Unlock()
	if err != nil {
		return "", err
	}

	if err := e.LoadRoutines(ctx, filter); err != nil {
		return msg, err
	}
	return msg, nil
}

// Delete removes the task outright. Removal is applied locally first
// and re-inserted at its old position if the store refuses.
func (e *Engine) Delete(ctx context.Context, id string) error {
	e.mu.Lock()
	t, idx := e.find(id)
	if t == nil {
		e.mu.Unlock()
		return ErrNotFound
	}
	if !e.begin(OpDelete, id, snapshot{t: *t, idx: idx}) {
		e.mu.Unlock()
		return ErrInFlight
	}
	e.removeLocked(id)
	e.mu.Unlock()

	err := e.st.Delete(ctx, id)

	e.mu.Lock()
	defer e.mu.Unlock()
	snap := e.finish(OpDelete, id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		e.reinsertLocked(snap)
		return err
	}
	return nil
}

func (e *Engine) removeLocked(id string) {
	for i := range e.wishes {
		if e.wishes[i].ID == id {
			e.wishes = append(e.wishes[:i], e.wishes[i+1:]...)
			return
		}
	}
	for i := range e.routines {
		if e.routines[i].ID == id {
			e.routines = append(e.routines[:i], e.routines[i+1:]...)
			return
		}
	}
}

func (e *Engine) reinsertLocked(snap snapshot) {
	list := &e.wishes
	if snap.t.Variant == task.VariantRoutine {
		list = &e.routines
	}
	idx := snap.idx
	if idx < 0 || idx > len(*list) {
		idx = len(*list)
	}
	*list = append((*list)[:idx], append([]task.Task{snap.t}, (*list)[idx:]...)...)
}

// Create validates and persists a new task, then adopts the store's
// authoritative list.
func (e *Engine) Create(ctx context.Context, t task.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	recs, err := e.st.Create(ctx, t)
	if err != nil {
		return err
	}
	if t.Variant == task.VariantWish {
		e.mu.Lock()
		e.wishes = task.NormalizeAll(recs)
		e.mu.Unlock()
		return nil
	}
	return e.LoadRoutines(ctx, e.Filter())
}

// UpdateFields saves a form edit. Not optimistic: the form already
// holds the new values on screen, and the authoritative list lands
// right after.
func (e *Engine) UpdateFields(ctx context.Context, id string, f store.Fields) error {
	e.mu.Lock()
	t, idx := e.find(id)
	if t == nil {
		e.mu.Unlock()
		return ErrNotFound
	}
	if !e.begin(OpUpdate, id, snapshot{t: *t, idx: idx}) {
		e.mu.Unlock()
		return ErrInFlight
	}
	variant := t.Variant
	e.mu.Unlock()

	recs, err := e.st.Update(ctx, id, f)

	e.mu.Lock()
	e.finish(OpUpdate, id)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if variant == task.VariantWish {
		e.wishes = task.NormalizeAll(recs)
		e.mu.Unlock()
		return nil
	}
	filter := e.filter
	e.mu.Unlock()
	return e.LoadRoutines(ctx, filter)
}

// TestNotification fires the routine's profile once, out of band. Task
// state is untouched, but double sends are still guarded.
func (e *Engine) TestNotification(ctx context.Context, id string) error {
	e.mu.Lock()
	if !e.begin(OpNotify, id, snapshot{}) {
		e.mu.Unlock()
		return ErrInFlight
	}
	e.mu.Unlock()

	err := e.st.TestNotification(ctx, id)

	e.mu.Lock()
	e.finish(OpNotify, id)
	e.mu.Unlock()
	return err
}
