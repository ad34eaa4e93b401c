package engine_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rota/internal/engine"
	"rota/internal/store"
	"rota/internal/task"
)

// fakeStore lets tests script store behavior per call and observe how
// many requests actually went out.
type fakeStore struct {
	mu      sync.Mutex
	records []task.Record

	listCalls    atomic.Int32
	updateCalls  atomic.Int32
	checkInCalls atomic.Int32
	deleteCalls  atomic.Int32
	notifyCalls  atomic.Int32

	updateErr  error
	deleteErr  error
	checkInErr error

	// When set, CheckIn/Update signal entered and wait for release,
	// letting tests hold a request in flight.
	entered chan string
	release chan struct{}
}

func (f *fakeStore) snapshot(variant task.Variant, filter store.ActiveFilter) []task.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []task.Record
	for _, r := range f.records {
		if r.Variant != variant {
			continue
		}
		if variant == task.VariantRoutine {
			active := r.Active == nil || *r.Active
			if filter == store.FilterActive && !active {
				continue
			}
			if filter == store.FilterPaused && active {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

func (f *fakeStore) List(ctx context.Context, opts store.ListOptions) (store.ListResult, error) {
	f.listCalls.Add(1)
	recs := f.snapshot(opts.Variant, opts.Filter)
	p := store.Pagination{Page: opts.Page, PageSize: opts.PageSize, Total: len(recs)}
	if opts.PageSize > 0 {
		start := (opts.Page - 1) * opts.PageSize
		if start > len(recs) {
			start = len(recs)
		}
		end := start + opts.PageSize
		if end > len(recs) {
			end = len(recs)
		}
		p.HasMore = end < len(recs)
		recs = recs[start:end]
	}
	return store.ListResult{Records: recs, Pagination: p}, nil
}

func (f *fakeStore) Create(ctx context.Context, t task.Task) ([]task.Record, error) {
	f.mu.Lock()
	t.ID = "new"
	f.records = append(f.records, t.ToRecord())
	f.mu.Unlock()
	return f.snapshot(t.Variant, store.FilterAll), nil
}

func (f *fakeStore) hold(id string) {
	if f.entered != nil {
		f.entered <- id
		<-f.release
	}
}

func (f *fakeStore) Update(ctx context.Context, id string, fl store.Fields) ([]task.Record, error) {
	f.updateCalls.Add(1)
	f.hold(id)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.mu.Lock()
	var variant task.Variant
	for i := range f.records {
		if f.records[i].ID == id {
			variant = f.records[i].Variant
			if fl.Status != nil {
				st := *fl.Status
				f.records[i].Status = &st
				f.records[i].LegacyDone = nil
			}
			if fl.Active != nil {
				a := *fl.Active
				f.records[i].Active = &a
			}
		}
	}
	f.mu.Unlock()
	return f.snapshot(variant, store.FilterAll), nil
}

func (f *fakeStore) Delete(ctx context.Context, id string) error {
	f.deleteCalls.Add(1)
	f.hold(id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.records {
		if f.records[i].ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) CheckIn(ctx context.Context, id string) (string, error) {
	f.checkInCalls.Add(1)
	f.hold(id)
	if f.checkInErr != nil {
		return "", f.checkInErr
	}
	return "Checked in.", nil
}

func (f *fakeStore) TestNotification(ctx context.Context, id string) error {
	f.notifyCalls.Add(1)
	f.hold(id)
	return nil
}

func wishRec(id string, st task.Status) task.Record {
	return task.Record{ID: id, Variant: task.VariantWish, Title: "wish " + id, Status: &st, CreatedAt: time.Now()}
}

func routineRec(id string, active bool) task.Record {
	return task.Record{ID: id, Variant: task.VariantRoutine, Title: "routine " + id, Active: &active, CreatedAt: time.Now()}
}

func loadedEngine(t *testing.T, f *fakeStore, pageSize int) *engine.Engine {
	t.Helper()
	e := engine.New(f, pageSize)
	require.NoError(t, e.LoadWishes(context.Background()))
	require.NoError(t, e.LoadRoutines(context.Background(), store.FilterAll))
	return e
}

func TestCheckIn_SameIDRejectedWhileInFlight(t *testing.T) {
	t.Parallel()

	f := &fakeStore{
		records: []task.Record{routineRec("r1", true)},
		entered: make(chan string),
		release: make(chan struct{}),
	}
	e := loadedEngine(t, f, 10)

	first := make(chan error, 1)
	go func() {
		_, err := e.CheckIn(context.Background(), "r1")
		first <- err
	}()
	<-f.entered // first request is now inside the store

	_, err := e.CheckIn(context.Background(), "r1")
	require.ErrorIs(t, err, engine.ErrInFlight)
	require.True(t, e.InFlight(engine.OpCheckIn, "r1"))

	close(f.release)
	require.NoError(t, <-first)
	require.False(t, e.InFlight(engine.OpCheckIn, "r1"))
	require.EqualValues(t, 1, f.checkInCalls.Load(), "exactly one request must reach the store")
}

func TestCheckIn_DistinctIDsRunIndependently(t *testing.T) {
	t.Parallel()

	f := &fakeStore{
		records: []task.Record{routineRec("r1", true), routineRec("r2", true)},
		entered: make(chan string),
		release: make(chan struct{}),
	}
	e := loadedEngine(t, f, 10)

	errs := make(chan error, 2)
	go func() { _, err := e.CheckIn(context.Background(), "r1"); errs <- err }()
	go func() { _, err := e.CheckIn(context.Background(), "r2"); errs <- err }()

	// Both requests reach the store before either resolves: neither
	// blocked the other.
	seen := map[string]bool{}
	seen[<-f.entered] = true
	seen[<-f.entered] = true
	require.True(t, seen["r1"] && seen["r2"])

	close(f.release)
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)
	require.EqualValues(t, 2, f.checkInCalls.Load())
}

func TestOpClasses_AreIndependent(t *testing.T) {
	t.Parallel()

	f := &fakeStore{
		records: []task.Record{routineRec("r1", true)},
		entered: make(chan string),
		release: make(chan struct{}),
	}
	e := loadedEngine(t, f, 10)

	checkin := make(chan error, 1)
	go func() { _, err := e.CheckIn(context.Background(), "r1"); checkin <- err }()
	<-f.entered

	// A toggle on the same task is a different operation class and must
	// go through while the check-in is pending.
	toggle := make(chan error, 1)
	go func() { toggle <- e.ToggleActive(context.Background(), "r1") }()
	<-f.entered

	close(f.release)
	require.NoError(t, <-checkin)
	require.NoError(t, <-toggle)
	require.EqualValues(t, 1, f.checkInCalls.Load())
	require.EqualValues(t, 1, f.updateCalls.Load())
}

func TestSetStatus_OptimisticRollbackOnFailure(t *testing.T) {
	t.Parallel()

	f := &fakeStore{
		records:   []task.Record{wishRec("w1", task.StatusTodo)},
		updateErr: errors.New("store down"),
	}
	e := loadedEngine(t, f, 10)

	err := e.SetStatus(context.Background(), "w1", task.StatusDone)
	require.Error(t, err)

	wishes := e.Wishes()
	require.Len(t, wishes, 1)
	require.Equal(t, task.StatusTodo, wishes[0].Status, "failed update must leave the last known-good status")
	require.False(t, e.InFlight(engine.OpUpdate, "w1"), "slot must clear on failure too")

	// The action can be re-issued after the failure.
	f.updateErr = nil
	require.NoError(t, e.SetStatus(context.Background(), "w1", task.StatusDone))
	require.Equal(t, task.StatusDone, e.Wishes()[0].Status)
}

func TestSetStatus_AppliesBeforeConfirmation(t *testing.T) {
	t.Parallel()

	f := &fakeStore{
		records: []task.Record{wishRec("w1", task.StatusTodo)},
		entered: make(chan string),
		release: make(chan struct{}),
	}
	e := loadedEngine(t, f, 10)

	done := make(chan error, 1)
	go func() { done <- e.SetStatus(context.Background(), "w1", task.StatusInProgress) }()
	<-f.entered

	// Request still pending, local copy already moved.
	require.Equal(t, task.StatusInProgress, e.Wishes()[0].Status)

	close(f.release)
	require.NoError(t, <-done)
	require.Equal(t, task.StatusInProgress, e.Wishes()[0].Status)
}

func TestToggleActive_RollbackOnFailure(t *testing.T) {
	t.Parallel()

	f := &fakeStore{
		records:   []task.Record{routineRec("r1", true)},
		updateErr: errors.New("store down"),
	}
	e := loadedEngine(t, f, 10)

	require.Error(t, e.ToggleActive(context.Background(), "r1"))
	require.True(t, e.Routines()[0].Active)
}

func TestToggleActive_PreservesRecurrenceAndAnchor(t *testing.T) {
	t.Parallel()

	remind := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	rec := routineRec("r1", true)
	rec.RemindAt = &remind
	rec.Recurrence = "interval:30m"

	f := &fakeStore{records: []task.Record{rec}}
	e := loadedEngine(t, f, 10)

	require.NoError(t, e.ToggleActive(context.Background(), "r1")) // pause
	r := e.Routines()[0]
	require.False(t, r.Active)
	require.Equal(t, task.Recurrence("interval:30m"), r.Recurrence)
	require.Equal(t, remind, r.RemindAt.UTC())

	require.NoError(t, e.ToggleActive(context.Background(), "r1")) // resume
	r = e.Routines()[0]
	require.True(t, r.Active)
	require.Equal(t, task.Recurrence("interval:30m"), r.Recurrence)
	require.Equal(t, remind, r.RemindAt.UTC())
}

func TestLifecycleOps_RejectWrongVariant(t *testing.T) {
	t.Parallel()

	f := &fakeStore{records: []task.Record{
		wishRec("w1", task.StatusTodo),
		routineRec("r1", true),
	}}
	e := loadedEngine(t, f, 10)

	err := e.SetStatus(context.Background(), "r1", task.StatusDone)
	require.ErrorIs(t, err, engine.ErrWrongVariant)

	require.ErrorIs(t, e.ToggleActive(context.Background(), "w1"), engine.ErrWrongVariant)

	_, err = e.CheckIn(context.Background(), "w1")
	require.ErrorIs(t, err, engine.ErrWrongVariant)

	require.EqualValues(t, 0, f.updateCalls.Load(), "rejected operations never reach the store")
	require.EqualValues(t, 0, f.checkInCalls.Load())

	// Both lists hold exactly what was loaded: no cross-variant
	// adoption, no optimistic leftovers.
	wishes := e.Wishes()
	require.Len(t, wishes, 1)
	require.Equal(t, task.VariantWish, wishes[0].Variant)
	require.Equal(t, task.StatusTodo, wishes[0].Status)
	routines := e.Routines()
	require.Len(t, routines, 1)
	require.True(t, routines[0].Active)
}

func TestDelete_RollbackReinsertsAtPosition(t *testing.T) {
	t.Parallel()

	f := &fakeStore{
		records: []task.Record{
			wishRec("w1", task.StatusTodo),
			wishRec("w2", task.StatusTodo),
			wishRec("w3", task.StatusTodo),
		},
		deleteErr: errors.New("store down"),
	}
	e := loadedEngine(t, f, 10)

	require.Error(t, e.Delete(context.Background(), "w2"))

	ids := []string{}
	for _, w := range e.Wishes() {
		ids = append(ids, w.ID)
	}
	require.Equal(t, []string{"w1", "w2", "w3"}, ids)
}

func TestDelete_RemovesLocallyAndRemotely(t *testing.T) {
	t.Parallel()

	f := &fakeStore{records: []task.Record{wishRec("w1", task.StatusTodo)}}
	e := loadedEngine(t, f, 10)

	require.NoError(t, e.Delete(context.Background(), "w1"))
	require.Empty(t, e.Wishes())
	require.EqualValues(t, 1, f.deleteCalls.Load())
}

func TestWishBuckets(t *testing.T) {
	t.Parallel()

	f := &fakeStore{records: []task.Record{
		wishRec("w1", task.StatusTodo),
		wishRec("w2", task.StatusInProgress),
		wishRec("w3", task.StatusDone),
		{ID: "w4", Variant: task.VariantWish, Title: "legacy", LegacyDone: boolPtr(true)},
	}}
	e := loadedEngine(t, f, 10)

	todo, inProgress, done := e.WishBuckets()
	require.Len(t, todo, 1)
	require.Len(t, inProgress, 1)
	require.Len(t, done, 2, "legacy done record normalizes into the done bucket")
}

func TestRoutinePaging_FilterResetsPages(t *testing.T) {
	t.Parallel()

	var recs []task.Record
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		recs = append(recs, routineRec(id, true))
	}
	recs = append(recs, routineRec("p1", false))
	f := &fakeStore{records: recs}

	e := engine.New(f, 2)
	require.NoError(t, e.LoadRoutines(context.Background(), store.FilterActive))
	require.Len(t, e.Routines(), 2)
	require.True(t, e.HasMore())

	require.NoError(t, e.MoreRoutines(context.Background()))
	require.Len(t, e.Routines(), 4)

	require.NoError(t, e.MoreRoutines(context.Background()))
	require.Len(t, e.Routines(), 5)
	require.False(t, e.HasMore())

	// MoreRoutines with nothing left is a no-op, not an error.
	calls := f.listCalls.Load()
	require.NoError(t, e.MoreRoutines(context.Background()))
	require.Equal(t, calls, f.listCalls.Load())

	// Switching filters throws the loaded pages away and starts over.
	require.NoError(t, e.LoadRoutines(context.Background(), store.FilterPaused))
	routines := e.Routines()
	require.Len(t, routines, 1)
	require.Equal(t, "p1", routines[0].ID)
	require.Equal(t, store.FilterPaused, e.Filter())
}

func TestCreate_RejectsValidationBeforeStore(t *testing.T) {
	t.Parallel()

	f := &fakeStore{}
	e := engine.New(f, 10)

	err := e.Create(context.Background(), task.Task{Variant: task.VariantWish})
	require.ErrorIs(t, err, task.ErrEmptyTitle)
	require.EqualValues(t, 0, f.listCalls.Load(), "validation failures never reach the store")
}

func boolPtr(b bool) *bool { return &b }
