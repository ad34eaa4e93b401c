package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rota/internal/task"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "rota.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_CreateAndListByVariant(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, task.Task{Variant: task.VariantWish, Title: "read", Status: task.StatusTodo})
	require.NoError(t, err)

	recs, err := s.Create(ctx, task.Task{
		Variant:    task.VariantRoutine,
		Title:      "stretch",
		Active:     true,
		Recurrence: "interval:1h",
	})
	require.NoError(t, err)
	require.Len(t, recs, 1, "create returns the post-mutation list for its variant only")
	require.NotEmpty(t, recs[0].ID, "store assigns the id")

	wishes, err := s.List(ctx, ListOptions{Variant: task.VariantWish})
	require.NoError(t, err)
	require.Len(t, wishes.Records, 1)
	require.Equal(t, "read", wishes.Records[0].Title)
}

func TestSQLite_LegacyRowsSurfaceDoneFlag(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	// A row imported from the old app: bare done flag, no status.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, variant, title, done) VALUES ('legacy1', 'wish', 'old wish', 1)
	`)
	require.NoError(t, err)

	res, err := s.List(ctx, ListOptions{Variant: task.VariantWish})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	rec := res.Records[0]
	require.Nil(t, rec.Status)
	require.NotNil(t, rec.LegacyDone)
	require.True(t, *rec.LegacyDone)
	require.Equal(t, task.StatusDone, task.Normalize(rec).Status)

	// An explicit status update retires the legacy flag for good.
	st := task.StatusInProgress
	recs, err := s.Update(ctx, "legacy1", Fields{Status: &st})
	require.NoError(t, err)
	require.Nil(t, recs[0].LegacyDone)
	require.NotNil(t, recs[0].Status)
	require.Equal(t, task.StatusInProgress, *recs[0].Status)
}

func TestSQLite_PagingAndFilter(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		s.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		_, err := s.Create(ctx, task.Task{Variant: task.VariantRoutine, Title: "active", Active: true})
		require.NoError(t, err)
	}
	s.now = func() time.Time { return base.Add(time.Hour) }
	_, err := s.Create(ctx, task.Task{Variant: task.VariantRoutine, Title: "paused", Active: false})
	require.NoError(t, err)

	page1, err := s.List(ctx, ListOptions{Variant: task.VariantRoutine, Filter: FilterActive, Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page1.Records, 2)
	require.Equal(t, 5, page1.Pagination.Total)
	require.True(t, page1.Pagination.HasMore)

	page3, err := s.List(ctx, ListOptions{Variant: task.VariantRoutine, Filter: FilterActive, Page: 3, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page3.Records, 1)
	require.False(t, page3.Pagination.HasMore)

	paused, err := s.List(ctx, ListOptions{Variant: task.VariantRoutine, Filter: FilterPaused})
	require.NoError(t, err)
	require.Len(t, paused.Records, 1)
	require.Equal(t, "paused", paused.Records[0].Title)
}

func TestSQLite_CheckInAdvancesIntervalAnchor(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	anchor := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	now := anchor.Add(70 * time.Minute) // two whole intervals past the anchor
	s.now = func() time.Time { return now }

	recs, err := s.Create(ctx, task.Task{
		Variant:    task.VariantRoutine,
		Title:      "hydrate",
		Active:     true,
		RemindAt:   &anchor,
		Recurrence: task.IntervalRecurrence(30 * time.Minute),
	})
	require.NoError(t, err)
	id := recs[0].ID

	msg, err := s.CheckIn(ctx, id)
	require.NoError(t, err)
	require.Contains(t, msg, "Checked in")

	res, err := s.List(ctx, ListOptions{Variant: task.VariantRoutine})
	require.NoError(t, err)
	got := res.Records[0]
	require.NotNil(t, got.RemindAt)
	require.Equal(t, anchor.Add(90*time.Minute), got.RemindAt.UTC(), "anchor rolls forward past now by whole intervals")
	// The descriptor itself never changes.
	require.Equal(t, "interval:30m", got.Recurrence)
}

func TestSQLite_CheckInLeavesCronAnchorAlone(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	anchor := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	recs, err := s.Create(ctx, task.Task{
		Variant:    task.VariantRoutine,
		Title:      "weekly review",
		Active:     true,
		RemindAt:   &anchor,
		Recurrence: "0 9 * * 1",
	})
	require.NoError(t, err)

	_, err = s.CheckIn(ctx, recs[0].ID)
	require.NoError(t, err)

	res, err := s.List(ctx, ListOptions{Variant: task.VariantRoutine})
	require.NoError(t, err)
	require.Equal(t, anchor, res.Records[0].RemindAt.UTC())
	require.Equal(t, "0 9 * * 1", res.Records[0].Recurrence)
}

func TestSQLite_CheckInRejectsWishes(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	recs, err := s.Create(ctx, task.Task{Variant: task.VariantWish, Title: "w"})
	require.NoError(t, err)

	_, err = s.CheckIn(ctx, recs[0].ID)
	require.Error(t, err)
}

func TestSQLite_ToggleKeepsRecurrenceAndAnchor(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	anchor := time.Date(2026, 3, 1, 7, 30, 0, 0, time.UTC)
	recs, err := s.Create(ctx, task.Task{
		Variant:    task.VariantRoutine,
		Title:      "journal",
		Active:     true,
		RemindAt:   &anchor,
		Recurrence: task.IntervalRecurrence(30 * time.Minute),
		Notification: &task.Notification{
			Sound: "chime",
			Level: task.LevelTimeSensitive,
		},
	})
	require.NoError(t, err)
	id := recs[0].ID

	off := false
	recs, err = s.Update(ctx, id, Fields{Active: &off})
	require.NoError(t, err)
	require.False(t, *recs[0].Active)
	require.Equal(t, "interval:30m", recs[0].Recurrence)
	require.Equal(t, anchor, recs[0].RemindAt.UTC())

	on := true
	recs, err = s.Update(ctx, id, Fields{Active: &on})
	require.NoError(t, err)
	require.True(t, *recs[0].Active)
	require.Equal(t, "interval:30m", recs[0].Recurrence)
	require.Equal(t, anchor, recs[0].RemindAt.UTC())
	require.Equal(t, "chime", recs[0].Notification.Sound)
}

func TestSQLite_NotificationRoundTrip(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	recs, err := s.Create(ctx, task.Task{
		Variant: task.VariantRoutine,
		Title:   "water plants",
		Active:  true,
		Notification: &task.Notification{
			Sound:    "bell",
			Level:    task.LevelCritical,
			Icon:     "https://cdn.example.com/drop.png",
			URL:      "https://example.com/r/1",
			CallMode: true,
		},
		NotifyUsers: []string{"u1", "u2"},
		Images:      []string{"https://cdn.example.com/a.jpg"},
	})
	require.NoError(t, err)

	got := recs[0]
	require.Equal(t, task.LevelCritical, got.Notification.Level)
	require.True(t, got.Notification.CallMode)
	require.Equal(t, []string{"u1", "u2"}, got.NotifyUsers)
	require.Equal(t, []string{"https://cdn.example.com/a.jpg"}, got.Images)

	// Clearing the profile via the typed null.
	var none *task.Notification
	recs, err = s.Update(ctx, got.ID, Fields{Notification: &none})
	require.NoError(t, err)
	require.Nil(t, recs[0].Notification)
}

func TestSQLite_DeleteMissing(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	err := s.Delete(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}
