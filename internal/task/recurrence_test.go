package task_test

import (
	"testing"
	"time"

	"rota/internal/task"
)

func TestRecurrence_Kinds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		r    task.Recurrence
		kind task.RecurrenceKind
		ok   bool
	}{
		{"", task.RecurNone, true},
		{"interval:10m", task.RecurInterval, true},
		{"interval:1h", task.RecurInterval, true},
		{"interval:never", task.RecurInterval, false},
		{"interval:-5m", task.RecurInterval, false},
		{"preset:daily-9", task.RecurPreset, true},
		{"preset:whenever", task.RecurPreset, false},
		{"0 9 * * 1-5", task.RecurCron, true},
		{"*/10 * * * *", task.RecurCron, true},
		{"9am sharp", task.RecurCron, false}, // not five fields
	}

	for _, tc := range cases {
		tc := tc
		t.Run(string(tc.r), func(t *testing.T) {
			t.Parallel()
			if got := tc.r.Kind(); got != tc.kind {
				t.Fatalf("Kind(%q) = %v, want %v", tc.r, got, tc.kind)
			}
			err := tc.r.Validate()
			if tc.ok && err != nil {
				t.Fatalf("Validate(%q) = %v, want nil", tc.r, err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("Validate(%q) = nil, want error", tc.r)
			}
		})
	}
}

// A raw cron line is opaque: stored and redisplayed byte for byte, never
// rewritten or canonicalized.
func TestRecurrence_CronOpaque(t *testing.T) {
	t.Parallel()

	raw := "5 4 * * SUN"
	r := task.Task{Variant: task.VariantRoutine, Title: "x", Recurrence: task.Recurrence(raw)}
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if string(r.Recurrence) != raw {
		t.Fatalf("recurrence mutated: %q", r.Recurrence)
	}
	if got := r.Recurrence.Label(); got != raw {
		t.Fatalf("Label = %q, want verbatim %q", got, raw)
	}
}

func TestRecurrence_Labels(t *testing.T) {
	t.Parallel()

	cases := []struct {
		r    task.Recurrence
		want string
	}{
		{"", "once"},
		{task.IntervalRecurrence(30 * time.Minute), "every 30m"},
		{task.IntervalRecurrence(time.Hour), "every 1h"},
		{task.PresetRecurrence("daily-9"), "daily-9"},
	}
	for _, tc := range cases {
		tc := tc
		if got := tc.r.Label(); got != tc.want {
			t.Errorf("Label(%q) = %q, want %q", tc.r, got, tc.want)
		}
	}
}

func TestRecurrence_IntervalRoundTrip(t *testing.T) {
	t.Parallel()

	for _, d := range task.IntervalPresets {
		r := task.IntervalRecurrence(d)
		got, ok := r.Interval()
		if !ok || got != d {
			t.Errorf("Interval(%q) = %v, %v; want %v, true", r, got, ok, d)
		}
	}
}
