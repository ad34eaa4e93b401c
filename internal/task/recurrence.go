package task

import (
	"fmt"
	"strings"
	"time"
)

// Recurrence describes when a routine re-fires. It is an uninterpreted
// string as far as scheduling goes; the client only recognizes enough
// shape to validate and label it. Next-fire computation belongs to the
// scheduler, never to this package.
//
// Grammar:
//
//	""                fire once at RemindAt
//	"interval:30m"    fixed period from RemindAt (Go duration syntax)
//	"preset:<name>"   one of the fixed-time presets below
//	anything else     raw 5-field cron, passed through verbatim
type Recurrence string

const (
	recInterval = "interval:"
	recPreset   = "preset:"
)

// Kind of recurrence, for display and validation branching only.
type RecurrenceKind int

const (
	RecurNone RecurrenceKind = iota
	RecurInterval
	RecurPreset
	RecurCron
)

// IntervalPresets are the periods the form offers as quick choices.
var IntervalPresets = []time.Duration{
	10 * time.Minute,
	30 * time.Minute,
	time.Hour,
}

// FixedPresets maps preset names to the cron line the scheduler sees.
// The names are the stable identifiers; the cron text is informational
// here and owned by the scheduler's catalogue.
var FixedPresets = map[string]string{
	"workday-hourly": "0 9-18 * * 1-5",
	"daily-9":        "0 9 * * *",
	"monday-8":       "0 8 * * 1",
}

// FixedPresetNames lists the presets in the order forms offer them.
var FixedPresetNames = []string{"daily-9", "monday-8", "workday-hourly"}

func (r Recurrence) Kind() RecurrenceKind {
	s := string(r)
	switch {
	case s == "":
		return RecurNone
	case strings.HasPrefix(s, recInterval):
		return RecurInterval
	case strings.HasPrefix(s, recPreset):
		return RecurPreset
	default:
		return RecurCron
	}
}

// Interval returns the period of an interval recurrence, or false for
// any other kind.
func (r Recurrence) Interval() (time.Duration, bool) {
	if r.Kind() != RecurInterval {
		return 0, false
	}
	d, err := time.ParseDuration(strings.TrimPrefix(string(r), recInterval))
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

// Validate checks the descriptor's shape. Raw cron is accepted verbatim
// whenever it is non-empty with five fields worth of text; the client
// never evaluates it.
func (r Recurrence) Validate() error {
	switch r.Kind() {
	case RecurNone:
		return nil
	case RecurInterval:
		if _, ok := r.Interval(); !ok {
			return fmt.Errorf("bad interval recurrence %q", string(r))
		}
		return nil
	case RecurPreset:
		name := strings.TrimPrefix(string(r), recPreset)
		if _, ok := FixedPresets[name]; !ok {
			return fmt.Errorf("unknown recurrence preset %q", name)
		}
		return nil
	default:
		if len(strings.Fields(string(r))) != 5 {
			return fmt.Errorf("cron recurrence %q must have 5 fields", string(r))
		}
		return nil
	}
}

// Label renders the descriptor for list rows.
func (r Recurrence) Label() string {
	switch r.Kind() {
	case RecurNone:
		return "once"
	case RecurInterval:
		d, ok := r.Interval()
		if !ok {
			return string(r)
		}
		return "every " + shortDuration(d)
	case RecurPreset:
		return strings.TrimPrefix(string(r), recPreset)
	default:
		return string(r)
	}
}

// IntervalRecurrence builds the descriptor for a fixed period.
func IntervalRecurrence(d time.Duration) Recurrence {
	return Recurrence(recInterval + shortDuration(d))
}

// PresetRecurrence builds the descriptor for a named fixed-time preset.
func PresetRecurrence(name string) Recurrence {
	return Recurrence(recPreset + name)
}

func shortDuration(d time.Duration) string {
	s := d.String()
	if strings.HasSuffix(s, "m0s") {
		s = strings.TrimSuffix(s, "0s")
	}
	if strings.HasSuffix(s, "h0m") {
		s = strings.TrimSuffix(s, "0m")
	}
	return s
}
