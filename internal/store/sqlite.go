package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"rota/internal/task"
)

//go:embed schema.sql
var schema string

// SQLite is the local store: the whole task list in one file. In local
// mode it also plays the scheduler's part for interval recurrences (see
// CheckIn); preset and cron schedules are left to the companion
// scheduler process that watches the same file.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (and if needed creates) the store at path. An empty
// path falls back to the XDG data directory.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		var err error
		path, err = defaultDBPath()
		if err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db, now: time.Now}, nil
}

func defaultDBPath() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, ".local", "share")
	}

	appDir := filepath.Join(dataDir, "rota")
	if err := os.MkdirAll(appDir, 0755); err != nil {
		return "", err
	}

	return filepath.Join(appDir, "rota.db"), nil
}

func (s *SQLite) Close() error { return s.db.Close() }

const taskColumns = `id, variant, title, description, status, done, is_active,
	target_date, remind_at, recurrence, notify_users, notification, images, created_at`

func (s *SQLite) List(ctx context.Context, opts ListOptions) (ListResult, error) {
	where := " WHERE variant = ?"
	args := []any{string(opts.Variant)}

	switch opts.Filter {
	case FilterActive:
		where += " AND is_active = 1"
	case FilterPaused:
		where += " AND is_active = 0"
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks"+where, args...).Scan(&total); err != nil {
		return ListResult{}, err
	}

	query := "SELECT " + taskColumns + " FROM tasks" + where + " ORDER BY created_at DESC, id"
	page := opts.Page
	if page < 1 {
		page = 1
	}
	if opts.PageSize > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.PageSize, (page-1)*opts.PageSize)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return ListResult{}, err
	}
	defer rows.Close()

	var recs []task.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return ListResult{}, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return ListResult{}, err
	}

	p := Pagination{Page: page, PageSize: opts.PageSize, Total: total}
	if opts.PageSize > 0 {
		p.HasMore = page*opts.PageSize < total
	}
	return ListResult{Records: recs, Pagination: p}, nil
}

func (s *SQLite) Create(ctx context.Context, t task.Task) ([]task.Record, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	t.ID = uuid.NewString()
	t.CreatedAt = s.now().UTC()

	notifyUsers, err := json.Marshal(emptySlice(t.NotifyUsers))
	if err != nil {
		return nil, err
	}
	images, err := json.Marshal(emptySlice(t.Images))
	if err != nil {
		return nil, err
	}
	var notification any
	if t.Notification != nil {
		b, err := json.Marshal(t.Notification)
		if err != nil {
			return nil, err
		}
		notification = string(b)
	}

	var status, active any
	switch t.Variant {
	case task.VariantWish:
		status = string(t.Status)
	case task.VariantRoutine:
		active = boolToInt(t.Active)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, variant, title, description, status, is_active,
			target_date, remind_at, recurrence, notify_users, notification, images, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, string(t.Variant), t.Title, t.Description, status, active,
		t.TargetDate, t.RemindAt, string(t.Recurrence), string(notifyUsers), notification, string(images), t.CreatedAt)
	if err != nil {
		return nil, err
	}

	return s.listAll(ctx, t.Variant)
}

func (s *SQLite) Update(ctx context.Context, id string, f Fields) ([]task.Record, error) {
	variant, err := s.variantOf(ctx, id)
	if err != nil {
		return nil, err
	}

	set := []string{}
	args := []any{}
	add := func(clause string, vals ...any) {
		set = append(set, clause)
		args = append(args, vals...)
	}

	if f.Title != nil {
		add("title = ?", *f.Title)
	}
	if f.Description != nil {
		add("description = ?", *f.Description)
	}
	if f.Status != nil {
		// An explicit status supersedes any legacy done flag for good.
		add("status = ?, done = NULL", string(*f.Status))
	}
	if f.Active != nil {
		add("is_active = ?", boolToInt(*f.Active))
	}
	if f.TargetDate != nil {
		add("target_date = ?", *f.TargetDate)
	} else if f.ClearTarget {
		add("target_date = NULL")
	}
	if f.RemindAt != nil {
		add("remind_at = ?", *f.RemindAt)
	} else if f.ClearRemind {
		add("remind_at = NULL")
	}
	if f.Recurrence != nil {
		add("recurrence = ?", string(*f.Recurrence))
	}
	if f.NotifyUsers != nil {
		b, err := json.Marshal(emptySlice(*f.NotifyUsers))
		if err != nil {
			return nil, err
		}
		add("notify_users = ?", string(b))
	}
	if f.Notification != nil {
		if *f.Notification == nil {
			add("notification = NULL")
		} else {
			b, err := json.Marshal(*f.Notification)
			if err != nil {
				return nil, err
			}
			add("notification = ?", string(b))
		}
	}
	if f.Images != nil {
		b, err := json.Marshal(emptySlice(*f.Images))
		if err != nil {
			return nil, err
		}
		add("images = ?", string(b))
	}

	if len(set) > 0 {
		query := "UPDATE tasks SET " + strings.Join(set, ", ") + " WHERE id = ?"
		args = append(args, id)
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			return nil, err
		}
	}

	return s.listAll(ctx, variant)
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CheckIn acknowledges the current occurrence. For interval recurrences
// the local store owns rescheduling: the anchor rolls forward by whole
// intervals until it lands in the future. Everything else keeps its
// anchor; the external scheduler decides.
func (s *SQLite) CheckIn(ctx context.Context, id string) (string, error) {
	rec, err := s.get(ctx, id)
	if err != nil {
		return "", err
	}
	if rec.Variant != task.VariantRoutine {
		return "", fmt.Errorf("task %s is not a routine", id)
	}

	now := s.now().UTC()
	if _, err := s.db.ExecContext(ctx, "UPDATE tasks SET checked_in_at = ? WHERE id = ?", now, id); err != nil {
		return "", err
	}

	interval, ok := task.Recurrence(rec.Recurrence).Interval()
	if !ok || rec.RemindAt == nil {
		return "Checked in.", nil
	}

	next := *rec.RemindAt
	for !next.After(now) {
		next = next.Add(interval)
	}
	if _, err := s.db.ExecContext(ctx, "UPDATE tasks SET remind_at = ? WHERE id = ?", next, id); err != nil {
		return "", err
	}
	return "Checked in. Next reminder " + next.Local().Format("Jan 2 15:04") + ".", nil
}

// TestNotification only verifies the target; delivery is done by the
// notifier daemon watching this file, out of band.
func (s *SQLite) TestNotification(ctx context.Context, id string) error {
	rec, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if rec.Variant != task.VariantRoutine {
		return fmt.Errorf("task %s is not a routine", id)
	}
	return nil
}

func (s *SQLite) listAll(ctx context.Context, v task.Variant) ([]task.Record, error) {
	res, err := s.List(ctx, ListOptions{Variant: v, Filter: FilterAll})
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

func (s *SQLite) variantOf(ctx context.Context, id string) (task.Variant, error) {
	var v string
	err := s.db.QueryRowContext(ctx, "SELECT variant FROM tasks WHERE id = ?", id).Scan(&v)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return task.Variant(v), nil
}

func (s *SQLite) get(ctx context.Context, id string) (task.Record, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return task.Record{}, ErrNotFound
	}
	return rec, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (task.Record, error) {
	var (
		rec                  task.Record
		variant              string
		status               sql.NullString
		done, active         sql.NullBool
		targetDate, remindAt sql.NullTime
		notifyUsers, images  string
		notification         sql.NullString
	)
	err := row.Scan(&rec.ID, &variant, &rec.Title, &rec.Description, &status, &done, &active,
		&targetDate, &remindAt, &rec.Recurrence, &notifyUsers, &notification, &images, &rec.CreatedAt)
	if err != nil {
		return task.Record{}, err
	}

	rec.Variant = task.Variant(variant)
	if status.Valid {
		st := task.Status(status.String)
		rec.Status = &st
	}
	if done.Valid {
		d := done.Bool
		rec.LegacyDone = &d
	}
	if active.Valid {
		a := active.Bool
		rec.Active = &a
	}
	if targetDate.Valid {
		t := targetDate.Time
		rec.TargetDate = &t
	}
	if remindAt.Valid {
		t := remindAt.Time
		rec.RemindAt = &t
	}
	if err := json.Unmarshal([]byte(notifyUsers), &rec.NotifyUsers); err != nil {
		return task.Record{}, err
	}
	if err := json.Unmarshal([]byte(images), &rec.Images); err != nil {
		return task.Record{}, err
	}
	if notification.Valid {
		var n task.Notification
		if err := json.Unmarshal([]byte(notification.String), &n); err != nil {
			return task.Record{}, err
		}
		rec.Notification = &n
	}
	return rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func emptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
