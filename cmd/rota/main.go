package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"rota/internal/config"
	"rota/internal/engine"
	"rota/internal/store"
	"rota/internal/task"
	"rota/internal/ui"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:     "rota",
		Short:   "Wishes and routines in your terminal",
		Long:    "rota tracks one-off wishes and recurring routines.\nRun without arguments for the interactive view.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI()
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: XDG config dir)")

	root.AddCommand(
		listCmd(),
		addCmd(),
		statusCmd(),
		toggleCmd(),
		checkinCmd(),
		rmCmd(),
		notifyTestCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return config.Config{}, err
		}
	}
	return config.LoadOrCreate(path)
}

// setup builds the store and engine from the config. The caller must
// call the returned closer when done.
func setup() (*engine.Engine, config.Config, func() error, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cfg, nil, err
	}

	if cfg.Mode == "remote" {
		st := store.NewHTTP(cfg.API.BaseURL, cfg.API.Token, cfg.API.Timeout())
		return engine.New(st, cfg.PageSize), cfg, func() error { return nil }, nil
	}

	st, err := store.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, cfg, nil, err
	}
	return engine.New(st, cfg.PageSize), cfg, st.Close, nil
}

func runTUI() error {
	eng, cfg, closer, err := setup()
	if err != nil {
		return err
	}
	defer closer()

	app := ui.NewApp(eng, cfg.Defaults.Sound, cfg.Defaults.Level)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running application: %w", err)
	}
	return nil
}

func listCmd() *cobra.Command {
	var filter string
	var allPages bool

	cmd := &cobra.Command{
		Use:       "list [wishes|routines]",
		Short:     "List tasks",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"wishes", "routines"},
		RunE: func(cmd *cobra.Command, args []string) error {
			af, err := store.ParseFilter(filter)
			if err != nil {
				return err
			}

			eng, _, closer, err := setup()
			if err != nil {
				return err
			}
			defer closer()
			ctx := context.Background()

			which := "wishes"
			if len(args) == 1 {
				which = args[0]
			}
			if which == "wishes" {
				if err := eng.LoadWishes(ctx); err != nil {
					return err
				}
				printWishes(cmd, eng)
				return nil
			}

			if err := eng.LoadRoutines(ctx, af); err != nil {
				return err
			}
			for allPages && eng.HasMore() {
				if err := eng.MoreRoutines(ctx); err != nil {
					return err
				}
			}
			printRoutines(cmd, eng)
			return nil
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "active", "routine filter: active, paused or all")
	cmd.Flags().BoolVar(&allPages, "all", false, "fetch every page of routines")
	return cmd
}

func printWishes(cmd *cobra.Command, eng *engine.Engine) {
	todo, inProgress, done := eng.WishBuckets()
	for _, bucket := range []struct {
		head string
		rows []task.Task
	}{
		{"TODO", todo},
		{"IN PROGRESS", inProgress},
		{"DONE", done},
	} {
		if len(bucket.rows) == 0 {
			continue
		}
		cmd.Println(bucket.head)
		for _, w := range bucket.rows {
			line := fmt.Sprintf("  %s  %s", w.ID, w.Title)
			if w.TargetDate != nil {
				line += "  by " + w.TargetDate.Format("2006-01-02")
			}
			cmd.Println(line)
		}
	}
}

func printRoutines(cmd *cobra.Command, eng *engine.Engine) {
	for _, r := range eng.Routines() {
		state := "paused"
		if r.Active {
			state = "active"
		}
		line := fmt.Sprintf("%s  [%s]  %s  (%s)", r.ID, state, r.Title, r.Recurrence.Label())
		if r.RemindAt != nil {
			line += "  @ " + r.RemindAt.Local().Format("2006-01-02 15:04")
		}
		cmd.Println(line)
	}
	if eng.HasMore() {
		cmd.Println("(more pages; use --all)")
	}
}

func addCmd() *cobra.Command {
	var (
		routine     bool
		description string
		targetDate  string
		remindAt    string
		recurrence  string
		notifyUsers []string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a wish, or a routine with --routine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, cfg, closer, err := setup()
			if err != nil {
				return err
			}
			defer closer()

			t := task.Task{
				Variant:     task.VariantWish,
				Title:       strings.TrimSpace(args[0]),
				Description: description,
				Status:      task.StatusTodo,
			}
			if routine {
				t.Variant = task.VariantRoutine
				t.Status = ""
				t.Active = true
				t.Recurrence = task.Recurrence(recurrence)
				t.NotifyUsers = notifyUsers
				t.Notification = &task.Notification{
					Sound: cfg.Defaults.Sound,
					Level: task.Level(cfg.Defaults.Level),
				}
				if remindAt != "" {
					at, err := time.ParseInLocation("2006-01-02 15:04", remindAt, time.Local)
					if err != nil {
						return fmt.Errorf("--remind must look like 2006-01-02 15:04: %w", err)
					}
					t.RemindAt = &at
				}
			} else if targetDate != "" {
				d, err := time.ParseInLocation("2006-01-02", targetDate, time.Local)
				if err != nil {
					return fmt.Errorf("--target must look like 2006-01-02: %w", err)
				}
				t.TargetDate = &d
			}

			return eng.Create(context.Background(), t)
		},
	}
	cmd.Flags().BoolVar(&routine, "routine", false, "create a recurring routine instead of a wish")
	cmd.Flags().StringVarP(&description, "desc", "m", "", "description")
	cmd.Flags().StringVar(&targetDate, "target", "", "wish target date (2006-01-02)")
	cmd.Flags().StringVar(&remindAt, "remind", "", "routine reminder anchor (2006-01-02 15:04)")
	cmd.Flags().StringVar(&recurrence, "recur", "", `recurrence: "", interval:30m, preset:daily-9 or a cron line`)
	cmd.Flags().StringSliceVar(&notifyUsers, "notify", nil, "extra user ids to notify")
	return cmd
}

// withLoaded runs fn against an engine that has both lists loaded, so
// mutations can find the task by id.
func withLoaded(fn func(ctx context.Context, eng *engine.Engine) error) error {
	eng, _, closer, err := setup()
	if err != nil {
		return err
	}
	defer closer()

	ctx := context.Background()
	if err := eng.LoadWishes(ctx); err != nil {
		return err
	}
	if err := eng.LoadRoutines(ctx, store.FilterAll); err != nil {
		return err
	}
	return fn(ctx, eng)
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "status <id> <todo|in_progress|done>",
		Short:     "Set a wish's status",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"todo", "in_progress", "done"},
		RunE: func(cmd *cobra.Command, args []string) error {
			st := task.Status(args[1])
			if !st.Valid() {
				return fmt.Errorf("unknown status %q", args[1])
			}
			return withLoaded(func(ctx context.Context, eng *engine.Engine) error {
				return eng.SetStatus(ctx, args[0], st)
			})
		},
	}
}

func toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Pause or resume a routine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLoaded(func(ctx context.Context, eng *engine.Engine) error {
				return eng.ToggleActive(ctx, args[0])
			})
		},
	}
}

func checkinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkin <id>",
		Short: "Check in the current occurrence of a routine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLoaded(func(ctx context.Context, eng *engine.Engine) error {
				msg, err := eng.CheckIn(ctx, args[0])
				if err != nil {
					return err
				}
				cmd.Println(msg)
				return nil
			})
		},
	}
}

func rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLoaded(func(ctx context.Context, eng *engine.Engine) error {
				return eng.Delete(ctx, args[0])
			})
		},
	}
}

func notifyTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notify-test <id>",
		Short: "Send a routine's notification once, out of band",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLoaded(func(ctx context.Context, eng *engine.Engine) error {
				return eng.TestNotification(ctx, args[0])
			})
		},
	}
}
