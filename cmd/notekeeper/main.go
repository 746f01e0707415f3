package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/nhle/notekeeper/internal/model"
	"github.com/nhle/notekeeper/internal/repository"
	"github.com/nhle/notekeeper/internal/store"
)

// CLI is the top-level command structure for notekeeper.
type CLI struct {
	Config string `type:"path" env:"NOTEKEEPER_CONFIG" help:"Path to the config file (default ~/.config/notekeeper/config.yaml)."`
	DB     string `type:"path" name:"db" help:"Override the database path from the config."`
	Debug  bool   `env:"NOTEKEEPER_DEBUG" help:"Enable debug logging."`

	Notes      NotesCmd      `cmd:"" help:"List notes, oldest first."`
	Tasks      TasksCmd      `cmd:"" help:"List tasks by due date."`
	Search     SearchCmd     `cmd:"" help:"Search notes and tasks by title or description."`
	Show       ShowCmd       `cmd:"" help:"Show a note with its media and reminders as YAML."`
	Add        AddCmd        `cmd:"" help:"Create a note or task."`
	Done       DoneCmd       `cmd:"" help:"Mark a task as completed."`
	Rm         RmCmd         `cmd:"" help:"Delete a note with its media and reminders."`
	Attach     AttachCmd     `cmd:"" help:"Attach a media file to a note."`
	Media      MediaCmd      `cmd:"" help:"List every attachment."`
	Remind     RemindCmd     `cmd:"" help:"Add a reminder to a note."`
	Reschedule RescheduleCmd `cmd:"" help:"Announce every pending reminder to the scheduler."`
	Watch      WatchCmd      `cmd:"" help:"Print a list again each time it changes."`
	InitConfig InitConfigCmd `cmd:"" name:"init-config" help:"Write a config file with the current settings."`
}

// env carries the process-wide collaborators handed to every command.
type env struct {
	cfg     *model.AppConfig
	cfgPath string
	store   *store.SQLiteStore
	repo    *repository.Repository
}

func main() {
	cli := CLI{}
	parser, err := kong.New(&cli,
		kong.Name("notekeeper"),
		kong.Description("Notes, tasks, attachments and reminders in a local SQLite store."),
		kong.UsageOnError(),
		kong.Exit(func(code int) {
			os.Exit(code)
		}),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "notekeeper: %v\n", err)
		os.Exit(1)
	}
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	cfgPath := cli.Config
	if cfgPath == "" {
		cfgPath = model.DefaultConfigPath()
	}
	cfg, err := model.LoadConfig(cfgPath)
	kctx.FatalIfErrorf(err)
	if cli.DB != "" {
		cfg.Database.Path = cli.DB
	}

	setupLogger(cfg.Log.Level, cli.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := &env{cfg: cfg, cfgPath: cfgPath}
	if kctx.Command() != "init-config" {
		e.store, err = store.NewSQLiteStore(cfg.Database.Path, cfg.Database.BusyTimeout(),
			store.WithPollInterval(cfg.Database.PollInterval()))
		kctx.FatalIfErrorf(err)
		e.repo = repository.New(e.store, repository.WithReminderListener(logListener{}))
	}

	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.Bind(e)

	err = kctx.Run()
	if e.store != nil {
		if cerr := e.store.Close(); cerr != nil {
			slog.Warn("closing store", "error", cerr)
		}
	}
	kctx.FatalIfErrorf(err)
}

func setupLogger(level string, debug bool) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	if debug {
		lvl = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	}))
	slog.SetDefault(logger)
}

// logListener stands in for an alarm scheduler by logging reminder changes.
type logListener struct{}

func (logListener) ReminderScheduled(r model.Reminder) {
	slog.Info("reminder scheduled", "id", r.ID, "note", r.NoteID, "at", r.At.Local())
}

func (logListener) ReminderCancelled(id int64) {
	slog.Info("reminder cancelled", "id", id)
}
