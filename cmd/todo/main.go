package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-pkgz/lgr"

	"github.com/Shiraishi0303/todo-claude-code/internal/app"
	"github.com/Shiraishi0303/todo-claude-code/internal/export"
	"github.com/Shiraishi0303/todo-claude-code/internal/model"
	"github.com/Shiraishi0303/todo-claude-code/internal/storage/jsonfile"
	"github.com/Shiraishi0303/todo-claude-code/internal/storage/memory"
	"github.com/Shiraishi0303/todo-claude-code/internal/storage/sqlite"
	"github.com/Shiraishi0303/todo-claude-code/internal/store"
	"github.com/Shiraishi0303/todo-claude-code/internal/tui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := ParseFlags()

	logOut, closeLog, err := logWriter(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closeLog()
	setupLog(cfg.Debug, logOut)

	if cfg.Debug {
		lgr.Printf("[DEBUG] running with config")
		fmt.Fprintln(logOut, cfg.String())
	}

	kv, closeKV, err := openStorage(cfg)
	if err != nil {
		lgr.Fatalf("[ERROR] could not open storage: %v", err)
	}
	defer closeKV()

	logger := lgr.Default()
	st := store.New(kv,
		store.WithLogger(logger),
		store.WithLabels(model.NewLabels(cfg.Lang)),
	)
	tasks := st.Load(ctx)
	lgr.Printf("[INFO] loaded %d tasks from %s storage", len(tasks), cfg.Storage.Backend)

	exporter := export.NewExporter(st.IsOverdue,
		export.WithFont(cfg.PDFFont),
		export.WithLabels(st.Labels()),
	)

	switch cfg.UI {
	case UITUI:
		if err := tui.Run(ctx, st, exporter, logger); err != nil {
			lgr.Fatalf("[ERROR] tui failed: %v", err)
		}
	default:
		shell := app.NewShell(app.ShellConfig{Color: !cfg.NoColor}, st, exporter, os.Stdin, os.Stdout, logger)
		shell.Start(ctx)
	}
	lgr.Printf("[DEBUG] bye")
}

func setupLog(debug bool, out io.Writer) {
	opts := []lgr.Option{lgr.Msec, lgr.LevelBraces, lgr.Out(out), lgr.Err(out)}
	if debug {
		opts = append(opts, lgr.Debug, lgr.CallerFunc)
	}
	lgr.Setup(opts...)
	lgr.SetupStdLogger(opts...)
}

// logWriter picks where logs go. The TUI owns the terminal, so without a
// log file its logs are dropped.
func logWriter(cfg Config) (io.Writer, func(), error) {
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open log file: %w", err)
		}
		return f, func() { f.Close() }, nil
	}
	if cfg.UI == UITUI {
		return io.Discard, func() {}, nil
	}
	return os.Stderr, func() {}, nil
}

func openStorage(cfg Config) (model.KV, func(), error) {
	switch cfg.Storage.Backend {
	case StorageSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0o700); err != nil {
			return nil, nil, fmt.Errorf("could not create data dir: %w", err)
		}
		kv, err := sqlite.Open(cfg.Storage.DBPath)
		if err != nil {
			return nil, nil, err
		}
		lgr.Printf("[DEBUG] using sqlite database %s", cfg.Storage.DBPath)
		return kv, func() {
			if err := kv.Close(); err != nil {
				lgr.Printf("[WARN] could not close database: %v", err)
			}
		}, nil
	case StorageFile:
		lgr.Printf("[DEBUG] using file storage in %s", cfg.Storage.Dir)
		return jsonfile.NewKVStorage(cfg.Storage.Dir), func() {}, nil
	case StorageMemory:
		return memory.NewKVStorage(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
