package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agalitsyn/flagutils"

	"github.com/Shiraishi0303/todo-claude-code/version"
)

const EnvPrefix = "TODO"

const (
	StorageSQLite = "sqlite"
	StorageFile   = "file"
	StorageMemory = "memory"

	UIShell = "shell"
	UITUI   = "tui"
)

type Config struct {
	Debug bool

	Log struct {
		Level string
		File  string
	}

	Storage struct {
		Backend string
		DBPath  string
		Dir     string
	}

	Lang    string
	UI      string
	NoColor bool
	PDFFont string
}

func (c Config) String() string {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stdout, err)
		os.Exit(0)
	}
	return string(b)
}

// ParseFlags reads flags, falling back to TODO_<FLAG> and then <FLAG>
// environment variables.
func ParseFlags() Config {
	var cfg Config
	printVersion := registerFlags(flag.CommandLine, &cfg)

	flagutils.Prefix = EnvPrefix
	flagutils.Parse()
	flag.Parse()

	if *printVersion {
		fmt.Fprintln(os.Stdout, version.String())
		os.Exit(0)
	}

	cfg.normalize()
	return cfg
}

// registerFlags binds cfg to fs. Flag names avoid common unprefixed variables
// such as LANG, so the environment fallback does not pick them up.
func registerFlags(fs *flag.FlagSet, cfg *Config) *bool {
	dataDir := defaultDataDir()

	printVersion := fs.Bool("version", false, "Show version.")
	fs.StringVar(&cfg.Log.Level, "log-level", "info", "Log level (debug | info).")
	fs.StringVar(&cfg.Log.File, "log-file", "", "Write logs to this file instead of stderr.")
	fs.StringVar(&cfg.Storage.Backend, "storage", StorageSQLite, "Storage backend (sqlite | file | memory).")
	fs.StringVar(&cfg.Storage.DBPath, "db-path", filepath.Join(dataDir, "todo.db"), "SQLite database path.")
	fs.StringVar(&cfg.Storage.Dir, "data-dir", dataDir, "Directory for the file backend.")
	fs.StringVar(&cfg.Lang, "label-lang", "ja", "Label language (ja | en).")
	fs.StringVar(&cfg.UI, "ui", UIShell, "User interface (shell | tui).")
	fs.BoolVar(&cfg.NoColor, "no-color", false, "Disable colored output.")
	fs.StringVar(&cfg.PDFFont, "pdf-font", "", "TrueType font for PDF export, needed for non-Latin titles.")
	return printVersion
}

func (c *Config) normalize() {
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Debug = c.Log.Level == "debug"
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "todo")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "todo")
}
