package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Tiliavir/dlog/internal/config"
	"github.com/Tiliavir/dlog/internal/format"
	"github.com/Tiliavir/dlog/internal/logging"
	"github.com/Tiliavir/dlog/internal/storage"
)

var (
	// ErrNoEntry is returned when a command needs an existing entry.
	ErrNoEntry = errors.New("there is no entry yet, use dlog start or pass --from")
	// ErrIncompleteEntry is returned by start while the last entry is running.
	ErrIncompleteEntry = errors.New("the last entry is still running, stop it with dlog fill first")
)

var (
	verbose bool
	noColor bool

	// now is the clock used by all commands.
	now = time.Now
)

// App bundles what every command needs. It is built once per invocation.
type App struct {
	Locator config.Locator
	Config  config.Config
	Log     *zap.Logger
	Repo    *storage.Repository
}

var app *App

var rootCmd = &cobra.Command{
	Use:   "dlog",
	Short: "dlog - a tiny time tracker keeping one line per entry",
	Long: `dlog logs what you spend your time on to a plain text file.

Start an entry with "dlog start", then describe it once you are done with
"dlog fill <activity>[:<project>] [+<tag>...]". Entries are stored in the
file "entries" inside $DLOG_PATH, $XDG_DATA_HOME/dlog or ~/.config/dlog.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if app != nil {
			_ = app.Log.Sync()
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(fillCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(outlookCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup resolves the data directory, loads the configuration, repairs an
// interrupted write and opens the entries file.
func setup(cmd *cobra.Command, args []string) error {
	loc, err := config.NewLocator()
	if err != nil {
		return err
	}
	cfg, err := config.Load(loc)
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log := logging.New(level)

	repo, err := storage.Open(loc, storage.WithLogger(log), storage.WithClock(now))
	if err != nil {
		return err
	}
	recovered, err := storage.Recover(repo.Path())
	if err != nil {
		return err
	}
	if recovered {
		log.Warn("restored entries file after an interrupted write", zap.String("file", repo.Path()))
	}

	app = &App{Locator: loc, Config: cfg, Log: log, Repo: repo}
	return nil
}

// formatter returns a formatter for w honoring --no-color and NO_COLOR.
func (a *App) formatter(w io.Writer) *format.Formatter {
	color := !noColor && os.Getenv("NO_COLOR") == ""
	return format.New(w, format.Layouts{
		Time:     a.Config.TimeFormat,
		Date:     a.Config.DateFormat,
		LongDate: a.Config.LongDateFormat,
	}, color)
}

// timeLayouts returns the configured layouts accepted as date-time input.
func (a *App) timeLayouts() []string {
	return []string{a.Config.DateFormat + " " + a.Config.TimeFormat, a.Config.TimeFormat}
}
