// Package main provides the CLI entrypoint for pitkeeper.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TheLysdexicOne/pitkeeper/internal/bus"
	"github.com/TheLysdexicOne/pitkeeper/internal/catalog"
	"github.com/TheLysdexicOne/pitkeeper/internal/config"
	"github.com/TheLysdexicOne/pitkeeper/internal/kv"
	"github.com/TheLysdexicOne/pitkeeper/internal/progress"
	"github.com/TheLysdexicOne/pitkeeper/internal/tui"
)

const (
	defaultLogLevel      = "info"
	defaultWatch         = true
	defaultSuggestWeight = 1.0
)

var (
	dbPath        string
	logLevel      string
	logPath       string
	catalogPath   string
	watchDB       bool
	suggestWeight float64
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	rootCmd := newRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pitkeeper",
		Short:         "Ball x Pit save-slot progress tracker",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTrackerCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&dbPath, "db", config.DefaultDBPath(), "path to the progress database")
	flags.StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&logPath, "log", config.DefaultLogPath(), "log file path, or stderr")
	flags.StringVar(&catalogPath, "catalog", "", "override character table (JSON)")
	rootCmd.Flags().BoolVar(&watchDB, "watch", defaultWatch, "reload when another pitkeeper process writes")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newSlotsCmd())
	rootCmd.AddCommand(newSwitchCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newRenameCmd())
	rootCmd.AddCommand(newCompleteCmd())
	rootCmd.AddCommand(newSelectCmd())
	rootCmd.AddCommand(newOrderCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newSuggestCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newExportCmd())

	return rootCmd
}

// app holds the wired dependencies shared by every command.
type app struct {
	logger  *zap.Logger
	storage kv.Storage
	db      *kv.SQLite
	bus     *bus.Bus
	cat     *catalog.Catalog
	store   *progress.Store
}

func openApp(cmd *cobra.Command) (*app, error) {
	fileCfg, err := config.Load(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "db", &dbPath, fileCfg.Storage.Path)
	applyBoolConfig(cmd, "watch", &watchDB, fileCfg.Storage.Watch)
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log", &logPath, fileCfg.Log.Path)
	applyStringConfig(cmd, "catalog", &catalogPath, fileCfg.Catalog.Path)
	applyFloatConfig(cmd, "weight", &suggestWeight, fileCfg.Suggest.Weight)

	logger, err := newLogger(logLevel, logPath)
	if err != nil {
		return nil, err
	}

	cat, err := loadCatalog(catalogPath)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	a := &app{logger: logger, bus: bus.New(), cat: cat}
	db, err := kv.OpenSQLite(dbPath)
	if err != nil {
		logErrf("warning: %v; progress will not be saved this session\n", err)
		logger.Error("failed to open database, using memory storage", zap.String("path", dbPath), zap.Error(err))
		a.storage = kv.NewMemory()
	} else {
		a.db = db
		a.storage = db
	}
	a.store = progress.New(a.storage, a.bus, cat, progress.WithLogger(logger.Named("progress")))
	return a, nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	cat, err := catalog.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return cat, nil
}

func (a *app) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logErrf("failed to close db: %v\n", err)
		}
	}
	// Best-effort flush; syncing a closed stderr fails on some platforms.
	_ = a.logger.Sync()
}

func runTrackerCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	tracker := progress.NewTracker(a.store)
	defer tracker.Close()

	if watchDB && a.db != nil {
		watcher, err := bus.NewWatcher(a.db.Path(), a.db, a.bus, bus.WithWatchLogger(a.logger.Named("watch")))
		if err != nil {
			a.logger.Warn("cross-process reload disabled", zap.Error(err))
		} else {
			watcher.Start(cmd.Context())
			defer func() {
				if cerr := watcher.Close(); cerr != nil {
					a.logger.Warn("failed to close watcher", zap.Error(cerr))
				}
			}()
		}
	}

	return tui.Run(tracker, a.cat, tea.WithContext(cmd.Context()))
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if flagChanged(cmd, name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if flagChanged(cmd, name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if flagChanged(cmd, name) {
		return
	}
	*target = *value
}

// flagChanged also covers flags that are not defined on cmd.
func flagChanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# pitkeeper configuration
# Uncomment a value to enable it. PITKEEPER_* environment variables override
# the file and CLI flags override both.

[storage]
# path = %q
# watch = %t              # Reload when another pitkeeper process writes

[log]
# level = %q              # debug, info, warn or error
# path = %q

[catalog]
# path = ""               # Character table override (JSON)

[suggest]
# weight = %.1f           # Extra weight per unfinished level when suggesting
`,
		config.DefaultDBPath(),
		defaultWatch,
		defaultLogLevel,
		config.DefaultLogPath(),
		defaultSuggestWeight,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
