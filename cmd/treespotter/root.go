package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/treespotter"
	"github.com/aretw0/treespotter/internal/config"
	"github.com/aretw0/treespotter/internal/device"
	"github.com/aretw0/treespotter/internal/notify"
	"github.com/aretw0/treespotter/pkg/core"
	"github.com/aretw0/treespotter/pkg/store"
)

var (
	verbose    bool
	configPath string
	adapter    string
	dataPath   string
	cfg        *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "treespotter",
	Short: "Record tree sightings and watch them on a live map and list",
	Long: `treespotter keeps a list and a map of the most recent tree sightings in
sync with a live document collection: a directory of YAML/JSON files, an
in-memory store, or a Firestore collection.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		root, located := locateRoot()

		path := configPath
		if path == "" && os.Getenv("TREESPOTTER_CONFIG") == "" && located {
			path = root.Config
		}
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		if adapter != "" {
			loaded.Store.Adapter = adapter
		}
		if _, set := os.LookupEnv("TREESPOTTER_PATH"); dataPath != "" {
			loaded.FS.Path = dataPath
		} else if located && !set {
			loaded.FS.Path = root.Resolve(loaded.FS.Path)
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("config: validate: %w", err)
		}
		cfg = loaded

		level := slog.LevelInfo
		if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			level = slog.LevelInfo
		}
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	ctx, stop := signalContext(context.Background())
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: nearest treespotter.yaml up from the working directory, or $TREESPOTTER_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&adapter, "adapter", "", "Storage adapter: fs, memory or firestore")
	rootCmd.PersistentFlags().StringVar(&dataPath, "path", "", "Sightings directory for the fs adapter (default: the located root)")
}

// signalContext is cancelled on interrupt or termination.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// locateRoot finds the sightings root above the working directory.
func locateRoot() (treespotter.Root, bool) {
	wd, err := os.Getwd()
	if err != nil {
		return treespotter.Root{}, false
	}
	root, err := treespotter.Locate(wd)
	if err != nil {
		slog.Debug("no sightings root", "dir", wd, "error", err)
		return treespotter.Root{}, false
	}
	return root, true
}

// openTrees opens the configured store.
func openTrees(ctx context.Context) (*store.Trees, error) {
	opts := []treespotter.Option{
		treespotter.WithAdapter(cfg.Store.Adapter),
		treespotter.WithLogger(slog.Default()),
	}

	uri := cfg.FS.Path
	switch cfg.Store.Adapter {
	case "fs":
		opts = append(opts,
			treespotter.WithFormat(cfg.FS.Format),
			treespotter.WithDebounce(cfg.FS.Debounce),
			treespotter.WithReadOnly(cfg.FS.ReadOnly),
		)
		if cfg.FS.Pattern != "" {
			opts = append(opts, treespotter.WithWatchPattern(cfg.FS.Pattern))
		}
	case "firestore":
		uri = cfg.Firebase.ProjectID
		opts = append(opts,
			treespotter.WithCollectionName(cfg.Firebase.Collection),
			treespotter.WithCredentialsFile(cfg.Firebase.CredentialsFile),
		)
	}

	trees, err := treespotter.Open(ctx, uri, opts...)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Adapter, err)
	}
	return trees, nil
}

// newNotifier prints to stderr and, if configured, raises desktop notifications.
func newNotifier() notify.Notifier {
	n := notify.Multi{notify.NewConsole(os.Stderr)}
	if cfg.Notify.Desktop {
		n = append(n, notify.NewDesktop(slog.Default()))
	}
	return n
}

// newDevice builds the location provider and permission gate. Explicit
// coordinates override the configured ones.
func newDevice(lat, lon *float64) (*device.Location, device.Gate) {
	var fix *core.GeoPoint
	if p, ok := cfg.Location.Point(); ok {
		fix = &p
	}
	if lat != nil && lon != nil {
		fix = &core.GeoPoint{Latitude: *lat, Longitude: *lon}
	}
	return device.NewLocation(fix), device.NewGate(!cfg.Location.Disabled)
}
