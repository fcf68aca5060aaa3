// Package main provides the CLI entrypoint for swingkiosk.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/swingkiosk/internal/backend"
	"github.com/verte-zerg/swingkiosk/internal/config"
	"github.com/verte-zerg/swingkiosk/internal/generator"
	"github.com/verte-zerg/swingkiosk/internal/model"
	"github.com/verte-zerg/swingkiosk/internal/session"
	"github.com/verte-zerg/swingkiosk/internal/statsui"
	"github.com/verte-zerg/swingkiosk/internal/store"
	"github.com/verte-zerg/swingkiosk/internal/tui"
)

const (
	defaultBackendTimeoutMs = 5000
	defaultCurveWindow      = 5
	defaultServerAddr       = ":8080"
	defaultEnvFile          = ".env"
)

var (
	sessionShots          int
	sessionAnnounceMs     int
	sessionTickMs         int
	sessionFinalizeMs     int
	sessionTargetDistance float64
	sessionMultiplier     float64
	sessionSeed           int64
	sessionReplay         string

	backendURL       string
	backendTimeoutMs int
	dbPath           string
	envFile          string
	debugLog         bool

	serveAddr    string
	serveOrigins []string

	statsSeries      string
	statsSince       string
	statsLast        int
	statsCurveWindow int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "swingkiosk",
		Short:         "Golf swing analysis kiosk",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runKioskCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.IntVar(&sessionShots, "shots", session.DefaultShots, "shots per measurement phase")
	flags.IntVar(&sessionAnnounceMs, "announce-ms", int(session.DefaultAnnounceDelay/time.Millisecond), "announce delay before collecting (ms)")
	flags.IntVar(&sessionTickMs, "tick-ms", int(session.DefaultTickInterval/time.Millisecond), "interval between shots (ms)")
	flags.IntVar(&sessionFinalizeMs, "finalize-ms", int(session.DefaultFinalizeDelay/time.Millisecond), "analysis delay after the last shot (ms)")
	flags.Float64Var(&sessionTargetDistance, "target-distance", session.DefaultTargetDistance, "target line for dispersion (m)")
	flags.Float64Var(&sessionMultiplier, "directional-multiplier", session.DefaultDirectionalMultiplier, "weight of the launch angle change in directional improvement")
	flags.Int64Var(&sessionSeed, "seed", 0, "seed for synthetic readings (0: random)")
	flags.StringVar(&sessionReplay, "replay", "", "replay the readings of an archived series instead of synthetic ones")
	flags.StringVar(&backendURL, "backend-url", "", "remote backend base URL (default: built-in mock)")
	flags.IntVar(&backendTimeoutMs, "backend-timeout-ms", defaultBackendTimeoutMs, "timeout for backend calls (ms)")
	flags.StringVar(&dbPath, "db", config.DefaultDBPath(), "swing archive path")
	flags.StringVar(&envFile, "env-file", defaultEnvFile, "dotenv file loaded before config resolution")
	flags.BoolVar(&debugLog, "debug", false, "log every session event")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// kiosk bundles the wired runtime shared by the TUI and the server.
type kiosk struct {
	engine  *session.Engine
	backend *backend.Archive
	store   *store.Store
	cancel  context.CancelFunc
}

func (k *kiosk) Close(logger *slog.Logger) {
	k.engine.Close()
	k.cancel()
	if err := k.store.Close(); err != nil {
		logger.Error("failed to close db", "error", err)
	}
}

func resolveFileConfig(cmd *cobra.Command) (config.FileConfig, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return config.FileConfig{}, err
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "shots", &sessionShots, fileCfg.Session.Shots)
	applyIntConfig(cmd, "announce-ms", &sessionAnnounceMs, fileCfg.Session.AnnounceMs)
	applyIntConfig(cmd, "tick-ms", &sessionTickMs, fileCfg.Session.TickMs)
	applyIntConfig(cmd, "finalize-ms", &sessionFinalizeMs, fileCfg.Session.FinalizeMs)
	applyFloatConfig(cmd, "target-distance", &sessionTargetDistance, fileCfg.Session.TargetDistance)
	applyFloatConfig(cmd, "directional-multiplier", &sessionMultiplier, fileCfg.Session.DirectionalMultiplier)
	applyStringConfig(cmd, "backend-url", &backendURL, fileCfg.Backend.URL)
	applyIntConfig(cmd, "backend-timeout-ms", &backendTimeoutMs, fileCfg.Backend.TimeoutMs)
	applyStringConfig(cmd, "db", &dbPath, fileCfg.Server.DBPath)
	return fileCfg, nil
}

func sessionConfig() model.Config {
	return model.Config{
		Shots:                 sessionShots,
		AnnounceDelay:         time.Duration(sessionAnnounceMs) * time.Millisecond,
		TickInterval:          time.Duration(sessionTickMs) * time.Millisecond,
		FinalizeDelay:         time.Duration(sessionFinalizeMs) * time.Millisecond,
		TargetDistance:        sessionTargetDistance,
		DirectionalMultiplier: sessionMultiplier,
	}
}

func newKiosk(logger *slog.Logger) (*kiosk, error) {
	cfg := sessionConfig()
	if err := session.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}
	if backendTimeoutMs <= 0 {
		return nil, fmt.Errorf("--backend-timeout-ms must be > 0")
	}
	timeout := time.Duration(backendTimeoutMs) * time.Millisecond

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	src, err := readingSource(st)
	if err != nil {
		if cerr := st.Close(); cerr != nil {
			logger.Error("failed to close db", "error", cerr)
		}
		return nil, err
	}

	var remote backend.Backend = backend.NewMock(cfg)
	if backendURL != "" {
		remote = backend.NewHTTP(backendURL, timeout)
		logger.Info("using remote backend", "url", backendURL)
	}
	archive := backend.NewArchive(remote, st, logger)

	engine, err := session.New(session.Options{
		Config:         cfg,
		Source:         src,
		Backend:        archive,
		Logger:         logger,
		BackendTimeout: timeout,
	})
	if err != nil {
		if cerr := st.Close(); cerr != nil {
			logger.Error("failed to close db", "error", cerr)
		}
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	if debugLog {
		go session.LogEvents(ctx, engine.Bus(), logger)
	}
	return &kiosk{engine: engine, backend: archive, store: st, cancel: cancel}, nil
}

func readingSource(st *store.Store) (generator.Source, error) {
	if sessionReplay != "" {
		swings, err := st.LoadSeries(context.Background(), sessionReplay)
		if err != nil {
			return nil, fmt.Errorf("failed to load replay series: %w", err)
		}
		var readings []model.SwingMeasurement
		for _, s := range swings {
			readings = append(readings, s.Measurements...)
		}
		if len(readings) == 0 {
			return nil, fmt.Errorf("series %q has no archived readings", sessionReplay)
		}
		return generator.NewReplay(readings), nil
	}
	if sessionSeed != 0 {
		return generator.NewSeeded(sessionSeed), nil
	}
	return generator.New(), nil
}

func runKioskCmd(cmd *cobra.Command, _ []string) error {
	if _, err := resolveFileConfig(cmd); err != nil {
		return err
	}
	logger, closeLog, err := fileLogger(config.DefaultLogPath())
	if err != nil {
		return err
	}
	defer closeLog()

	k, err := newKiosk(logger)
	if err != nil {
		return err
	}
	defer k.Close(logger)

	m := tui.NewModel(k.engine, logger)
	defer m.Close()
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// fileLogger logs to path while the TUI owns the terminal.
func fileLogger(path string) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: logLevel()}))
	return logger, func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort log file close.
			_ = cerr
		}
	}, nil
}

func jsonLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel()}))
}

func logLevel() slog.Level {
	if debugLog {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Browse archived swings",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsSeries, "series", "", "series id filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N swings")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	if _, err := resolveFileConfig(cmd); err != nil {
		return err
	}
	cfg, err := statsConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	m := statsui.NewModel(st, cfg)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func statsConfig() (model.StatsConfig, error) {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return model.StatsConfig{}, fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsLast < 0 {
		return model.StatsConfig{}, fmt.Errorf("--last must be >= 0")
	}
	if statsCurveWindow < 1 {
		return model.StatsConfig{}, fmt.Errorf("--curve-window must be >= 1")
	}
	return model.StatsConfig{
		SeriesID:    statsSeries,
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}, nil
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
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# swingkiosk configuration
# Uncomment a value to enable it. CLI flags override config values.
# %s, %s and %s override the matching values below.

[session]
# shots = %d                     # Shots per measurement phase
# announce-ms = %d             # Announce delay before collecting
# tick-ms = %d                 # Interval between shots
# finalize-ms = %d             # Analysis delay after the last shot
# target-distance = %.1f         # Target line for dispersion (m)
# directional-multiplier = %.1f   # Weight of the launch angle change

[backend]
# url = "http://localhost:9000"  # Remote backend (default: built-in mock)
# timeout-ms = %d

[server]
# addr = %q
# db-path = %q
`,
		config.EnvBackendURL,
		config.EnvServerAddr,
		config.EnvDBPath,
		session.DefaultShots,
		session.DefaultAnnounceDelay.Milliseconds(),
		session.DefaultTickInterval.Milliseconds(),
		session.DefaultFinalizeDelay.Milliseconds(),
		session.DefaultTargetDistance,
		session.DefaultDirectionalMultiplier,
		defaultBackendTimeoutMs,
		defaultServerAddr,
		config.DefaultDBPath(),
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
