package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harrison/tvscan/internal/config"
	"github.com/harrison/tvscan/internal/display"
	"github.com/harrison/tvscan/internal/fingerprint"
	"github.com/harrison/tvscan/internal/history"
	"github.com/harrison/tvscan/internal/logger"
	"github.com/harrison/tvscan/internal/models"
	"github.com/harrison/tvscan/internal/scanner"
)

// NewScanCommand creates the scan command
func NewScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Record new test vectors and audit known ones",
		Long: `Scan a directory tree for test vector files and update the manifest.

Files already in the manifest are audited: a size change is reported as
drift and the manifest line is left untouched. Files not yet in the
manifest are hashed and appended. Files whose names do not follow
Type_Batch_Period_DM_Z_SNR_Pulsar_Freq[_Index].<ext> are skipped.

Configuration is loaded from <dir>/.tvscan/config.yaml if present.
CLI flags override configuration file settings.

Examples:
  tvscan scan --dir /data/vectors --out /data/manifest.csv
  tvscan scan --dir . --out manifest.csv --ext .fil --ext .h5
  tvscan scan --dir . --out manifest.csv --workers 8 --hash sha256
  tvscan scan --dir . --out manifest.csv --dry-run   # Report only`,
		Args: cobra.NoArgs,
		RunE: runScan,
	}

	cmd.Flags().String("dir", "", "Directory to scan (required)")
	cmd.Flags().String("out", "", "Manifest file (default: manifest from config)")
	cmd.Flags().StringSlice("ext", nil, "Test vector extension, repeatable (default .fil)")
	cmd.Flags().StringSlice("exclude", nil, "Directory name never descended into, repeatable")
	cmd.Flags().Int("max-depth", 0, "Deepest directory level walked below --dir (0 = unlimited)")
	cmd.Flags().Int("workers", 0, "Files hashed concurrently (default from config)")
	cmd.Flags().Int("chunk-size", 0, "Read block size used when hashing")
	cmd.Flags().String("hash", "", "Content hash algorithm: md5 or sha256")
	cmd.Flags().Bool("strict-manifest", false, "Fail on the first malformed manifest line")
	cmd.Flags().Bool("dry-run", false, "Audit and parse without hashing or writing the manifest")
	cmd.Flags().String("config", "", "Path to config file (default: <dir>/.tvscan/config.yaml)")
	cmd.Flags().String("log-dir", "", "Directory for run logs")
	cmd.Flags().Bool("verbose", false, "Log every settled file")
	cmd.Flags().Bool("no-history", false, "Do not record this run in the history database")
	cmd.MarkFlagRequired("dir")

	return cmd
}

// loadConfig reads --config, or <dir>/.tvscan/config.yaml when it is unset.
func loadConfig(cmd *cobra.Command, dir string) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath != "" {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
		return cfg, nil
	}

	cfg, err := config.LoadConfigFromDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// scanFlags collects the flags the user actually set.
func scanFlags(cmd *cobra.Command) config.Flags {
	var f config.Flags
	flags := cmd.Flags()

	f.Extensions, _ = flags.GetStringSlice("ext")
	f.ExcludeDirs, _ = flags.GetStringSlice("exclude")

	if flags.Changed("out") {
		v, _ := flags.GetString("out")
		f.Manifest = &v
	}
	if flags.Changed("max-depth") {
		v, _ := flags.GetInt("max-depth")
		f.MaxDepth = &v
	}
	if flags.Changed("workers") {
		v, _ := flags.GetInt("workers")
		f.Workers = &v
	}
	if flags.Changed("chunk-size") {
		v, _ := flags.GetInt("chunk-size")
		f.ChunkSize = &v
	}
	if flags.Changed("hash") {
		v, _ := flags.GetString("hash")
		f.HashAlgorithm = &v
	}
	if flags.Changed("strict-manifest") {
		v, _ := flags.GetBool("strict-manifest")
		f.StrictManifest = &v
	}
	if flags.Changed("log-dir") {
		v, _ := flags.GetString("log-dir")
		f.LogDir = &v
	}
	if flags.Changed("no-history") {
		v, _ := flags.GetBool("no-history")
		enabled := !v
		f.HistoryEnabled = &enabled
	}
	if verbose, _ := flags.GetBool("verbose"); verbose {
		level := "debug"
		f.LogLevel = &level
	}

	return f
}

// runScan implements the scan command logic
func runScan(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg, err := loadConfig(cmd, dir)
	if err != nil {
		return err
	}

	// State paths from the config file live in the tvscan home; paths given
	// as flags stay relative to the working directory.
	home, err := config.HomeDir(".")
	if err != nil {
		return err
	}
	cfg.ResolveState(home)

	cfg.MergeWithFlags(scanFlags(cmd))
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// A manifest named in the config file is relative to the scanned directory.
	manifestPath := cfg.Manifest
	if !cmd.Flags().Changed("out") {
		manifestPath = config.ResolvePath(dir, cfg.Manifest)
	}

	algo, err := fingerprint.ParseAlgorithm(cfg.HashAlgorithm)
	if err != nil {
		return err
	}
	engine := fingerprint.New(fingerprint.WithAlgorithm(algo), fingerprint.WithChunkSize(cfg.ChunkSize))

	out := cmd.OutOrStdout()
	tty := isTerminal(out)
	useColor := tty && display.ShouldColor(out.(*os.File))

	consoleLog := logger.NewConsoleLogger(out, cfg.LogLevel)
	fileLog, err := logger.NewFileLoggerWithDirAndLevel(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer fileLog.Close()

	multiLog := &multiLogger{loggers: []scanner.Logger{consoleLog, fileLog}}

	var progress *display.ProgressIndicator
	if tty {
		progress = display.NewProgressIndicator(out, 0, useColor)
		progress.Start(dir)
	}

	s := scanner.New(scanner.Options{
		Directory:    dir,
		ManifestPath: manifestPath,
		Extensions:   cfg.Extensions,
		ExcludeDirs:  cfg.ExcludeDirs,
		MaxDepth:     cfg.MaxDepth,
		Workers:      cfg.Workers,
		DryRun:       dryRun,
		Strict:       cfg.StrictManifest,
		Engine:       engine,
		Logger:       multiLog,
		Progress: func(done, total int) {
			if progress != nil {
				progress.Step(done, total)
				return
			}
			// Redirected output gets a bar roughly every tenth of the run.
			if step := max(1, total/10); done == total || done%step == 0 {
				consoleLog.LogProgress(done, total)
			}
		},
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := s.Scan(ctx)
	if progress != nil {
		progress.Complete()
	}
	if err != nil {
		multiLog.LogError(fmt.Sprintf("Scan failed: %v", err))
		return fmt.Errorf("scan failed: %w", err)
	}

	fileLog.LogSummary(*rep)
	if tty {
		display.RenderSummary(out, *rep, useColor)
		showWarnings(out, *rep, useColor)
	} else {
		consoleLog.LogSummary(*rep)
		showWarnings(out, *rep, false)
	}

	if !dryRun && cfg.History.Enabled {
		if err := recordHistory(cmd, cfg.History.DBPath, *rep); err != nil {
			multiLog.LogWarn(fmt.Sprintf("Failed to record run history: %v", err))
		}
	}

	fmt.Fprintf(out, "Run log: %s\n", fileLog.RunFile())
	return nil
}

func showWarnings(w io.Writer, rep models.ScanReport, useColor bool) {
	if rep.HasDrift() {
		display.DriftWarning(rep).Display(w, useColor)
	}
	if rep.Skipped > 0 {
		display.SkipWarning(rep).Display(w, useColor)
	}
}

func recordHistory(cmd *cobra.Command, dbPath string, rep models.ScanReport) error {
	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.RecordRun(cmd.Context(), rep)
}

// isTerminal reports whether w is a terminal file.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && display.IsTerminal(f)
}

// multiLogger implements scanner.Logger by delegating to multiple loggers
type multiLogger struct {
	loggers []scanner.Logger
}

func (ml *multiLogger) LogDebug(message string) {
	for _, l := range ml.loggers {
		l.LogDebug(message)
	}
}

func (ml *multiLogger) LogInfo(message string) {
	for _, l := range ml.loggers {
		l.LogInfo(message)
	}
}

func (ml *multiLogger) LogWarn(message string) {
	for _, l := range ml.loggers {
		l.LogWarn(message)
	}
}

func (ml *multiLogger) LogError(message string) {
	for _, l := range ml.loggers {
		l.LogError(message)
	}
}
