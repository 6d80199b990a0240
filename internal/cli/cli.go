package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/snutij/esport-ics/internal/config"
	"github.com/snutij/esport-ics/internal/logger"
	"github.com/snutij/esport-ics/internal/metrics"
	"github.com/snutij/esport-ics/internal/pandascore"
	"github.com/snutij/esport-ics/internal/pipeline"
	"github.com/snutij/esport-ics/internal/site"
	"github.com/snutij/esport-ics/internal/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

var (
	flagOutput    string
	flagGamesFile string
	flagVerbose   bool

	flagFormat      string
	flagMetricsFile string
	flagSite        bool
	flagIndex       string
	flagBaseURL     string

	settings config.Settings
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "esport-ics",
		Short: "Generate ICS calendars for esports teams and leagues",
		Long: `A CLI tool that turns upcoming PandaScore matches into subscribable
ICS calendars, one file per team or league, merged with previous runs.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	cmd.PersistentFlags().StringVar(&flagOutput, "output", "", "Calendar output directory (default $"+config.EnvOutputDir+" or \""+config.DefaultOutputDir+"\")")
	cmd.PersistentFlags().StringVar(&flagGamesFile, "games", "", "YAML games table overriding the built-in one")
	cmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")

	cmd.AddCommand(
		newGenerateCmd(),
		newSiteCmd(),
		newGamesCmd(),
		newLeaguesCmd(),
		newServeCmd(),
	)
	return cmd
}

// setup resolves settings and installs the default logger before any
// subcommand runs.
func setup(cmd *cobra.Command, args []string) error {
	settings = config.LoadSettings()
	if flagOutput != "" {
		settings.OutputDir = flagOutput
	}

	level := logger.LevelInfo
	if settings.LogLevel != "" {
		lv, err := logger.ParseLevel(settings.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", config.EnvLogLevel, err)
		}
		level = lv
	}
	if flagVerbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, cmd.ErrOrStderr()))
	return nil
}

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [game...]",
		Short: "Fetch upcoming matches and write calendars",
		Long: `Fetch upcoming matches for the given games (folder or API code) and
merge them into the calendar tree. With no arguments every configured game
is generated. Exits non-zero when any game failed.`,
		RunE: runGenerate,
	}

	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&flagMetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after the run")
	cmd.Flags().BoolVar(&flagSite, "site", false, "Regenerate the index page after the run")
	cmd.Flags().StringVar(&flagIndex, "index", config.DefaultIndexPath, "Index page path (with --site)")
	cmd.Flags().StringVar(&flagBaseURL, "base-url", "", "Public calendar base URL (default $"+config.EnvPublicURL+")")
	return cmd
}

// runGenerate is the main command logic
func runGenerate(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(flagFormat, FormatText, FormatJSON)
	if err != nil {
		return err
	}

	reg, err := config.LoadRegistry(flagGamesFile)
	if err != nil {
		return err
	}
	games, err := reg.Select(args)
	if err != nil {
		return err
	}

	log := logger.Default()
	m := metrics.New()

	client, err := pandascore.NewClient(pandascore.Config{
		Token:   settings.Token,
		BaseURL: settings.BaseURL,
		Logger:  log,
		Metrics: m,
	})
	if err != nil {
		return err
	}

	store, err := storage.New(settings.OutputDir, storage.WithLogger(log))
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	runner := &pipeline.Runner{
		Client:  client,
		Store:   store,
		Metrics: m,
		Logger:  log,
	}
	summary, runErr := runner.RunAll(cmd.Context(), games)

	if flagSite {
		page, err := writeIndex(store, reg, flagIndex, publicURL())
		if err != nil {
			return err
		}
		log.Info("index written", logger.Fields{
			"path":      flagIndex,
			"games":     len(page.Games),
			"calendars": page.Count(),
		})
	}

	if flagMetricsFile != "" {
		if err := m.WriteTextfile(flagMetricsFile); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}

	if err := WriteSummary(cmd.OutOrStdout(), summary, format, flagVerbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if runErr != nil {
		return fmt.Errorf("%d of %d games failed", summary.Failed(), len(summary.Games))
	}
	return nil
}

func writeIndex(store *storage.Storage, reg *config.Registry, path, baseURL string) (*site.Page, error) {
	games, err := store.Scan()
	if err != nil {
		return nil, fmt.Errorf("scanning calendars: %w", err)
	}

	page := site.Build(games, reg, baseURL)
	page.GeneratedAt = time.Now().UTC()
	if err := page.Write(path); err != nil {
		return nil, err
	}
	return page, nil
}

func publicURL() string {
	if flagBaseURL != "" {
		return strings.TrimRight(flagBaseURL, "/")
	}
	return settings.PublicURL
}

func parseFormat(s string, allowed ...OutputFormat) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	names := make([]string, len(allowed))
	for i, f := range allowed {
		if format == f {
			return format, nil
		}
		names[i] = "'" + string(f) + "'"
	}
	return "", fmt.Errorf("invalid format: %s (must be %s)", s, strings.Join(names, " or "))
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
	os.Exit(ExitSuccess)
}
