package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snutij/esport-ics/internal/config"
	"github.com/snutij/esport-ics/internal/logger"
	"github.com/snutij/esport-ics/internal/metrics"
	"github.com/snutij/esport-ics/internal/pandascore"
	"github.com/snutij/esport-ics/internal/pipeline"
	"github.com/snutij/esport-ics/internal/server"
	"github.com/snutij/esport-ics/internal/site"
	"github.com/snutij/esport-ics/internal/storage"
)

var (
	flagVerify      bool
	flagVerifyURL   string
	flagGamesSort   string
	flagLeaguesSort string

	flagListen       string
	flagSchedule     string
	flagNoInitialRun bool
)

func newSiteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "site",
		Short: "Build the index page from the calendar tree",
		RunE:  runSite,
	}

	cmd.Flags().StringVar(&flagIndex, "index", config.DefaultIndexPath, "Index page path")
	cmd.Flags().StringVar(&flagBaseURL, "base-url", "", "Public calendar base URL (default $"+config.EnvPublicURL+")")
	cmd.Flags().BoolVar(&flagVerify, "verify", false, "Check that every link on the written page resolves to a calendar file")
	cmd.Flags().StringVar(&flagVerifyURL, "verify-url", "", "Also check the links of the page published at this URL")
	return cmd
}

func runSite(cmd *cobra.Command, args []string) error {
	reg, err := config.LoadRegistry(flagGamesFile)
	if err != nil {
		return err
	}
	store, err := storage.New(settings.OutputDir, storage.WithLogger(logger.Default()))
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	base := publicURL()
	page, err := writeIndex(store, reg, flagIndex, base)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %s: %d games, %d calendars\n", flagIndex, len(page.Games), page.Count())

	var problems []site.Problem
	if flagVerify {
		links, err := site.LinksFromFile(flagIndex)
		if err != nil {
			return err
		}
		problems = append(problems, site.Verify(links, store, base)...)
		fmt.Fprintf(out, "Checked %d links in %s\n", len(links), flagIndex)
	}
	if flagVerifyURL != "" {
		links, err := site.FetchLinks(cmd.Context(), nil, flagVerifyURL)
		if err != nil {
			return err
		}
		problems = append(problems, site.Verify(links, store, base)...)
		fmt.Fprintf(out, "Checked %d links at %s\n", len(links), flagVerifyURL)
	}

	for _, p := range problems {
		fmt.Fprintf(out, "  BROKEN: %s\n", p)
	}
	if len(problems) > 0 {
		return fmt.Errorf("%d broken links", len(problems))
	}
	return nil
}

func newGamesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "games",
		Short: "List configured games",
		Args:  cobra.NoArgs,
		RunE:  runGames,
	}

	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text, json or yaml")
	cmd.Flags().StringVar(&flagGamesSort, "sort", string(SortByPosition), "Sort by: position, name or folder")
	return cmd
}

func runGames(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(flagFormat, FormatText, FormatJSON, FormatYAML)
	if err != nil {
		return err
	}
	reg, err := config.LoadRegistry(flagGamesFile)
	if err != nil {
		return err
	}

	games := append([]config.Game(nil), reg.Games...)
	if err := sortGames(games, SortOrder(flagGamesSort)); err != nil {
		return err
	}
	return WriteGames(cmd.OutOrStdout(), games, format)
}

func newLeaguesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leagues <game>",
		Short: "List the upstream leagues of a game",
		Long: `List the leagues PandaScore knows for a game (folder or API code).
The ids can be copied into the leagues list of a league-grouped game.`,
		Args: cobra.ExactArgs(1),
		RunE: runLeagues,
	}

	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&flagLeaguesSort, "sort", string(SortByName), "Sort by: name or id")
	return cmd
}

func runLeagues(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(flagFormat, FormatText, FormatJSON)
	if err != nil {
		return err
	}
	reg, err := config.LoadRegistry(flagGamesFile)
	if err != nil {
		return err
	}
	game, ok := reg.Lookup(args[0])
	if !ok {
		return fmt.Errorf("unknown game: %s", args[0])
	}

	client, err := pandascore.NewClient(pandascore.Config{
		Token:   settings.Token,
		BaseURL: settings.BaseURL,
		Logger:  logger.Default(),
	})
	if err != nil {
		return err
	}

	leagues, err := client.FetchLeagues(cmd.Context(), game.Code)
	if err != nil {
		return fmt.Errorf("fetching leagues: %w", err)
	}
	if err := sortLeagues(leagues, SortOrder(flagLeaguesSort)); err != nil {
		return err
	}
	return WriteLeagues(cmd.OutOrStdout(), game, leagues, format)
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve calendars over HTTP and regenerate them on a schedule",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	cmd.Flags().StringVar(&flagListen, "listen", server.DefaultListen, "HTTP listen address")
	cmd.Flags().StringVar(&flagSchedule, "schedule", server.DefaultSchedule, "Cron schedule for regeneration (UTC)")
	cmd.Flags().BoolVar(&flagNoInitialRun, "no-initial-run", false, "Wait for the first scheduled run instead of generating at startup")
	cmd.Flags().StringVar(&flagIndex, "index", config.DefaultIndexPath, "Index page path")
	cmd.Flags().StringVar(&flagBaseURL, "base-url", "", "Public calendar base URL (default $"+config.EnvPublicURL+")")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	reg, err := config.LoadRegistry(flagGamesFile)
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

	srv := server.New(server.Config{
		Runner: &pipeline.Runner{
			Client:  client,
			Store:   store,
			Metrics: m,
			Logger:  log,
		},
		Store:      store,
		Registry:   reg,
		Metrics:    m,
		Logger:     log,
		IndexPath:  flagIndex,
		PublicURL:  publicURL(),
		Listen:     flagListen,
		Schedule:   flagSchedule,
		InitialRun: !flagNoInitialRun,
	})
	return srv.ListenAndServe(cmd.Context())
}
