package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/snutij/esport-ics/internal/config"
	"github.com/snutij/esport-ics/internal/pandascore"
	"github.com/snutij/esport-ics/internal/pipeline"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatYAML OutputFormat = "yaml"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// WriteSummary writes a run summary in the specified format
func WriteSummary(w io.Writer, summary *pipeline.Summary, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, summary)
	case FormatText:
		return writeSummaryText(w, summary, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs v as indented JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeSummaryText outputs the summary as human-readable text
func writeSummaryText(w io.Writer, summary *pipeline.Summary, verbose bool) error {
	elapsed := summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond)
	fmt.Fprintf(w, "Run %s (%s, %s)\n", summary.RunID, summary.StartedAt.Format(time.RFC3339), elapsed)

	if len(summary.Games) == 0 {
		fmt.Fprintln(w, "No games selected.")
		return nil
	}

	for _, res := range summary.Games {
		name := res.Name
		if name == "" {
			name = res.Folder
		}
		fmt.Fprintf(w, "\n%s (%s): %d matches, %d calendars, %d events\n",
			name, res.Game, res.Fetched, res.Calendars, res.Events)
		if res.Stale > 0 {
			fmt.Fprintf(w, "  STALE: %d unreadable calendars replaced\n", res.Stale)
		}
		if !res.OK() {
			fmt.Fprintf(w, "  ERROR: %s\n", res.Error)
		}
		if verbose {
			for _, wr := range res.Writes {
				fmt.Fprintf(w, "     %s/%s.ics: kept %d, replaced %d, added %d, total %d\n",
					res.Folder, wr.Slug, wr.Kept, wr.Replaced, wr.Added, wr.Total)
			}
		}
	}

	failed := summary.Failed()
	fmt.Fprintf(w, "\nTotal: %d games, %d ok, %d failed\n", len(summary.Games), len(summary.Games)-failed, failed)
	return nil
}

// WriteGames lists the games table
func WriteGames(w io.Writer, games []config.Game, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, games)
	case FormatYAML:
		reg := &config.Registry{Games: games}
		return reg.Encode(w)
	case FormatText:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "FOLDER\tCODE\tNAME\tGROUPING\tACCENT")
		for _, g := range games {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", g.Folder, g.Code, g.Name, g.Grouping, g.Accent)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteLeagues lists the upstream leagues of a game
func WriteLeagues(w io.Writer, game config.Game, leagues []pandascore.RawLeague, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, leagues)
	case FormatText:
		if len(leagues) == 0 {
			fmt.Fprintf(w, "No leagues found for %s.\n", game.Name)
			return nil
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSLUG\tNAME")
		for _, l := range leagues {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", l.ID, l.Slug, l.Name)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(w, "\nTotal: %d leagues for %s\n", len(leagues), game.Name)
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
