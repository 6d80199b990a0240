package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/snutij/esport-ics/internal/calendar"
	"github.com/snutij/esport-ics/internal/event"
	"github.com/snutij/esport-ics/internal/match"
	"github.com/snutij/esport-ics/internal/pandascore"
)

func main() {
	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)

	// Map a sample upstream record the way a real run does
	m, err := match.Map(pandascore.RawMatch{
		ID:            "1",
		Name:          "G2 Esports vs Fnatic",
		ScheduledAt:   start.Format(time.RFC3339),
		NumberOfGames: 3,
		Opponents: []pandascore.RawOpponent{
			{Type: "Team", Opponent: &pandascore.RawTeam{ID: "1", Name: "G2 Esports"}},
			{Type: "Team", Opponent: &pandascore.RawTeam{ID: "2", Name: "Fnatic"}},
		},
		League: &pandascore.RawLeague{ID: "4197", Name: "LEC"},
		Serie:  &pandascore.RawSerie{FullName: "Summer 2024"},
		StreamsList: []pandascore.RawStream{
			{Main: true, Official: true, RawURL: "https://www.twitch.tv/lec"},
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error mapping sample match: %v\n", err)
		os.Exit(1)
	}

	g := calendar.NewGroup("sample", "Sample Team", "Upcoming matches for a sample team")
	g.Add(event.FromMatch(m))

	var buf bytes.Buffer
	if err := calendar.Encode(&buf, g); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding calendar: %v\n", err)
		os.Exit(1)
	}

	filename := "sample-esport-ics.ics"
	if err := os.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated calendar file: %s\n\n", filename)
	fmt.Println("Test it by:")
	fmt.Println("1. Open the .ics file with your calendar app (double-click)")
	fmt.Println("2. Or subscribe to it from Google Calendar, Apple Calendar, or Outlook")
	fmt.Println("\nFile contents preview:")
	fmt.Println("---")
	fmt.Println(buf.String())
}
