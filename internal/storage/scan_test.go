package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/snutij/esport-ics/internal/logger"
)

func TestScan(t *testing.T) {
	s, err := New(t.TempDir(),
		WithLogger(logger.New(logger.LevelDebug, io.Discard)),
		WithClock(func() time.Time { return kickoff.Add(90 * time.Minute) }),
	)
	if err != nil {
		t.Fatal(err)
	}

	liquid := group("team-liquid", ev("1", 1, "A"), ev("2", 2, "B"))
	liquid.Name = "Team Liquid"
	if _, err := s.WriteCalendar("valorant", liquid); err != nil {
		t.Fatal(err)
	}
	g2 := group("g2-esports", ev("3", 1, "C"))
	g2.Name = "G2 Esports"
	if _, err := s.WriteCalendar("league_of_legends", g2); err != nil {
		t.Fatal(err)
	}

	root := s.Root()
	mustWrite := func(path, content string) {
		t.Helper()
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	// Noise the scanner must ignore or tolerate.
	mustWrite(filepath.Join(root, "README.md"), "not a game")
	mustWrite(filepath.Join(root, "valorant", "notes.txt"), "ignored")
	mustWrite(filepath.Join(root, "valorant", "karmine-corp.ics"), "broken")
	mustWrite(filepath.Join(root, "empty_game", "notes.txt"), "ignored")
	if err := os.MkdirAll(filepath.Join(root, "valorant", "nested.ics"), 0755); err != nil {
		t.Fatal(err)
	}

	games, err := s.Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(games) != 2 {
		t.Fatalf("expected 2 game folders, got %d: %+v", len(games), games)
	}
	if games[0].Folder != "league_of_legends" || games[1].Folder != "valorant" {
		t.Errorf("folders = %q, %q", games[0].Folder, games[1].Folder)
	}

	lol := games[0].Calendars
	if len(lol) != 1 || lol[0] != (CalendarInfo{Slug: "g2-esports", Name: "G2 Esports", Events: 1, Upcoming: 0}) {
		t.Errorf("league_of_legends calendars = %+v", lol)
	}

	val := games[1].Calendars
	want := []CalendarInfo{
		{Slug: "karmine-corp", Name: "Karmine Corp", Events: 0},
		{Slug: "team-liquid", Name: "Team Liquid", Events: 2, Upcoming: 1},
	}
	if len(val) != len(want) {
		t.Fatalf("valorant calendars = %+v, want %+v", val, want)
	}
	for i := range want {
		if val[i] != want[i] {
			t.Errorf("calendar %d = %+v, want %+v", i, val[i], want[i])
		}
	}
}

func TestScan_MissingRoot(t *testing.T) {
	s, _ := newTestStorage(t)
	if err := os.RemoveAll(s.Root()); err != nil {
		t.Fatal(err)
	}

	games, err := s.Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(games) != 0 {
		t.Errorf("expected no games, got %+v", games)
	}
}

func TestTitleizeSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"team-liquid", "Team Liquid"},
		{"g2-esports", "G2 Esports"},
		{"all", "All"},
		{"team_secret", "Team_secret"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := TitleizeSlug(tt.in); got != tt.want {
				t.Errorf("TitleizeSlug(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
