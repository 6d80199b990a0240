package match

import (
	"errors"
	"testing"
	"time"

	"github.com/snutij/esport-ics/internal/pandascore"
)

func team(id pandascore.ID, name string) pandascore.RawOpponent {
	return pandascore.RawOpponent{
		Type:     "Team",
		Opponent: &pandascore.RawTeam{ID: id, Name: name},
	}
}

func validRaw() pandascore.RawMatch {
	return pandascore.RawMatch{
		ID:            "12345",
		Name:          "Grand Final",
		ScheduledAt:   "2024-06-15T18:00:00Z",
		NumberOfGames: 3,
		Opponents:     []pandascore.RawOpponent{team("1", "Team A"), team("2", "Team B")},
	}
}

// TestMap_Scenario tests the reference best-of-three match
func TestMap_Scenario(t *testing.T) {
	m, err := Map(validRaw())
	if err != nil {
		t.Fatalf("Map() error = %v", err)
	}

	wantStart := time.Date(2024, 6, 15, 18, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 6, 15, 20, 15, 0, 0, time.UTC)

	if m.ID != "12345" {
		t.Errorf("ID = %q, want 12345", m.ID)
	}
	if !m.Start.Equal(wantStart) {
		t.Errorf("Start = %v, want %v", m.Start, wantStart)
	}
	if !m.End.Equal(wantEnd) {
		t.Errorf("End = %v, want %v", m.End, wantEnd)
	}
	if m.Duration() != 135*time.Minute {
		t.Errorf("Duration() = %v, want 135m", m.Duration())
	}
	if len(m.Teams) != 2 || m.Teams[0].Slug != "team-a" || m.Teams[1].Slug != "team-b" {
		t.Errorf("Teams = %+v, want team-a and team-b", m.Teams)
	}
}

// TestMap_Duration tests that the end time is derived from the game count
func TestMap_Duration(t *testing.T) {
	tests := []struct {
		name  string
		games pandascore.Count
		want  time.Duration
	}{
		{"absent or null", 0, 2700 * time.Second},
		{"negative", -1, 2700 * time.Second},
		{"single game", 1, 2700 * time.Second},
		{"best of three", 3, 3 * 2700 * time.Second},
		{"best of five", 5, 5 * 2700 * time.Second},
		{"best of seven", 7, 7 * 2700 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			raw.NumberOfGames = tt.games

			m, err := Map(raw)
			if err != nil {
				t.Fatalf("Map() error = %v", err)
			}
			if got := m.End.Sub(m.Start); got != tt.want {
				t.Errorf("duration = %v, want %v", got, tt.want)
			}
			if m.End.Before(m.Start) {
				t.Error("end before start")
			}
		})
	}
}

// TestMap_RequiredFields tests that missing required fields are fatal
func TestMap_RequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*pandascore.RawMatch)
		wantErr error
	}{
		{
			name:    "missing id",
			mutate:  func(r *pandascore.RawMatch) { r.ID = "" },
			wantErr: ErrMissingID,
		},
		{
			name:    "missing name",
			mutate:  func(r *pandascore.RawMatch) { r.Name = "  " },
			wantErr: ErrMissingTitle,
		},
		{
			name:    "missing scheduled_at",
			mutate:  func(r *pandascore.RawMatch) { r.ScheduledAt = "" },
			wantErr: ErrInvalidStart,
		},
		{
			name:    "unparsable scheduled_at",
			mutate:  func(r *pandascore.RawMatch) { r.ScheduledAt = "next tuesday" },
			wantErr: ErrInvalidStart,
		},
		{
			name: "opponent without name",
			mutate: func(r *pandascore.RawMatch) {
				r.Opponents = append(r.Opponents, team("3", ""))
			},
			wantErr: ErrMissingTeamName,
		},
		{
			name: "null opponent",
			mutate: func(r *pandascore.RawMatch) {
				r.Opponents = []pandascore.RawOpponent{{Type: "Team"}}
			},
			wantErr: ErrMissingTeamName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			tt.mutate(&raw)

			_, err := Map(raw)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Map() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestMap_Context tests composition of league, serie and tournament names
func TestMap_Context(t *testing.T) {
	tests := []struct {
		name       string
		league     *pandascore.RawLeague
		serie      *pandascore.RawSerie
		tournament *pandascore.RawTournament
		want       string
	}{
		{
			name:       "empty middle part dropped",
			league:     &pandascore.RawLeague{Name: "LEC"},
			serie:      &pandascore.RawSerie{FullName: ""},
			tournament: &pandascore.RawTournament{Name: "Playoffs"},
			want:       "LEC - Playoffs",
		},
		{
			name:       "all parts",
			league:     &pandascore.RawLeague{Name: "LEC"},
			serie:      &pandascore.RawSerie{FullName: "Summer 2024"},
			tournament: &pandascore.RawTournament{Name: "Playoffs"},
			want:       "LEC - Summer 2024 - Playoffs",
		},
		{
			name:       "null league",
			serie:      &pandascore.RawSerie{FullName: "Summer 2024"},
			tournament: &pandascore.RawTournament{Name: "Playoffs"},
			want:       "Summer 2024 - Playoffs",
		},
		{
			name:   "only league",
			league: &pandascore.RawLeague{Name: "LCK"},
			want:   "LCK",
		},
		{
			name: "nothing",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			raw.League = tt.league
			raw.Serie = tt.serie
			raw.Tournament = tt.tournament

			m, err := Map(raw)
			if err != nil {
				t.Fatalf("Map() error = %v", err)
			}
			if m.Context != tt.want {
				t.Errorf("Context = %q, want %q", m.Context, tt.want)
			}
		})
	}
}

// TestMap_Stream tests selection of the main official stream
func TestMap_Stream(t *testing.T) {
	tests := []struct {
		name    string
		streams []pandascore.RawStream
		want    string
	}{
		{"no list", nil, ""},
		{"empty list", []pandascore.RawStream{}, ""},
		{
			name: "main but unofficial",
			streams: []pandascore.RawStream{
				{Main: true, Official: false, RawURL: "https://twitch.tv/fan"},
			},
			want: "",
		},
		{
			name: "first main and official wins",
			streams: []pandascore.RawStream{
				{Main: false, Official: true, RawURL: "https://youtube.com/lec"},
				{Main: true, Official: true, RawURL: "https://twitch.tv/lec"},
				{Main: true, Official: true, RawURL: "https://twitch.tv/lec_fr"},
			},
			want: "https://twitch.tv/lec",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			raw.StreamsList = tt.streams

			m, err := Map(raw)
			if err != nil {
				t.Fatalf("Map() error = %v", err)
			}
			if m.Stream != tt.want {
				t.Errorf("Stream = %q, want %q", m.Stream, tt.want)
			}
		})
	}
}

// TestMap_TeamsAndLeague tests optional team and league fields
func TestMap_TeamsAndLeague(t *testing.T) {
	raw := validRaw()
	raw.Opponents[0].Opponent.Acronym = "TA"
	raw.League = &pandascore.RawLeague{ID: "4197", Name: "LEC", Slug: "league-of-legends-lec"}

	m, err := Map(raw)
	if err != nil {
		t.Fatalf("Map() error = %v", err)
	}

	if m.Teams[0].ID != "1" || m.Teams[0].Acronym != "TA" {
		t.Errorf("Teams[0] = %+v", m.Teams[0])
	}
	if m.Teams[1].Acronym != "" {
		t.Errorf("Teams[1].Acronym = %q, want empty", m.Teams[1].Acronym)
	}
	if m.League == nil || m.League.Slug != "league-of-legends-lec" || m.League.ID != "4197" {
		t.Errorf("League = %+v", m.League)
	}

	raw.League = &pandascore.RawLeague{ID: "1", Name: "LoL Masters Series"}
	m, err = Map(raw)
	if err != nil {
		t.Fatal(err)
	}
	if m.League.Slug != "lol-masters-series" {
		t.Errorf("League slug = %q, want derived from name", m.League.Slug)
	}

	raw.League = &pandascore.RawLeague{ID: "1"}
	m, err = Map(raw)
	if err != nil {
		t.Fatal(err)
	}
	if m.League != nil {
		t.Errorf("League = %+v, want nil for nameless league", m.League)
	}
}

func TestParseTime(t *testing.T) {
	want := time.Date(2024, 6, 15, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		in      string
		wantErr bool
	}{
		{"2024-06-15T18:00:00Z", false},
		{"2024-06-15T18:00:00.000Z", false},
		{"2024-06-15T20:00:00+02:00", false},
		{"2024-06-15T18:00:00", false},
		{"2024-06-15 18:00:00", false},
		{" 2024-06-15T18:00:00Z ", false},
		{"", true},
		{"15/06/2024", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTime(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTime(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !got.Equal(want) || got.Location() != time.UTC {
				t.Errorf("ParseTime(%q) = %v, want %v UTC", tt.in, got, want)
			}
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Team A", "team-a"},
		{"G2 Esports", "g2-esports"},
		{"Ninjas in Pyjamas", "ninjas-in-pyjamas"},
		{"  Team   Liquid  ", "team-liquid"},
		{"100 Thieves", "100-thieves"},
		{"Team.Heretics", "team-heretics"},
		{"paiN Gaming", "pain-gaming"},
		{"Karmine Corp - Blue", "karmine-corp-blue"},
		{"Team_Secret", "team_secret"},
		{"Movistar KOI!", "movistar-koi"},
		{"Écrevisse Élite", "ecrevisse-elite"},
		{"Los Grandes Müller", "los-grandes-muller"},
		{"战队", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTeamSlug_Fallback(t *testing.T) {
	if got := TeamSlug("战队", "3321"); got != "team-3321" {
		t.Errorf("TeamSlug() = %q, want team-3321", got)
	}

	a := TeamSlug("战队", "")
	b := TeamSlug("战队", "")
	if a != b || len(a) != len("team-")+8 {
		t.Errorf("TeamSlug() without id = %q / %q, want stable 8-hex suffix", a, b)
	}
	if a == TeamSlug("别的战队", "") {
		t.Error("different names should not share a hashed slug")
	}
}
