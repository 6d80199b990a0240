package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestDefaultRegistry tests the built-in games table
func TestDefaultRegistry(t *testing.T) {
	reg, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry() error = %v", err)
	}

	wantOrder := []string{
		"league_of_legends",
		"counter_strike",
		"valorant",
		"dota_2",
		"call_of_duty_mw",
		"overwatch_2",
		"rocket_league",
		"rainbow_six_siege",
		"league_of_legends_wildrift",
	}
	if len(reg.Games) != len(wantOrder) {
		t.Fatalf("got %d games, want %d", len(reg.Games), len(wantOrder))
	}
	for i, folder := range wantOrder {
		if reg.Games[i].Folder != folder {
			t.Errorf("Games[%d].Folder = %q, want %q", i, reg.Games[i].Folder, folder)
		}
		if reg.Games[i].Grouping != GroupByTeam {
			t.Errorf("%s grouping = %q, want team", folder, reg.Games[i].Grouping)
		}
	}
}

func TestRegistry_Lookup(t *testing.T) {
	reg, err := DefaultRegistry()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		key        string
		wantFolder string
		wantOK     bool
	}{
		{"codmw", "call_of_duty_mw", true},
		{"csgo", "counter_strike", true},
		{"dota2", "dota_2", true},
		{"lol", "league_of_legends", true},
		{"lol-wild-rift", "league_of_legends_wildrift", true},
		{"ow", "overwatch_2", true},
		{"r6siege", "rainbow_six_siege", true},
		{"rl", "rocket_league", true},
		{"valorant", "valorant", true},
		{"counter_strike", "counter_strike", true},
		{"starcraft", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			g, ok := reg.Lookup(tt.key)
			if ok != tt.wantOK {
				t.Fatalf("Lookup(%q) ok = %v, want %v", tt.key, ok, tt.wantOK)
			}
			if g.Folder != tt.wantFolder {
				t.Errorf("Lookup(%q).Folder = %q, want %q", tt.key, g.Folder, tt.wantFolder)
			}
		})
	}
}

func TestRegistry_Order(t *testing.T) {
	reg, err := DefaultRegistry()
	if err != nil {
		t.Fatal(err)
	}

	order := reg.Order()
	want := []string{"league_of_legends", "counter_strike", "valorant", "dota_2"}
	for i, folder := range want {
		if order[i] != folder {
			t.Errorf("Order()[%d] = %q, want %q", i, order[i], folder)
		}
	}
	if got := reg.Position(order[len(order)-1]); got != len(order)-1 {
		t.Errorf("Position(last) = %d", got)
	}
	if got := reg.Position("unknown"); got != len(order) {
		t.Errorf("Position(unknown) = %d, want %d", got, len(order))
	}
}

func TestRegistry_Display(t *testing.T) {
	reg, err := DefaultRegistry()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		folder     string
		wantName   string
		wantAccent string
	}{
		{"call_of_duty_mw", "Call of Duty", "#f6a800"},
		{"counter_strike", "Counter-Strike 2", "#de9b35"},
		{"dota_2", "Dota 2", "#e8503b"},
		{"league_of_legends", "League of Legends", "#c9aa71"},
		{"league_of_legends_wildrift", "LoL Wild Rift", "#1ca5b8"},
		{"overwatch_2", "Overwatch 2", "#fa9c1e"},
		{"rainbow_six_siege", "Rainbow Six Siege", "#8a8a8a"},
		{"rocket_league", "Rocket League", "#0088e0"},
		{"valorant", "Valorant", "#ff4655"},
		{"king_of_glory", "king_of_glory", DefaultAccent},
	}

	for _, tt := range tests {
		t.Run(tt.folder, func(t *testing.T) {
			name, accent := reg.Display(tt.folder)
			if name != tt.wantName || accent != tt.wantAccent {
				t.Errorf("Display(%q) = (%q, %q), want (%q, %q)", tt.folder, name, accent, tt.wantName, tt.wantAccent)
			}
		})
	}

	if got := reg.Position("king_of_glory"); got != len(reg.Games) {
		t.Errorf("Position(unknown) = %d, want %d", got, len(reg.Games))
	}
	if got := reg.Position("valorant"); got != 2 {
		t.Errorf("Position(valorant) = %d, want 2", got)
	}
}

func TestRegistry_Select(t *testing.T) {
	reg, err := DefaultRegistry()
	if err != nil {
		t.Fatal(err)
	}

	all, err := reg.Select(nil)
	if err != nil {
		t.Fatalf("Select(nil) error = %v", err)
	}
	if len(all) != len(reg.Games) {
		t.Errorf("Select(nil) = %d games, want %d", len(all), len(reg.Games))
	}

	some, err := reg.Select([]string{"valorant", "lol"})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if len(some) != 2 || some[0].Code != "valorant" || some[1].Code != "lol" {
		t.Errorf("Select() = %+v, want valorant then lol", some)
	}

	if _, err := reg.Select([]string{"chess"}); err == nil {
		t.Error("Select(unknown) should fail")
	}
}

func TestParseRegistry_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "empty",
			yaml:    "games: []",
			wantErr: "no games configured",
		},
		{
			name:    "missing code",
			yaml:    "games:\n  - folder: x\n",
			wantErr: "code is required",
		},
		{
			name:    "missing folder",
			yaml:    "games:\n  - code: x\n",
			wantErr: "folder is required",
		},
		{
			name:    "path in folder",
			yaml:    "games:\n  - code: x\n    folder: ../x\n",
			wantErr: "invalid folder",
		},
		{
			name:    "bad grouping",
			yaml:    "games:\n  - code: x\n    folder: x\n    grouping: region\n",
			wantErr: "invalid grouping",
		},
		{
			name:    "bad accent",
			yaml:    "games:\n  - code: x\n    folder: x\n    accent: red\n",
			wantErr: "invalid accent",
		},
		{
			name:    "leagues with team grouping",
			yaml:    "games:\n  - code: x\n    folder: x\n    leagues: ['1']\n",
			wantErr: "require grouping 'league'",
		},
		{
			name:    "duplicate folder",
			yaml:    "games:\n  - code: x\n    folder: x\n  - code: y\n    folder: x\n",
			wantErr: "duplicate folder",
		},
		{
			name:    "duplicate code",
			yaml:    "games:\n  - code: x\n    folder: x\n  - code: x\n    folder: y\n",
			wantErr: "duplicate code",
		},
		{
			name:    "malformed yaml",
			yaml:    "games: [",
			wantErr: "parsing games",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRegistry([]byte(tt.yaml))
			if err == nil {
				t.Fatalf("ParseRegistry() error = nil, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ParseRegistry() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseRegistry_Defaults(t *testing.T) {
	reg, err := ParseRegistry([]byte(`
games:
  - code: lol
    folder: lol_leagues
    grouping: league
    leagues: ["4197", "4198"]
    include_all: true
`))
	if err != nil {
		t.Fatalf("ParseRegistry() error = %v", err)
	}

	g := reg.Games[0]
	if g.Name != "lol_leagues" {
		t.Errorf("Name = %q, want folder fallback", g.Name)
	}
	if g.Accent != DefaultAccent {
		t.Errorf("Accent = %q, want %q", g.Accent, DefaultAccent)
	}
	if g.Grouping != GroupByLeague || !g.IncludeAll || len(g.Leagues) != 2 {
		t.Errorf("league settings not decoded: %+v", g)
	}
}

func TestLoadRegistry(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "config-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	def, err := DefaultRegistry()
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := def.Encode(&buf); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	path := filepath.Join(tmpDir, "games.yaml")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry() error = %v", err)
	}
	if len(loaded.Games) != len(def.Games) {
		t.Errorf("loaded %d games, want %d", len(loaded.Games), len(def.Games))
	}

	if _, err := LoadRegistry(filepath.Join(tmpDir, "missing.yaml")); err == nil {
		t.Error("LoadRegistry(missing) should fail")
	}

	fromEmpty, err := LoadRegistry("")
	if err != nil || len(fromEmpty.Games) != len(def.Games) {
		t.Errorf("LoadRegistry(\"\") = %v, %v; want built-in table", fromEmpty, err)
	}
}

func TestLoadSettings(t *testing.T) {
	t.Setenv(EnvToken, "  secret  ")
	t.Setenv(EnvBaseURL, "")
	t.Setenv(EnvOutputDir, "out")
	t.Setenv(EnvPublicURL, "https://cdn.example.com/ics/")

	s := LoadSettings()

	if s.Token != "secret" {
		t.Errorf("Token = %q, want trimmed", s.Token)
	}
	if s.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want default", s.BaseURL)
	}
	if s.OutputDir != "out" {
		t.Errorf("OutputDir = %q, want out", s.OutputDir)
	}
	if s.PublicURL != "https://cdn.example.com/ics" {
		t.Errorf("PublicURL = %q, want trailing slash trimmed", s.PublicURL)
	}
	if s.IndexPath != DefaultIndexPath {
		t.Errorf("IndexPath = %q, want %q", s.IndexPath, DefaultIndexPath)
	}
}
