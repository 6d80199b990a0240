package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed games.yaml
var defaultGames []byte

// Grouping selects how a game's matches are split into calendars.
type Grouping string

const (
	GroupByTeam   Grouping = "team"
	GroupByLeague Grouping = "league"
)

// Site defaults for games missing from the registry.
const (
	DefaultAccent = "#58a6ff"
)

// Game describes one published game.
type Game struct {
	// Code is the upstream video game slug (e.g. "lol").
	Code string `yaml:"code" json:"code"`
	// Folder is the output directory under the calendar root.
	Folder string `yaml:"folder" json:"folder"`
	// Name is the display name used on the site.
	Name string `yaml:"name" json:"name"`
	// Accent is the site colour for this game, as #rrggbb.
	Accent string `yaml:"accent" json:"accent"`

	Grouping   Grouping `yaml:"grouping" json:"grouping"`
	Leagues    []string `yaml:"leagues,omitempty" json:"leagues,omitempty"`
	IncludeAll bool     `yaml:"include_all,omitempty" json:"include_all,omitempty"`
}

// Registry is the ordered table of published games. Order is display order.
type Registry struct {
	Games []Game `yaml:"games" json:"games"`
}

var accentPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ValidAccent reports whether s is a #rrggbb colour.
func ValidAccent(s string) bool {
	return accentPattern.MatchString(s)
}

// DefaultRegistry returns the built-in games table.
func DefaultRegistry() (*Registry, error) {
	return ParseRegistry(defaultGames)
}

// LoadRegistry reads a games table from path. An empty path yields the
// built-in table.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return DefaultRegistry()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading games file: %w", err)
	}

	reg, err := ParseRegistry(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// ParseRegistry decodes, normalizes and validates a YAML games table.
func ParseRegistry(data []byte) (*Registry, error) {
	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parsing games: %w", err)
	}
	reg.Normalize()
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Normalize fills in defaults for partially-specified games.
func (r *Registry) Normalize() {
	for i := range r.Games {
		g := &r.Games[i]
		g.Code = strings.TrimSpace(g.Code)
		g.Folder = strings.TrimSpace(g.Folder)
		if g.Grouping == "" {
			g.Grouping = GroupByTeam
		}
		if g.Name == "" {
			g.Name = g.Folder
		}
		if g.Accent == "" {
			g.Accent = DefaultAccent
		}
	}
}

// Validate reports the first problem found in the table.
func (r *Registry) Validate() error {
	if len(r.Games) == 0 {
		return errors.New("no games configured")
	}

	folders := make(map[string]bool)
	codes := make(map[string]bool)
	for i, g := range r.Games {
		switch {
		case g.Code == "":
			return fmt.Errorf("game %d: code is required", i)
		case g.Folder == "":
			return fmt.Errorf("game %q: folder is required", g.Code)
		case strings.ContainsAny(g.Folder, `/\`) || g.Folder == "." || g.Folder == "..":
			return fmt.Errorf("game %q: invalid folder %q", g.Code, g.Folder)
		case g.Grouping != GroupByTeam && g.Grouping != GroupByLeague:
			return fmt.Errorf("game %q: invalid grouping %q (must be 'team' or 'league')", g.Code, g.Grouping)
		case !accentPattern.MatchString(g.Accent):
			return fmt.Errorf("game %q: invalid accent %q", g.Code, g.Accent)
		case g.Grouping == GroupByTeam && (len(g.Leagues) > 0 || g.IncludeAll):
			return fmt.Errorf("game %q: leagues and include_all require grouping 'league'", g.Code)
		}
		if folders[g.Folder] {
			return fmt.Errorf("duplicate folder %q", g.Folder)
		}
		if codes[g.Code] {
			return fmt.Errorf("duplicate code %q", g.Code)
		}
		folders[g.Folder] = true
		codes[g.Code] = true
	}
	return nil
}

// Lookup finds a game by folder or upstream code.
func (r *Registry) Lookup(key string) (Game, bool) {
	key = strings.TrimSpace(key)
	for _, g := range r.Games {
		if g.Folder == key || g.Code == key {
			return g, true
		}
	}
	return Game{}, false
}

// Select resolves keys to games, in the order given. No keys selects every game.
func (r *Registry) Select(keys []string) ([]Game, error) {
	if len(keys) == 0 {
		return append([]Game(nil), r.Games...), nil
	}

	games := make([]Game, 0, len(keys))
	for _, k := range keys {
		g, ok := r.Lookup(k)
		if !ok {
			return nil, fmt.Errorf("unknown game: %s", k)
		}
		games = append(games, g)
	}
	return games, nil
}

// Order returns the game folders in display order.
func (r *Registry) Order() []string {
	folders := make([]string, len(r.Games))
	for i, g := range r.Games {
		folders[i] = g.Folder
	}
	return folders
}

// Position returns the display rank of a folder. Unknown folders sort last.
func (r *Registry) Position(folder string) int {
	for i, g := range r.Games {
		if g.Folder == folder {
			return i
		}
	}
	return len(r.Games)
}

// Display returns the site name and accent for a folder, falling back to the
// folder name and DefaultAccent for folders missing from the table.
func (r *Registry) Display(folder string) (name, accent string) {
	for _, g := range r.Games {
		if g.Folder == folder {
			return g.Name, g.Accent
		}
	}
	return folder, DefaultAccent
}

// Encode writes the table as YAML.
func (r *Registry) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding games: %w", err)
	}
	return enc.Close()
}
