package match

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/snutij/esport-ics/internal/pandascore"
)

// GameDuration is the time allotted to one game of a series.
const GameDuration = 2700 * time.Second

// ContextSeparator joins the league, serie and tournament names.
const ContextSeparator = " - "

// Mapping errors. They are fatal for the game being processed.
var (
	ErrMissingID       = errors.New("match id is missing")
	ErrMissingTitle    = errors.New("match name is missing")
	ErrInvalidStart    = errors.New("match scheduled_at is missing or invalid")
	ErrMissingTeamName = errors.New("opponent name is missing")
)

// Match is a normalized upcoming match.
type Match struct {
	ID      string
	Title   string
	Start   time.Time
	End     time.Time
	Teams   []Team
	League  *League
	Context string
	Stream  string
}

// Team is one participant of a match.
type Team struct {
	ID      string
	Name    string
	Acronym string
	Slug    string
}

// League is the competition a match belongs to.
type League struct {
	ID   string
	Name string
	Slug string
}

// Duration returns End - Start.
func (m *Match) Duration() time.Duration {
	return m.End.Sub(m.Start)
}

// Map converts a raw upstream record into a Match.
func Map(raw pandascore.RawMatch) (*Match, error) {
	id := strings.TrimSpace(raw.ID.String())
	if id == "" {
		return nil, ErrMissingID
	}

	title := strings.TrimSpace(raw.Name)
	if title == "" {
		return nil, fmt.Errorf("match %s: %w", id, ErrMissingTitle)
	}

	start, err := ParseTime(raw.ScheduledAt)
	if err != nil {
		return nil, fmt.Errorf("match %s: %w", id, err)
	}

	teams := make([]Team, 0, len(raw.Opponents))
	for i, op := range raw.Opponents {
		team, err := mapTeam(op)
		if err != nil {
			return nil, fmt.Errorf("match %s opponent %d: %w", id, i, err)
		}
		teams = append(teams, team)
	}

	return &Match{
		ID:      id,
		Title:   title,
		Start:   start,
		End:     start.Add(Duration(int(raw.NumberOfGames))),
		Teams:   teams,
		League:  mapLeague(raw.League),
		Context: composeContext(raw),
		Stream:  selectStream(raw.StreamsList),
	}, nil
}

// Duration returns the time allotted to a best-of-n series. Counts below
// one are treated as a single game.
func Duration(numberOfGames int) time.Duration {
	if numberOfGames < 1 {
		numberOfGames = 1
	}
	return time.Duration(numberOfGames) * GameDuration
}

func mapTeam(op pandascore.RawOpponent) (Team, error) {
	if op.Opponent == nil {
		return Team{}, ErrMissingTeamName
	}
	name := strings.TrimSpace(op.Opponent.Name)
	if name == "" {
		return Team{}, ErrMissingTeamName
	}

	id := op.Opponent.ID.String()
	return Team{
		ID:      id,
		Name:    name,
		Acronym: strings.TrimSpace(op.Opponent.Acronym),
		Slug:    TeamSlug(name, id),
	}, nil
}

func mapLeague(raw *pandascore.RawLeague) *League {
	if raw == nil || strings.TrimSpace(raw.Name) == "" {
		return nil
	}
	name := strings.TrimSpace(raw.Name)
	slug := Slugify(raw.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		slug = fallbackSlug("league", raw.ID.String(), name)
	}
	return &League{
		ID:   raw.ID.String(),
		Name: name,
		Slug: slug,
	}
}

// composeContext joins league, serie and tournament names, skipping blanks.
func composeContext(raw pandascore.RawMatch) string {
	var parts []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	if raw.League != nil {
		add(raw.League.Name)
	}
	if raw.Serie != nil {
		add(raw.Serie.FullName)
	}
	if raw.Tournament != nil {
		add(raw.Tournament.Name)
	}
	return strings.Join(parts, ContextSeparator)
}

// selectStream returns the URL of the first stream that is both main and official.
func selectStream(streams []pandascore.RawStream) string {
	for _, s := range streams {
		if s.Main && s.Official {
			return strings.TrimSpace(s.RawURL)
		}
	}
	return ""
}
