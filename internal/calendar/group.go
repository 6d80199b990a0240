package calendar

import (
	"fmt"

	"github.com/snutij/esport-ics/internal/config"
	"github.com/snutij/esport-ics/internal/event"
	"github.com/snutij/esport-ics/internal/match"
)

// AllSlug addresses the aggregate calendar of a league-grouped game. A
// league whose own slug is AllSlug is filed under LeagueAllSlug instead.
const (
	AllSlug       = "all"
	LeagueAllSlug = "league-all"
)

// Group is one calendar file's worth of events.
type Group struct {
	Slug        string
	Name        string
	Description string
	Events      []*event.Event

	uids map[string]bool
}

// NewGroup returns an empty group.
func NewGroup(slug, name, description string) *Group {
	return &Group{
		Slug:        slug,
		Name:        name,
		Description: description,
		uids:        make(map[string]bool),
	}
}

// Add appends evt unless an event with the same UID is already present.
func (g *Group) Add(evt *event.Event) bool {
	if g.uids == nil {
		g.uids = make(map[string]bool, len(g.Events))
		for _, e := range g.Events {
			g.uids[e.UID] = true
		}
	}
	if g.uids[evt.UID] {
		return false
	}
	g.uids[evt.UID] = true
	g.Events = append(g.Events, evt)
	return true
}

// Info holds the per-game settings the aggregator needs.
type Info struct {
	// Game is the display name used in calendar descriptions.
	Game string
	// IncludeAll adds every match to the "all" group in league mode.
	IncludeAll bool
}

// Aggregator routes matches into calendar groups for one game run.
type Aggregator struct {
	mode   config.Grouping
	info   Info
	groups map[string]*Group
	order  []string
}

// NewAggregator creates an aggregator. An empty mode means team grouping.
func NewAggregator(mode config.Grouping, info Info) *Aggregator {
	if mode == "" {
		mode = config.GroupByTeam
	}
	return &Aggregator{
		mode:   mode,
		info:   info,
		groups: make(map[string]*Group),
	}
}

// Add derives the match's event once and routes it to every group it
// belongs to. It returns the number of groups the event was added to.
//
// In team mode the event fans out to one group per team. In league mode it
// goes to its league group and, with IncludeAll, to the "all" group; a
// match without a league only reaches "all". The "all" slug is never used
// for a league.
func (a *Aggregator) Add(m *match.Match) int {
	evt := event.FromMatch(m)

	added := 0
	switch a.mode {
	case config.GroupByLeague:
		if m.League != nil {
			slug := m.League.Slug
			if slug == AllSlug {
				slug = LeagueAllSlug
			}
			if a.group(slug, m.League.Name, a.leagueDescription(m.League.Name)).Add(evt) {
				added++
			}
		}
		if a.info.IncludeAll {
			if a.group(AllSlug, "All Leagues", a.allDescription()).Add(evt) {
				added++
			}
		}
	default:
		for _, team := range m.Teams {
			if a.group(team.Slug, team.Name, a.teamDescription(team.Name)).Add(evt) {
				added++
			}
		}
	}
	return added
}

// Groups returns the groups in the order they were first referenced.
func (a *Aggregator) Groups() []*Group {
	out := make([]*Group, 0, len(a.order))
	for _, slug := range a.order {
		out = append(out, a.groups[slug])
	}
	return out
}

// Len returns the number of groups.
func (a *Aggregator) Len() int {
	return len(a.order)
}

// group returns the group for slug, creating it with the given metadata if
// this is the first reference.
func (a *Aggregator) group(slug, name, description string) *Group {
	if g, ok := a.groups[slug]; ok {
		return g
	}
	g := NewGroup(slug, name, description)
	a.groups[slug] = g
	a.order = append(a.order, slug)
	return g
}

func (a *Aggregator) teamDescription(team string) string {
	if a.info.Game == "" {
		return fmt.Sprintf("Upcoming matches for %s", team)
	}
	return fmt.Sprintf("Upcoming %s matches for %s", a.info.Game, team)
}

func (a *Aggregator) leagueDescription(league string) string {
	if a.info.Game == "" {
		return fmt.Sprintf("Upcoming %s matches", league)
	}
	return fmt.Sprintf("Upcoming %s matches in %s", a.info.Game, league)
}

func (a *Aggregator) allDescription() string {
	if a.info.Game == "" {
		return "Upcoming matches in every league"
	}
	return fmt.Sprintf("Upcoming %s matches in every league", a.info.Game)
}
