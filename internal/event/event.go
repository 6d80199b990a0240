package event

import (
	"strings"
	"time"

	"github.com/snutij/esport-ics/internal/match"
)

// UID prefix and suffix of every calendar event derived from a match.
const (
	UIDPrefix = "pandascore-match-"
	UIDSuffix = "@esport-ics"
)

// Event is one VEVENT of a calendar file.
type Event struct {
	UID         string    `json:"uid"`
	Summary     string    `json:"summary"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Stamp       time.Time `json:"stamp"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url,omitempty"`
}

// UID returns the event identity for an upstream match id.
func UID(matchID string) string {
	return UIDPrefix + matchID + UIDSuffix
}

// FromMatch builds the calendar event for a match. DTSTAMP is pinned to the
// start time so that regenerating an unchanged match yields identical output.
func FromMatch(m *match.Match) *Event {
	var parts []string
	if m.Context != "" {
		parts = append(parts, m.Context)
	}
	if m.Stream != "" {
		parts = append(parts, "Watch: "+m.Stream)
	}

	return &Event{
		UID:         UID(m.ID),
		Summary:     m.Title,
		Start:       m.Start.UTC(),
		End:         m.End.UTC(),
		Stamp:       m.Start.UTC(),
		Description: strings.Join(parts, "\n"),
		URL:         m.Stream,
	}
}

// IsUpcoming reports whether the event has not started yet at now.
func (e *Event) IsUpcoming(now time.Time) bool {
	return e.Start.After(now)
}
