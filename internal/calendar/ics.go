package calendar

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/snutij/esport-ics/internal/event"
)

// Calendar-level properties.
const (
	ProductID    = "-//esport-ics//esport-ics//EN"
	PropertySlug = "X-ESPORT-ICS-SLUG"
)

const icsTimeFormat = "20060102T150405Z"

// Per-VEVENT decode errors. Events failing with these are skipped.
var (
	ErrMissingUID   = errors.New("vevent has no UID")
	ErrInvalidStart = errors.New("vevent has no valid DTSTART")
)

// Encode writes g as an RFC 5545 calendar. Events are written in the
// order they appear in g.
func Encode(w io.Writer, g *Group) error {
	cal := ics.NewCalendar()
	cal.SetProductId(ProductID)
	cal.SetMethod(ics.MethodPublish)
	if g.Name != "" {
		cal.SetXWRCalName(g.Name)
	}
	if g.Description != "" {
		cal.SetXWRCalDesc(g.Description)
	}
	cal.CalendarProperties = append(cal.CalendarProperties, ics.CalendarProperty{
		BaseProperty: ics.BaseProperty{
			IANAToken:      PropertySlug,
			ICalParameters: map[string][]string{},
			Value:          g.Slug,
		},
	})

	for _, evt := range g.Events {
		ve := cal.AddEvent(evt.UID)
		ve.SetSummary(evt.Summary)
		ve.SetStartAt(evt.Start.UTC())
		ve.SetEndAt(evt.End.UTC())
		stamp := evt.Stamp
		if stamp.IsZero() {
			stamp = evt.Start
		}
		ve.SetDtStampTime(stamp.UTC())
		ve.SetClass(ics.ClassificationPublic)
		if evt.Description != "" {
			ve.SetDescription(evt.Description)
		}
		if evt.URL != "" {
			ve.SetURL(evt.URL)
		}
	}

	return cal.SerializeTo(w)
}

// Decode parses a calendar file. Calendar metadata is read from
// X-WR-CALNAME, X-WR-CALDESC and X-ESPORT-ICS-SLUG.
//
// VEVENTs without a UID or a usable DTSTART are not fatal: they are left
// out of the group and reported in skipped. A document that is not a
// calendar at all returns an error.
func Decode(r io.Reader) (g *Group, skipped []error, err error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing calendar: %w", err)
	}

	g = NewGroup("", "", "")
	for _, p := range cal.CalendarProperties {
		switch strings.ToUpper(p.IANAToken) {
		case string(ics.PropertyXWRCalName):
			g.Name = p.Value
		case string(ics.PropertyXWRCalDesc):
			g.Description = p.Value
		case PropertySlug:
			g.Slug = p.Value
		}
	}

	for i, ve := range cal.Events() {
		evt, err := decodeEvent(ve)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("vevent %d: %w", i, err))
			continue
		}
		g.Events = append(g.Events, evt)
	}
	return g, skipped, nil
}

func decodeEvent(ve *ics.VEvent) (*event.Event, error) {
	uid := propertyValue(ve, ics.ComponentPropertyUniqueId)
	if strings.TrimSpace(uid) == "" {
		return nil, ErrMissingUID
	}

	start, err := ve.GetStartAt()
	if err != nil || start.IsZero() {
		return nil, fmt.Errorf("%s: %w", uid, ErrInvalidStart)
	}
	start = start.UTC()

	end, err := ve.GetEndAt()
	if err != nil || end.Before(start) {
		end = start
	}

	stamp := start
	if v := propertyValue(ve, ics.ComponentPropertyDtstamp); v != "" {
		if t, err := time.Parse(icsTimeFormat, v); err == nil {
			stamp = t
		}
	}

	return &event.Event{
		UID:         uid,
		Summary:     propertyValue(ve, ics.ComponentPropertySummary),
		Start:       start,
		End:         end.UTC(),
		Stamp:       stamp.UTC(),
		Description: propertyValue(ve, ics.ComponentPropertyDescription),
		URL:         propertyValue(ve, ics.ComponentPropertyUrl),
	}, nil
}

// propertyValue returns the value of a property. TEXT values are already
// unescaped by the parser.
func propertyValue(ve *ics.VEvent, name ics.ComponentProperty) string {
	if p := ve.GetProperty(name); p != nil {
		return p.Value
	}
	return ""
}
