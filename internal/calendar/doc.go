// Package calendar groups matches into calendars and converts them to and
// from iCalendar (.ics) documents.
//
// An Aggregator collects the events of one game run into Groups, one per
// team or per league depending on the game's grouping. Encode and Decode
// translate a Group through github.com/arran4/golang-ical; every file
// carries PRODID "-//esport-ics//esport-ics//EN", METHOD:PUBLISH and the
// X-WR-CALNAME, X-WR-CALDESC and X-ESPORT-ICS-SLUG metadata properties.
package calendar
