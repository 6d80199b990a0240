// Package event provides the calendar event model and the merge used when
// regenerating calendar files.
//
// Each event is identified by a UID derived from the upstream match id
// ("pandascore-match-<id>@esport-ics"), which makes regeneration idempotent:
// merging a run's events into a file that already holds them changes
// nothing, while events the upstream no longer lists are kept as history.
package event
