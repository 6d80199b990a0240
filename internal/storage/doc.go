// Package storage persists calendar groups as .ics files.
//
// Calendars live under a root directory (default "ics") as
// <root>/<game-folder>/<slug>.ics. WriteCalendar merges a freshly built
// group into the file already on disk and replaces it atomically; Scan walks
// the tree for the site builder.
package storage
