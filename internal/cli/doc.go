// Package cli implements the command-line interface for esport-ics.
//
// The cli package provides the Cobra-based CLI: generate fetches upcoming
// matches and merges them into the calendar tree, site builds and verifies
// the index page, games and leagues list what can be published, and serve
// runs the scheduler with the HTTP server. Summaries and listings are
// written as text or JSON on stdout; logs go to stderr.
package cli
