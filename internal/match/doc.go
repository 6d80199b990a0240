// Package match maps raw PandaScore records into normalized matches.
//
// A Match carries its upstream id, title, a UTC time window, its teams,
// an optional league, a context line ("LEC - Summer 2024 - Playoffs") and
// the main official stream URL. The end time is always derived: each game
// of a best-of-n series is given 45 minutes.
package match
