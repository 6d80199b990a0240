// Package pipeline runs the fetch-map-merge cycle for each configured game:
// upcoming matches are fetched from PandaScore, mapped, grouped into
// calendars and merged into the files on disk.
//
// Games are processed one after another. Each game fails independently;
// a run over several games reports every failure at the end.
package pipeline
