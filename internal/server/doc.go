// Package server runs esport-ics as a long-lived process: it regenerates
// calendars and the index on a cron schedule and serves them over HTTP,
// together with Prometheus metrics and a health endpoint.
package server
