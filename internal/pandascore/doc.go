// Package pandascore provides the schedule client for the PandaScore REST API.
//
// The client pages through /<game>/matches/upcoming (1-based, JSON:API
// bracket parameters, 100 records per page, at most 20 pages) with bearer
// token auth. Server errors and timeouts are retried with exponential
// backoff (2s, 4s, 8s); client errors fail at once with a *StatusError.
// Records with no scheduled time or no opponents are dropped silently.
package pandascore
