// Package config holds the games registry and runtime settings.
//
// The registry is a table with one record per game (upstream code, output
// folder, display name, accent colour and grouping mode) loaded from an
// embedded YAML file or a user-supplied override. Settings come from the
// environment; the API token is read from PANDASCORE_API_TOKEN.
package config
