// Package cli wires together the Cobra command tree for the glossary binary.
//
// It defines the root command and all subcommands (serve, analyze, flatten,
// db, config, models, cache, version), binds flags onto configuration keys,
// and returns deterministic exit codes so scripts can tell a missing setting
// from a rejected credential or a malformed hierarchy.
package cli
