// Package cache provides a file-based cache for generated glossaries.
//
// Entries are keyed by a SHA-256 hash of the provider, model, deployment and
// the fully rendered prompt, so any change to the schema summary or template
// misses. Only responses that already parsed as JSON are stored. Each entry
// records its creation time; entries older than the TTL are ignored on read
// and deleted. Caching is off unless enabled in configuration.
//
// The default cache directory is $XDG_CACHE_HOME/glossary (or the
// OS-appropriate equivalent).
package cache
