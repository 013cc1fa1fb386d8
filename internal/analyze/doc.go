// Package analyze turns a database schema summary into a business glossary.
//
// The Engine renders the prompt template, calls a providers.Completer and
// accepts the first response that parses as JSON after markdown fences are
// stripped. Attempts are bounded by the configured retry count and run back
// to back. A rejected response switches the prompt to the variant ending in
// RetrySuffix. Provider authentication failures end the loop at once.
package analyze
