// Package output formats glossary reports for display or machine consumption.
//
// Four formats are supported:
//   - text     indented outline for the terminal (default)
//   - json     the full report with metadata
//   - csv      flattened records in the export column order
//   - markdown nested bullet list with a metadata table
//
// Use [GetWriter] to obtain a [Writer] for a given format string, then call
// [Writer.Write] with an [io.Writer] and a [*analyze.Report]. [WriteReport]
// handles destination selection. [WriteRecordsCSV] and [WriteRecords] write
// record sets that did not come from a report.
package output
