// Package schema connects to relational databases and reads their structure.
//
// Connection URLs use the SQLAlchemy form (postgresql://, postgresql+psycopg2://,
// sqlite:///path) and are opened through gorm with the postgres or pure-Go
// sqlite dialector. [Inspector] lists tables and describes columns, primary
// keys, foreign keys and indexes. [Summarize] produces the one-line-per-table
// text that the glossary prompt embeds, fetching columns concurrently.
//
// [Manager] owns the service's default connection: it opens lazily, retries
// after failures and is closed explicitly by its owner.
package schema
