// Glossary generates business glossaries from relational database schemas.
//
// It summarizes the tables and columns of a PostgreSQL or SQLite database,
// asks an LLM for a hierarchical glossary and flattens the result into
// records ready for a data catalog import.
//
// Usage:
//
//	glossary serve                       # run the HTTP API on HOST:PORT
//	glossary analyze --format csv        # one-shot glossary for DATABASE_URL
//	glossary flatten glossary.json       # flatten a saved hierarchy to CSV
//	glossary db tables                   # list the tables that will be analyzed
//	glossary config show                 # effective settings, secrets masked
package main
