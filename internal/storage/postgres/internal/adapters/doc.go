// Package adapters provides database adapter implementations for the
// PostgreSQL storage layer.
//
// This package implements the adapter pattern to support multiple PostgreSQL
// database libraries: pgxpool.Pool, sql.DB, and sqlx.DB. All adapters provide
// equivalent functionality, including transactions, through a common
// DBAdapter interface, allowing the stores to work with any supported
// connection type.
package adapters
