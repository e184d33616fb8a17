// Package postgres implements the storage contracts on PostgreSQL.
//
// All SQL is built with goqu and rendered to complete statements before it
// reaches a database adapter, so the same store works unchanged on top of
// pgxpool.Pool, sql.DB, or sqlx.DB. Writes that carry business meaning are
// conditional updates whose affected-row count is the verdict: flipping the
// availability bit, closing a reservation, and soft-deleting records all
// decide inside the database, never in Go, which is what makes them safe
// under concurrent callers.
package postgres
