// Package database opens Bun connections for MySQL, PostgreSQL (lib/pq or
// pgx), SQLite and SQL Server, and provides query logging and metrics
// hooks, SQL error classification and a model registry used to bootstrap
// tables.
package database
