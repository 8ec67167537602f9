// Package database manages the PostgreSQL connection pool backing the
// optional price history store.
package database
