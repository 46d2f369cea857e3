// Package database provides the PostgreSQL connection pool used by the
// optional event archiver.
package database
