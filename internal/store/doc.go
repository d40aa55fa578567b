// Package store persists projects and their detected scenes in SQLite.
package store
