// Package repository provides persistence implementations for the portal
// backend: a PostgreSQL store, an in-memory store seeded with demo data and
// a redis-backed token revocation list.
package repository

import "errors"

var (
	// ErrNotFound is returned when a looked-up record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken is returned when registering an email that exists.
	ErrEmailTaken = errors.New("email already registered")
)
