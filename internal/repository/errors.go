// Package repository persists the exam booking aggregates.  Three stores
// implement the same Store interface: MySQL (JSON document columns), MongoDB
// and an in-memory store for development and tests.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by another college or test center.  Handlers translate
// this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a create collides with an existing record,
// such as a duplicate id or registration number.  Handlers translate this
// into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrVersionConflict is returned when a document changed between being
// loaded and saved inside a transaction.  The caller may retry the whole
// request.
var ErrVersionConflict = errors.New("version conflict")
