// Package repository is the MySQL data access layer.  Repositories
// own their SQL, scan into the model types, and return sentinel
// errors so handlers can map failures to HTTP status codes.  Methods
// that serve the admission engine return that package's sentinels
// directly.
package repository

import "errors"

// ErrDuplicateID is returned when creating an entity whose
// caller-chosen identifier already exists.  Handlers translate it
// into an HTTP 409 response.
var ErrDuplicateID = errors.New("id already exists")

// ErrEmailExists is returned when registering a staff account with
// an email that is already taken.
var ErrEmailExists = errors.New("email already exists")

// ErrBadReference is returned when an insert or update points at a
// class type or group that does not exist.  Handlers translate it
// into an HTTP 400 response.
var ErrBadReference = errors.New("referenced entity does not exist")
