package repo

import "errors"

// ErrNotFound is returned when a resource is not found. A rotated or revoked
// refresh token is deliberately indistinguishable from a missing one at this
// level.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when a resource already exists.
var ErrAlreadyExists = errors.New("already exists")
