package singleusetoken

import "errors"

// ErrNotFound is returned by repositories when no token has the given ID.
var ErrNotFound = errors.New("single use token not found")
