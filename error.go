package querykit

import "errors"

var (
	ErrBadConfig      = errors.New("bad config")
	ErrExists         = errors.New("already exists")
	ErrMissingData    = errors.New("missing data")
	ErrNotExist       = errors.New("not exist")
	ErrNotFound       = errors.New("not found")
	ErrNotImplemented = errors.New("not implemented")
	ErrNotValid       = errors.New("invalid")
	ErrUnaddressable  = errors.New("unaddressable value")
	ErrUnexpected     = errors.New("unexpected")
)
