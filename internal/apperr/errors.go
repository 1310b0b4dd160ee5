package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	// Shelf mutation failures. The tree is left untouched when either is returned.
	ErrPathNotFound = errors.New("path not found")
	ErrFileNotFound = errors.New("file not found")

	// Query failures. No partial result accompanies any of them.
	ErrSyntax  = errors.New("syntax error")
	ErrKey     = errors.New("unknown tag")
	ErrTooDeep = errors.New("formula too deep")

	ErrIO = errors.New("io error")

	// ErrInvalid marks a malformed argument that is not a query.
	ErrInvalid = errors.New("invalid argument")
)
