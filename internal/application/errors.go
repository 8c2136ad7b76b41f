package application

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = fmt.Errorf("%w: incorrect username or password", ErrUnauthorized)
	ErrInactiveUser       = fmt.Errorf("%w: inactive user", ErrUnauthorized)
	ErrForbidden          = errors.New("forbidden")

	ErrConflict       = errors.New("conflict")
	ErrUsernameTaken  = fmt.Errorf("%w: username already in use", ErrConflict)
	ErrEmailTaken     = fmt.Errorf("%w: email already in use", ErrConflict)
	ErrCategoryExists = fmt.Errorf("%w: category already exists", ErrConflict)

	ErrNotFound         = errors.New("not found")
	ErrUserNotFound     = fmt.Errorf("%w: user does not exist", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("%w: category not found", ErrNotFound)
	ErrPostNotFound     = fmt.Errorf("%w: post not found", ErrNotFound)
	ErrParentNotFound   = fmt.Errorf("%w: invalid parent post", ErrNotFound)

	ErrValidation         = errors.New("validation failed")
	ErrStorageUnavailable = errors.New("storage not configured")
)

// ValidationError carries a user-facing message and matches ErrValidation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(msg string) error { return &ValidationError{Msg: msg} }
