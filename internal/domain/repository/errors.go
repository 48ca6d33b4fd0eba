package repository

import "errors"

// Store implementations translate driver errors into these.
var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrNoUpdatableFields = errors.New("no updatable fields")
	// ErrSchemaIncompatible accompanies ErrNoUpdatableFields when every patched field
	// was stripped because the live schema lacks its column.
	ErrSchemaIncompatible = errors.New("schema lacks the patched columns")
	ErrStoreUnavailable   = errors.New("store unavailable")
)
