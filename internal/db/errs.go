package db

import "errors"

var (
	ErrDBNotFound       = errors.New("database not found")
	ErrDBCorrupted      = errors.New("database corrupted")
	ErrUnknownMigration = errors.New("unknown migration version")
)
