package store

import "errors"

var (
	ErrNotFound  = errors.New("transaction not found")
	ErrDuplicate = errors.New("duplicate transaction id")
)
