// services/errors.go - sentinel errors handlers map onto HTTP status codes
package services

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
)
