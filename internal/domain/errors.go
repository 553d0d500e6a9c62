package domain

import "errors"

var (
	ErrNotFound  = errors.New("not found")
	ErrLogSealed = errors.New("log is sealed")
)
