package ws

import (
	"github.com/pkg/errors"
)

var (
	ErrConnectionClosed = errors.New("connection has been closed")
	ErrCannotConnect    = errors.New("connection cannot be established")
	ErrTerminated       = errors.New("connection terminated")
	ErrRateLimit        = errors.New("rate limit exceeded")
	ErrNoRouter         = errors.New("no router configured")
)
