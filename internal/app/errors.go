package service

import "errors"

// ErrInvalidRequest marks request options that cannot be interpreted.
var ErrInvalidRequest = errors.New("invalid request")
