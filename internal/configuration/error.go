package configuration

import "errors"

// ErrInvalidValue occurs when the configuration contains an invalid value.
var ErrInvalidValue = errors.New("invalid configuration")
