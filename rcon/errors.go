package rcon

import "errors"

// ErrClosed is returned by operations attempted on a closed session.
var ErrClosed = errors.New("rcon: session is closed")
