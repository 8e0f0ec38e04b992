package switcher

import "errors"

// ErrInvalidArgument is returned by queries that can only be answered for a
// single connection-type flag when given a compound type.
var ErrInvalidArgument = errors.New("switcher: invalid argument")
