package pathfinding

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for malformed queries.
	ErrInvalidArgument = errors.New("pathfinding: invalid argument")

	// ErrInvalidOperation is returned when builder steps are called out of order.
	// It wraps ErrInvalidArgument.
	ErrInvalidOperation = fmt.Errorf("%w: builder step out of order", ErrInvalidArgument)

	// ErrBuilderConsumed is returned by any builder call after With or Build.
	ErrBuilderConsumed = errors.New("pathfinding: builder already consumed")
)
