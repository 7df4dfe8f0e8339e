package navigation

import "errors"

var (
	ErrDuplicatePolicy = errors.New("navigation policy already registered")
	ErrEmptyFactory    = errors.New("navigation policy factory has no registrations")
	ErrFactoryBuilt    = errors.New("navigation policy factory already finalized")
	ErrUnknownPolicy   = errors.New("unknown navigation policy kind")
	ErrMissingConfig   = errors.New("navigation policy requires a configuration")
	ErrInvalidConfig   = errors.New("invalid navigation policy configuration")
	ErrNilVolume       = errors.New("nil volume")
)

// failureReason maps a build error onto a short label for metrics.
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrDuplicatePolicy):
		return "duplicate_policy"
	case errors.Is(err, ErrEmptyFactory):
		return "empty_factory"
	case errors.Is(err, ErrFactoryBuilt):
		return "factory_built"
	case errors.Is(err, ErrUnknownPolicy):
		return "unknown_policy"
	case errors.Is(err, ErrMissingConfig):
		return "missing_config"
	case errors.Is(err, ErrInvalidConfig):
		return "invalid_config"
	case errors.Is(err, ErrNilVolume):
		return "nil_volume"
	default:
		return "other"
	}
}
