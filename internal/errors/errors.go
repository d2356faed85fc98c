package errors

import "errors"

// Domain errors raised by the engine. Wrap them with fmt.Errorf("...: %w")
// and test with errors.Is; Map turns them into transport status.
var (
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrInvalidTarget        = errors.New("invalid swipe target")
	ErrBlocked              = errors.New("blocked")
	ErrNoLocationSet        = errors.New("no location set")
	ErrNotFound             = errors.New("not found")
	ErrSwiperUnavailable    = errors.New("swiper unavailable")
	ErrRequesterUnavailable = errors.New("requester unavailable")
)
