package types

import "errors"

// Domain errors for type validation
var (
	ErrMissingItemField     = errors.New("analysis item missing required field")
	ErrInvalidSourceLocator = errors.New("invalid source locator")
)
