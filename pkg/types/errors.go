package types

import "errors"

// Domain errors for query and entity validation
var (
	// Query errors
	ErrTermTooLong      = errors.New("search term too long")
	ErrInvalidTerm      = errors.New("search term contains invalid characters")
	ErrUnknownDimension = errors.New("unknown facet dimension")

	// Entity errors
	ErrOrphanAutomation = errors.New("automation must reference a repository")
	ErrEmptyAlias       = errors.New("automation alias cannot be empty")
)
