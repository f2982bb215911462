package template

import "errors"

// Strict-mode lookup failures. They are returned wrapped with the offending
// name; match them with errors.Is.
var (
	// ErrUnknownHelper is returned in strict mode when a filter names an
	// unregistered helper
	ErrUnknownHelper = errors.New("unknown helper")

	// ErrUnknownPartial is returned in strict mode when {{> name}} names an
	// unregistered partial
	ErrUnknownPartial = errors.New("unknown partial")

	// ErrUnknownVariable is returned in strict variables mode when an
	// interpolation resolves to undefined or null
	ErrUnknownVariable = errors.New("unknown variable")
)
