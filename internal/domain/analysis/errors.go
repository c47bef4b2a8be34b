package analysis

import "errors"

var (
	// ErrConfiguration: a required secret/collaborator is missing. Fatal.
	ErrConfiguration = errors.New("service not configured")
	// ErrValidation: the request is missing required fields. Fatal.
	ErrValidation = errors.New("invalid request")

	// ErrParseDegraded: the model answer was not JSON; raw text is returned instead.
	ErrParseDegraded = errors.New("analysis parse degraded")
	// ErrPersistence: an image was produced but could not be stored.
	ErrPersistence = errors.New("artifact persistence failed")
)
