package binder

import "errors"

var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrFailedToParseJSON    = errors.New("failed to parse JSON request body")
	ErrFailedToParseForm    = errors.New("failed to parse form data")

	// ErrBinderNotApplicable is returned when the request body is not in the
	// binder's format, so the next binder in the chain can try.
	ErrBinderNotApplicable = errors.New("binder not applicable to this request")
)
