package bluesky

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthentication indicates no usable session could be obtained. The
	// pipeline aborts before any other network call.
	ErrAuthentication = errors.New("bluesky: unable to get session")

	// ErrImageEmpty indicates an image with no content was supplied.
	ErrImageEmpty = errors.New("bluesky: image content is empty")

	// ErrImageTooLarge indicates an image over the service's 1,000,000 byte
	// upload limit. The limit is inclusive: exactly 1,000,000 bytes is fine.
	ErrImageTooLarge = errors.New("bluesky: image file size too large")

	// ErrInvalidDID indicates a mention resolved to something that is not a
	// well-formed DID. An unresolved mention blocks submission.
	ErrInvalidDID = errors.New("bluesky: mention resolution returned an invalid did")
)

// APIError is a non-success response from the service. Requests are not
// retried; the error propagates as the terminal failure of the publish call.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bluesky: api error (status %d): %s", e.StatusCode, e.Body)
}
