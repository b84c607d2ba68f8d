package media

import "errors"

var (
	// ErrFetch indicates the source media could not be retrieved from the
	// transport's media host (network error, auth failure, non-2xx).
	ErrFetch = errors.New("media fetch failed")
	// ErrUpload indicates the re-hosting step failed.
	ErrUpload = errors.New("media upload failed")
	// ErrTooLarge indicates the payload exceeds the accepted media size.
	ErrTooLarge = errors.New("media payload too large")
)
