package pandascore

import (
	"errors"
	"fmt"
)

// ErrMissingToken is returned by NewClient when no API token is configured.
var ErrMissingToken = errors.New("pandascore: API token is missing (set PANDASCORE_API_TOKEN)")

// maxErrorBody bounds the response body kept on status errors.
const maxErrorBody = 512

// StatusError is a non-success response that is never retried (4xx and
// anything else outside 2xx and 5xx).
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status=%d body=%s", e.Code, e.Body)
}

// ServerError is a 5xx response. It is retried until the retry budget runs
// out and then returned to the caller.
type ServerError struct {
	Code int
	Body string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("upstream server error status=%d body=%s", e.Code, e.Body)
}

func abbreviate(body []byte) string {
	if len(body) <= maxErrorBody {
		return string(body)
	}
	return string(body[:maxErrorBody]) + "..."
}
