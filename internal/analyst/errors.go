package analyst

import "fmt"

// RequestError is returned when the analyst service answers with a
// non-200 status. RequestID is the service's correlation id, if it sent one.
type RequestError struct {
	StatusCode int
	RequestID  string
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("analyst request failed (id: %s) with status %d: %s", e.RequestID, e.StatusCode, e.Body)
}

func (e *RequestError) HTTPStatusCode() int {
	return e.StatusCode
}
