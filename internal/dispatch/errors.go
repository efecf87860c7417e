package dispatch

import "fmt"

// TransportError is returned whenever the service call could not be
// completed: network failure, non-2xx status or an unreadable body.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("dispatch %s: http %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("dispatch %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
