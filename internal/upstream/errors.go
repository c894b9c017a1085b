package upstream

import "strconv"

// TransportError: the request could not be sent or no response arrived
// (DNS, refused connection, timeout).
type TransportError struct{ Err error }

func (e *TransportError) Error() string { return "Connection failed: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// StatusError: the gateway answered with a non-2xx status.
type StatusError struct{ Code int }

func (e *StatusError) Error() string { return "HTTP " + strconv.Itoa(e.Code) }

// BodyReadError: a 2xx response whose body could not be read in full.
type BodyReadError struct{ Err error }

func (e *BodyReadError) Error() string { return "Failed to read response: " + e.Err.Error() }
func (e *BodyReadError) Unwrap() error { return e.Err }
