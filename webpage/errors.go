package webpage

import "fmt"

// FetchError is returned when the remote server answers with a non-success
// status.
type FetchError struct {
	URL    string
	Status int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("webpage: HTTP %d from %s", e.Status, e.URL)
}

// NetworkError is returned on transport-level failure: DNS resolution,
// connection refused or reset, read errors.
type NetworkError struct {
	URL   string
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("webpage: fetch %s: %v", e.URL, e.Cause)
}

func (e *NetworkError) Unwrap() error { return e.Cause }
