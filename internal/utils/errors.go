package utils

import (
	"fmt"
)

// NetworkError is a transport level failure talking to URL.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("error fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPStatusError is returned for any response that is not 200 OK.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("not 200 but %d when trying to GET %s", e.StatusCode, e.URL)
}

type LookupError struct {
	Key string
	URL string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("no ALPN version mapped for java version %q in %s", e.Key, e.URL)
}

type InvalidDestinationError struct {
	Path string
}

func (e *InvalidDestinationError) Error() string {
	return fmt.Sprintf("target file must be a file and not a directory: %s", e.Path)
}

// FilesystemError wraps a failed local file operation (Op is e.g. "mkdir").
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("cannot %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }
