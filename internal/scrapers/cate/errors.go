package cate

import (
	"errors"
	"fmt"
)

// AuthenticationError means the portal rejected the credentials, it is the
// only error that aborts a whole run.
type AuthenticationError struct {
	Url        string
	StatusCode int
	Err        error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed for %s: %s", e.Url, e.Err.Error())
	}
	return fmt.Sprintf("authentication failed for %s: status %d", e.Url, e.StatusCode)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// NotFoundError is an expected absence (404 / 410), never fatal.
type NotFoundError struct {
	Url        string
	StatusCode int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s (status %d)", e.Url, e.StatusCode)
}

// NetworkError is any other failed request, the single link is abandoned.
type NetworkError struct {
	Url string
	// StatusCode is 0 when the request never got a response.
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request %s: %s", e.Url, e.Err.Error())
	}
	return fmt.Sprintf("request %s: unexpected status %d", e.Url, e.StatusCode)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// MalformedURLError is a link that cannot be turned into a fetchable url.
type MalformedURLError struct {
	Candidate string
	Err       error
}

func (e *MalformedURLError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed url '%s': %s", e.Candidate, e.Err.Error())
	}
	return fmt.Sprintf("malformed url '%s'", e.Candidate)
}

func (e *MalformedURLError) Unwrap() error {
	return e.Err
}

func IsAuthentication(err error) bool {
	var target *AuthenticationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}
