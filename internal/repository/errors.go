package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownIdentity is a login against an email the service does not know (404).
	ErrUnknownIdentity = errors.New("unknown identity")
	// ErrInvalidCredential is a login with the wrong password (400).
	ErrInvalidCredential = errors.New("invalid credential")
)

// AuthError is a login rejected by the service.
type AuthError struct {
	Status  int
	Message string
	Reason  error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("login rejected (%d): %v", e.Status, e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Reason }

// RemoteError is any other failed call: a non-2xx status or a transport error.
// Message is the server-supplied message, if the body carried one.
type RemoteError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
	default:
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
}

func (e *RemoteError) Unwrap() error { return e.Err }

// MessageOr returns the server message carried by err, or fallback.
func MessageOr(err error, fallback string) string {
	var re *RemoteError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	var ae *AuthError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return fallback
}
