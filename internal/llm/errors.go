package llm

import (
	"errors"
	"fmt"
)

var (
	ErrProviderKeyMissing        = errors.New("provider api key missing")
	ErrProviderRequestFailed     = errors.New("provider request failed")
	ErrProviderResponseMalformed = errors.New("provider response malformed")
	ErrUnknownProvider           = errors.New("unknown provider")
)

// KeyMissingError reports which provider had no configured key.
type KeyMissingError struct {
	Provider string
}

func (e *KeyMissingError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, ErrProviderKeyMissing)
}

func (e *KeyMissingError) Unwrap() error { return ErrProviderKeyMissing }

// RequestFailedError carries the upstream status of a failed provider call.
// StatusCode is zero when the request never got a response.
type RequestFailedError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *RequestFailedError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("%s request failed with status %d: %s", e.Provider, e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s request failed with status %d", e.Provider, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
	default:
		return fmt.Sprintf("%s request failed", e.Provider)
	}
}

func (e *RequestFailedError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrProviderRequestFailed, e.Err}
	}
	return []error{ErrProviderRequestFailed}
}

// Malformed wraps a response decoding problem as ErrProviderResponseMalformed.
func Malformed(provider, reason string) error {
	return fmt.Errorf("%s: %w: %s", provider, ErrProviderResponseMalformed, reason)
}
