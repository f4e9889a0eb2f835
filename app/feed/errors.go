package feed

import (
	"errors"
	"fmt"
)

// FetchError reports a transport failure or a non-success response.
type FetchError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError reports malformed or incomplete feed markup.
// Item is the zero-based item index, or -1 for channel-level problems.
type ParseError struct {
	Item  int
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	switch {
	case e.Item >= 0 && e.Field != "":
		return fmt.Sprintf("parse feed: item %d: %s: %v", e.Item, e.Field, e.Err)
	case e.Field != "":
		return fmt.Sprintf("parse feed: channel %s: %v", e.Field, e.Err)
	default:
		return fmt.Sprintf("parse feed: %v", e.Err)
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ErrMissingElement is wrapped by ParseError when a required element is absent or empty.
var ErrMissingElement = errors.New("missing required element")

func missingChannelField(field string) *ParseError {
	return &ParseError{Item: -1, Field: field, Err: ErrMissingElement}
}

func missingItemField(item int, field string) *ParseError {
	return &ParseError{Item: item, Field: field, Err: ErrMissingElement}
}
