package domain

import (
	"errors"
	"fmt"
)

var (
	ErrFetch       = errors.New("fetch failed")
	ErrParse       = errors.New("parse failed")
	ErrOutput      = errors.New("output write failed")
	ErrUnknownSite = errors.New("unknown site")
	ErrNegative    = errors.New("negative price")
	ErrPageTooBig  = errors.New("page exceeds size limit")
)

// FetchError is returned once the fetch client has given up on a URL.
// StatusCode is zero when no HTTP response was received.
type FetchError struct {
	URL        string
	StatusCode int
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d after %d attempt(s)", e.URL, e.StatusCode, e.Attempts)
	}
	return fmt.Sprintf("fetch %s: %v after %d attempt(s)", e.URL, e.Err, e.Attempts)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// Short is the one-line reason shown in the console summary.
func (e *FetchError) Short() string {
	if errors.Is(e.Err, ErrPageTooBig) {
		return "page too large"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	var te interface{ Timeout() bool }
	if errors.As(e.Err, &te) && te.Timeout() {
		return "timeout"
	}
	return "network error"
}

// ParseError means the page was fetched but no valid price could be read from it.
type ParseError struct {
	Site   SiteID
	Reason string
	Err    error
}

func NewParseError(site SiteID, reason string) *ParseError {
	return &ParseError{Site: site, Reason: reason}
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.Site, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse %s: %s", e.Site, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }
