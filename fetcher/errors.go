package fetcher

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/morikuni/failure/v2"
)

// ErrorCode classifies fetch failures.
type ErrorCode string

const (
	ErrInvalidURL  ErrorCode = "InvalidURL"
	ErrRateLimited ErrorCode = "RateLimited"
	ErrForbidden   ErrorCode = "Forbidden"
	ErrNotFound    ErrorCode = "NotFound"
	ErrNetwork     ErrorCode = "Network"
	ErrFetchFailed ErrorCode = "FetchFailed"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}

// Codes lists every classification, most specific first.
var Codes = []ErrorCode{
	ErrInvalidURL,
	ErrRateLimited,
	ErrForbidden,
	ErrNotFound,
	ErrNetwork,
	ErrFetchFailed,
}

// User-facing messages, surfaced verbatim.
const (
	msgInvalidURL  = "Please enter a valid URL starting with http:// or https://"
	msgRateLimited = "All access paths are rate limited. Please try again in a few minutes."
	msgForbidden   = "Access to this website is forbidden. Please try another URL."
	msgNotFound    = "Website not found. Please check the URL and try again."
	msgNetwork     = "Network error. Please check your internet connection and try again."
	msgFetchFailed = "Failed to analyze the website. All access paths failed. Please try again later."
)

// StatusError is returned for a response outside the 2xx range.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return "HTTP " + strconv.Itoa(e.StatusCode) + " for " + e.URL
}

// CodeOf returns the classification of err, or "" for errors that did not
// originate in this package.
func CodeOf(err error) ErrorCode {
	for _, code := range Codes {
		if failure.Is(err, code) {
			return code
		}
	}
	return ""
}

// classify turns the last access path failure into a coded error.
func classify(target string, last error) error {
	ctx := failure.Context{"url": target}

	var statusErr *StatusError
	if errors.As(last, &statusErr) {
		ctx["status"] = strconv.Itoa(statusErr.StatusCode)
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests:
			return failure.Wrap(last, failure.WithCode(ErrRateLimited), failure.Message(msgRateLimited), ctx)
		case http.StatusForbidden:
			return failure.Wrap(last, failure.WithCode(ErrForbidden), failure.Message(msgForbidden), ctx)
		case http.StatusNotFound:
			return failure.Wrap(last, failure.WithCode(ErrNotFound), failure.Message(msgNotFound), ctx)
		}
		return failure.Wrap(last, failure.WithCode(ErrFetchFailed), failure.Message(msgFetchFailed), ctx)
	}

	if last != nil {
		// No response at all.
		return failure.Wrap(last, failure.WithCode(ErrNetwork), failure.Message(msgNetwork), ctx)
	}
	return failure.New(ErrFetchFailed, failure.Message(msgFetchFailed), ctx)
}
