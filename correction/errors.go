package correction

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind categorizes provider failures.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthorized
	KindQuotaExceeded
	KindTimeout
	KindServer
	KindMalformedResponse
	KindBadRequest
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindQuotaExceeded:
		return "quota exceeded"
	case KindTimeout:
		return "timeout"
	case KindServer:
		return "server error"
	case KindMalformedResponse:
		return "malformed response"
	case KindBadRequest:
		return "bad request"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Error is a categorized provider failure.
type Error struct {
	Kind    Kind
	Status  int // HTTP status, 0 when there was no response
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the category of err. Deadline expiry counts as a timeout.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindUnknown
}

// KindFromStatus maps an HTTP error status to a category.
func KindFromStatus(code int) Kind {
	switch {
	case code == http.StatusUnauthorized:
		return KindUnauthorized
	case code == http.StatusPaymentRequired || code == http.StatusTooManyRequests:
		return KindQuotaExceeded
	case code == http.StatusRequestTimeout:
		return KindTimeout
	case code >= 500:
		return KindServer
	case code >= 400:
		return KindBadRequest
	default:
		return KindUnknown
	}
}

// Retryable reports whether a second attempt could succeed: timeouts,
// server errors, transport failures and unparseable answers.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindTimeout, KindServer, KindUnavailable, KindMalformedResponse:
		return true
	}
	return false
}
