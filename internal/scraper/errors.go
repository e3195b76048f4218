package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/go-rod/rod"
)

// Chrome navigation failures that are worth another attempt.
var retryableNavigation = []string{
	"net::ERR_CONNECTION_",
	"net::ERR_NAME_NOT_RESOLVED",
	"net::ERR_TIMED_OUT",
	"net::ERR_ADDRESS_UNREACHABLE",
	"net::ERR_INTERNET_DISCONNECTED",
	"net::ERR_NETWORK_CHANGED",
}

// Kind classifies a fetch outcome for retry decisions.
type Kind string

const (
	KindPermanent Kind = "permanent"
	KindRetryable Kind = "retryable"
	KindOther     Kind = "other"
)

// FetchError is returned by every backend when a fetch does not yield usable content.
type FetchError struct {
	Kind       Kind
	StatusCode int
	URL        string
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: %s (status %d): %v", e.URL, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Classify maps an HTTP status and transport error to a Kind.
// 404 and 410 are permanent; any other status >= 400, timeouts and
// connection failures are retryable; everything else is a record-level error.
func Classify(status int, err error) Kind {
	switch {
	case status == http.StatusNotFound || status == http.StatusGone:
		return KindPermanent
	case status >= 400:
		return KindRetryable
	}
	if err == nil {
		return KindOther
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindRetryable
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindRetryable
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindRetryable
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindRetryable
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return KindRetryable
	}
	var navErr *rod.ErrNavigation
	if errors.As(err, &navErr) {
		for _, prefix := range retryableNavigation {
			if strings.HasPrefix(navErr.Reason, prefix) {
				return KindRetryable
			}
		}
	}
	return KindOther
}

func newFetchError(url string, status int, err error) *FetchError {
	if err == nil {
		err = errors.New(http.StatusText(status))
	}
	return &FetchError{Kind: Classify(status, err), StatusCode: status, URL: url, Err: err}
}

func kindOf(err error) Kind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// IsPermanent reports whether err is a fetch failure that will not improve on retry.
func IsPermanent(err error) bool { return kindOf(err) == KindPermanent }

// IsRetryable reports whether err is a transient fetch failure.
func IsRetryable(err error) bool { return kindOf(err) == KindRetryable }
