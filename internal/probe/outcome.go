package probe

import (
	"context"
	"errors"
	"net"
	"os"
)

// FailureKind names why a probe could not read its metric.
type FailureKind string

const (
	KindNone             FailureKind = ""
	KindNotFound         FailureKind = "not_found"
	KindPermissionDenied FailureKind = "permission_denied"
	KindTimeout          FailureKind = "timeout"
	// KindUnexpected is still a violation, but the evaluator logs it at
	// error level since it usually means a bug rather than an unhealthy host.
	KindUnexpected FailureKind = "unexpected"
)

var (
	errNoSample  = errors.New("no sample returned")
	errZeroTotal = errors.New("filesystem reports zero total size")
)

// Outcome is the result of one probe. Violated is the only field the
// evaluator acts on; the rest is for logs and interactive output.
type Outcome struct {
	Violated bool
	Observed string
	Err      error
	Kind     FailureKind
}

// Probe samples one metric and reduces it to an Outcome. A Probe never
// returns an error: sampling failures become violations.
type Probe func(ctx context.Context) Outcome

// Fail maps a sampling error to a violating Outcome.
func Fail(err error) Outcome {
	return Outcome{
		Violated: true,
		Observed: "unavailable",
		Err:      err,
		Kind:     Classify(err),
	}
}

// Classify maps err onto the recoverable failure kinds.
func Classify(err error) FailureKind {
	if err == nil {
		return KindNone
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		switch {
		case dnsErr.IsTimeout:
			return KindTimeout
		case dnsErr.IsNotFound:
			return KindNotFound
		}
	}

	switch {
	case errors.Is(err, os.ErrNotExist):
		return KindNotFound
	case errors.Is(err, os.ErrPermission):
		return KindPermissionDenied
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return KindTimeout
	}

	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) && timeout.Timeout() {
		return KindTimeout
	}

	return KindUnexpected
}
