package broker

import (
	stderrors "errors"
	"strings"

	"github.com/pkg/errors"
)

// Every broker call fails with exactly one of these kinds. Call sites branch
// with errors.Is; the concrete cause stays wrapped underneath.
var (
	ErrAuth        = stderrors.New("broker: auth rejected")
	ErrTransport   = stderrors.New("broker: transport failure")
	ErrProtocol    = stderrors.New("broker: malformed payload")
	ErrRateLimited = stderrors.New("broker: rate limited")
	ErrRejected    = stderrors.New("broker: rejected by exchange")
)

func authErr(err error, msg string) error {
	return errors.Wrap(wrap(ErrAuth, err), msg)
}

func transportErr(err error, msg string) error {
	return errors.Wrap(wrap(ErrTransport, err), msg)
}

func protocolErr(err error, msg string) error {
	return errors.Wrap(wrap(ErrProtocol, err), msg)
}

type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string {
	if e.cause == nil {
		return e.kind.Error()
	}
	return e.kind.Error() + ": " + e.cause.Error()
}

func (e *kindError) Is(target error) bool { return target == e.kind }
func (e *kindError) Unwrap() error        { return e.cause }

func wrap(kind, cause error) error {
	return &kindError{kind: kind, cause: cause}
}

// classifyEmsg maps the broker's emsg strings onto error kinds.
func classifyEmsg(emsg string) error {
	low := strings.ToLower(emsg)
	switch {
	case strings.Contains(low, "session") || strings.Contains(low, "invalid input") ||
		strings.Contains(low, "user") || strings.Contains(low, "password") ||
		strings.Contains(low, "not logged in"):
		return wrap(ErrAuth, stderrors.New(emsg))
	case strings.Contains(low, "limit") && strings.Contains(low, "rate"):
		return wrap(ErrRateLimited, stderrors.New(emsg))
	case strings.Contains(low, "reject"):
		return wrap(ErrRejected, stderrors.New(emsg))
	default:
		return wrap(ErrProtocol, stderrors.New(emsg))
	}
}
