package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/spec-kit/project-docs/internal/domain"
)

// ErrorKind classifies why a payload could not be retrieved.
type ErrorKind string

const (
	KindConnection    ErrorKind = "Connection"
	KindQuery         ErrorKind = "Query"
	KindTimeout       ErrorKind = "Timeout"
	KindBadStatus     ErrorKind = "BadStatus"
	KindParseFailure  ErrorKind = "ParseFailure"
	KindInvalidConfig ErrorKind = "InvalidConfig"
)

// FetchError is the only error type returned by Fetch. Driver and transport
// errors are kept in Err and never returned bare.
type FetchError struct {
	Kind       ErrorKind
	Origin     domain.OriginKind
	Message    string
	StatusCode int
	Body       string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s source %s: %s", originLabel(e.Origin), kindLabel(e.Kind), e.Message)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ErrorCode implements errorutil.StatusCoder.
func (e *FetchError) ErrorCode() string { return "SOURCE_FETCH_FAILED" }

// HTTPStatus implements errorutil.StatusCoder.
func (e *FetchError) HTTPStatus() int {
	switch e.Kind {
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindInvalidConfig:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// IsKind reports whether err is a FetchError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == kind
}

func newError(origin domain.OriginKind, kind ErrorKind, err error, format string, args ...any) *FetchError {
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	return &FetchError{Kind: kind, Origin: origin, Message: msg, Err: err}
}

// classify picks Timeout over the fallback kind when the failure came from an
// elapsed deadline.
func classify(ctx context.Context, err error, fallback ErrorKind) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return fallback
}

func originLabel(k domain.OriginKind) string {
	switch k {
	case domain.OriginSQLSource:
		return "sql"
	case domain.OriginExternalAPI:
		return "external api"
	default:
		return "data"
	}
}

func kindLabel(k ErrorKind) string {
	switch k {
	case KindConnection:
		return "connection failed"
	case KindQuery:
		return "query failed"
	case KindTimeout:
		return "timed out"
	case KindBadStatus:
		return "returned an error status"
	case KindParseFailure:
		return "returned an unreadable response"
	case KindInvalidConfig:
		return "configuration invalid"
	default:
		return "failed"
	}
}
